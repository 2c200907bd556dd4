package security

import "time"

// Telemetry is the bundle of client-reported trust signals sent with a
// submission. Every field is optional; a nil field means the client did not
// report that signal.
type Telemetry struct {
	GPSAccuracy          *float64             `json:"gps_accuracy,omitempty" validate:"omitempty,gte=0"`
	VerificationTime     *int                 `json:"verification_time,omitempty" validate:"omitempty,gte=0"`
	MotionDetected       *bool                `json:"motion_detected,omitempty"`
	IsMockLocation       *bool                `json:"is_mock_location,omitempty"`
	LocationHistoryCount *int                 `json:"location_history_count,omitempty" validate:"omitempty,gte=0"`
	SuspiciousActivities []SuspiciousActivity `json:"suspicious_activities,omitempty" validate:"max=50,dive"`
	Device               *DeviceFingerprint   `json:"device_info,omitempty"`
}

// SuspiciousActivity is an ad-hoc event the client flagged during capture
type SuspiciousActivity struct {
	Type      string                 `json:"type" validate:"required,max=64"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// DeviceFingerprint identifies the submitting device
type DeviceFingerprint struct {
	Manufacturer string `json:"manufacturer,omitempty" validate:"max=128"`
	Model        string `json:"model,omitempty" validate:"max=128"`
	OS           string `json:"os,omitempty" validate:"max=64"`
	DeviceID     string `json:"unique_id,omitempty" validate:"max=256"`
}

// DeviceID returns the device's unique id, or "" when not reported
func (t Telemetry) DeviceID() string {
	if t.Device == nil {
		return ""
	}
	return t.Device.DeviceID
}

// Float returns a pointer to v
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v
func Int(v int) *int { return &v }

// Bool returns a pointer to v
func Bool(v bool) *bool { return &v }
