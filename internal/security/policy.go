package security

import (
	"fmt"

	"github.com/richxcame/verified-reviews/pkg/config"
)

// Severity classifies how a tripped signal affects the verdict
type Severity string

const (
	SeverityHard Severity = "hard" // blocks the submission
	SeveritySoft Severity = "soft" // counts toward FlagCount
	SeverityInfo Severity = "info" // recorded only
)

// Signal names, also used as suspicious activity event types
const (
	SignalMockLocation             = "mock_location"
	SignalGPSAccuracy              = "gps_accuracy"
	SignalVerificationTime         = "verification_time"
	SignalMotionNotDetected        = "motion_not_detected"
	SignalLowLocationHistory       = "low_location_history"
	SignalSuspiciousActivity       = "suspicious_activity"
	SignalSuspiciousActivityVolume = "suspicious_activity_volume"
	SignalExcessiveSoftFlags       = "excessive_soft_flags"
	SignalSameDeviceReviews        = "same_device_reviews"
)

// User-facing block messages. Threshold values are kept out of the generic
// message.
const (
	MessageMockLocation    = "Mock GPS detected. Please disable mock location apps and try again."
	MessageMultipleSignals = "Review blocked due to multiple security concerns."
)

// Policy holds the thresholds the evaluator applies
type Policy struct {
	MaxGPSAccuracyMeters     float64
	ExpectedVerificationSecs int
	MinLocationHistory       int
	SuspiciousActivityLimit  int
	SoftFlagLimit            int
	SameDeviceDailyThreshold int
}

// DefaultPolicy returns the production thresholds
func DefaultPolicy() Policy {
	return Policy{
		MaxGPSAccuracyMeters:     50,
		ExpectedVerificationSecs: 30,
		MinLocationHistory:       5,
		SuspiciousActivityLimit:  3,
		SoftFlagLimit:            3,
		SameDeviceDailyThreshold: 3,
	}
}

// PolicyFromConfig builds a policy from configuration, keeping defaults for
// non-positive values
func PolicyFromConfig(cfg config.SecurityConfig) Policy {
	p := DefaultPolicy()
	if cfg.MaxGPSAccuracyMeters > 0 {
		p.MaxGPSAccuracyMeters = cfg.MaxGPSAccuracyMeters
	}
	if cfg.ExpectedVerificationSecs > 0 {
		p.ExpectedVerificationSecs = cfg.ExpectedVerificationSecs
	}
	if cfg.MinLocationHistory > 0 {
		p.MinLocationHistory = cfg.MinLocationHistory
	}
	if cfg.SuspiciousActivityLimit > 0 {
		p.SuspiciousActivityLimit = cfg.SuspiciousActivityLimit
	}
	if cfg.SoftFlagLimit > 0 {
		p.SoftFlagLimit = cfg.SoftFlagLimit
	}
	if cfg.SameDeviceDailyThreshold > 0 {
		p.SameDeviceDailyThreshold = cfg.SameDeviceDailyThreshold
	}
	return p
}

// rule is one row of the policy table. check returns whether the signal
// tripped and a diagnostic detail; absent telemetry never trips.
type rule struct {
	name     string
	severity Severity
	check    func(p Policy, t Telemetry) (bool, string)
}

// rules are evaluated in order. Mock location comes first so its message wins
// when several hard gates trip.
var rules = []rule{
	{
		name:     SignalMockLocation,
		severity: SeverityHard,
		check: func(p Policy, t Telemetry) (bool, string) {
			if t.IsMockLocation == nil || !*t.IsMockLocation {
				return false, ""
			}
			return true, "mock location reported by device"
		},
	},
	{
		name:     SignalGPSAccuracy,
		severity: SeverityHard,
		check: func(p Policy, t Telemetry) (bool, string) {
			if t.GPSAccuracy == nil || *t.GPSAccuracy <= p.MaxGPSAccuracyMeters {
				return false, ""
			}
			return true, fmt.Sprintf("accuracy %.0fm exceeds %.0fm", *t.GPSAccuracy, p.MaxGPSAccuracyMeters)
		},
	},
	{
		name:     SignalVerificationTime,
		severity: SeveritySoft,
		check: func(p Policy, t Telemetry) (bool, string) {
			if t.VerificationTime == nil || *t.VerificationTime == p.ExpectedVerificationSecs {
				return false, ""
			}
			return true, fmt.Sprintf("verification took %ds, expected %ds", *t.VerificationTime, p.ExpectedVerificationSecs)
		},
	},
	{
		name:     SignalMotionNotDetected,
		severity: SeveritySoft,
		check: func(p Policy, t Telemetry) (bool, string) {
			if t.MotionDetected == nil || *t.MotionDetected {
				return false, ""
			}
			return true, "no device motion during verification"
		},
	},
	{
		name:     SignalLowLocationHistory,
		severity: SeveritySoft,
		check: func(p Policy, t Telemetry) (bool, string) {
			if t.LocationHistoryCount == nil || *t.LocationHistoryCount >= p.MinLocationHistory {
				return false, ""
			}
			return true, fmt.Sprintf("%d location samples, expected at least %d", *t.LocationHistoryCount, p.MinLocationHistory)
		},
	},
}

// gpsAccuracyMessage is the user-facing message for the accuracy gate
func gpsAccuracyMessage(accuracy float64) string {
	return fmt.Sprintf("GPS accuracy is too low (%.0fm). Please move to an open area and try again.", accuracy)
}
