package fraud

import (
	"time"

	"github.com/google/uuid"
)

// Event types recorded outside the security evaluator
const (
	EventGeofenceViolation = "geofence_violation"
	EventRateLimitExceeded = "rate_limit_exceeded"
)

const severityHard = "hard"

// ActivityEntry is one suspicious activity observation held by the Recorder
type ActivityEntry struct {
	UserID    uuid.UUID              `json:"user_id"`
	EventType string                 `json:"event_type"`
	Severity  string                 `json:"severity,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Filter narrows a Recorder query. Zero values match everything.
type Filter struct {
	UserID    uuid.UUID
	EventType string
	Since     time.Time
	Limit     int
}

func (f Filter) matches(e ActivityEntry) bool {
	if f.UserID != uuid.Nil && e.UserID != f.UserID {
		return false
	}
	if f.EventType != "" && e.EventType != f.EventType {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	return true
}

// FraudAlertType categorizes a persisted alert
type FraudAlertType string

const (
	AlertTypeLocationSpoofing  FraudAlertType = "location_spoofing"
	AlertTypeGeofenceViolation FraudAlertType = "geofence_violation"
	AlertTypeReviewAbuse       FraudAlertType = "review_abuse"
	AlertTypeRateLimit         FraudAlertType = "rate_limit"
)

// FraudAlertLevel is the urgency of an alert
type FraudAlertLevel string

const (
	AlertLevelLow      FraudAlertLevel = "low"
	AlertLevelMedium   FraudAlertLevel = "medium"
	AlertLevelHigh     FraudAlertLevel = "high"
	AlertLevelCritical FraudAlertLevel = "critical"
)

// FraudAlertStatus is the review state of an alert
type FraudAlertStatus string

const (
	AlertStatusPending       FraudAlertStatus = "pending"
	AlertStatusInvestigating FraudAlertStatus = "investigating"
	AlertStatusConfirmed     FraudAlertStatus = "confirmed"
	AlertStatusFalsePositive FraudAlertStatus = "false_positive"
)

// FraudAlert is the durable record of a blocking signal
type FraudAlert struct {
	ID          uuid.UUID              `json:"id"`
	UserID      uuid.UUID              `json:"user_id"`
	BusinessID  *uuid.UUID             `json:"business_id,omitempty"`
	EventType   string                 `json:"event_type"`
	AlertType   FraudAlertType         `json:"alert_type"`
	AlertLevel  FraudAlertLevel        `json:"alert_level"`
	Status      FraudAlertStatus       `json:"status"`
	Description string                 `json:"description"`
	Details     map[string]interface{} `json:"details"`
	RiskScore   float64                `json:"risk_score"`
	DetectedAt  time.Time              `json:"detected_at"`
}
