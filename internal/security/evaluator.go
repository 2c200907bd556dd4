package security

import (
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/richxcame/verified-reviews/internal/fraud"
)

// Outcome is the final classification of a submission
type Outcome string

const (
	OutcomeAllow Outcome = "allow"
	OutcomeBlock Outcome = "block"
)

var signalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "review_security_signals_total",
	Help: "Security signals tripped during review verification",
}, []string{"signal", "severity"})

// Signal is a tripped policy row
type Signal struct {
	Name     string   `json:"name"`
	Severity Severity `json:"severity"`
	Detail   string   `json:"detail,omitempty"`
}

// Verdict is the evaluator's result. Outcome is block iff at least one hard
// signal tripped; soft signals alone only raise FlagCount.
type Verdict struct {
	Outcome   Outcome  `json:"outcome"`
	FlagCount int      `json:"flag_count"`
	Signals   []Signal `json:"signals"`
	Reason    string   `json:"reason,omitempty"`
}

// Blocked reports whether the verdict rejects the submission
func (v Verdict) Blocked() bool {
	return v.Outcome == OutcomeBlock
}

// ActivityRecorder receives every tripped signal
type ActivityRecorder interface {
	Record(entry fraud.ActivityEntry)
}

// Evaluator classifies telemetry against a Policy
type Evaluator struct {
	policy   Policy
	recorder ActivityRecorder
	now      func() time.Time
}

// NewEvaluator creates an evaluator that appends every tripped signal to
// recorder
func NewEvaluator(policy Policy, recorder ActivityRecorder) *Evaluator {
	return &Evaluator{
		policy:   policy,
		recorder: recorder,
		now:      time.Now,
	}
}

// Policy returns the thresholds in use
func (e *Evaluator) Policy() Policy {
	return e.policy
}

// Evaluate runs every check, records all tripped signals for userID against
// businessID, and returns the verdict. sameDeviceToday is the number of
// reviews already submitted from the same device since local midnight.
func (e *Evaluator) Evaluate(userID, businessID uuid.UUID, t Telemetry, sameDeviceToday int) Verdict {
	verdict := Verdict{Outcome: OutcomeAllow, Signals: []Signal{}}
	now := e.now()

	trip := func(sig Signal, metadata map[string]interface{}) {
		verdict.Signals = append(verdict.Signals, sig)
		signalsTotal.WithLabelValues(sig.Name, string(sig.Severity)).Inc()

		switch sig.Severity {
		case SeveritySoft:
			verdict.FlagCount++
		case SeverityHard:
			if verdict.Outcome != OutcomeBlock {
				verdict.Outcome = OutcomeBlock
				verdict.Reason = e.blockMessage(sig.Name, t)
			}
		}

		if metadata == nil {
			metadata = map[string]interface{}{}
		}
		metadata["business_id"] = businessID.String()
		metadata["severity"] = string(sig.Severity)
		if sig.Detail != "" {
			metadata["detail"] = sig.Detail
		}
		if e.recorder != nil {
			e.recorder.Record(fraud.ActivityEntry{
				UserID:    userID,
				EventType: sig.Name,
				Severity:  string(sig.Severity),
				Metadata:  metadata,
				Timestamp: now,
			})
		}
	}

	for _, r := range rules {
		if tripped, detail := r.check(e.policy, t); tripped {
			trip(Signal{Name: r.name, Severity: r.severity, Detail: detail}, telemetryMetadata(r.name, t))
		}
	}

	for _, activity := range t.SuspiciousActivities {
		md := map[string]interface{}{
			"activity_type": activity.Type,
		}
		if !activity.Timestamp.IsZero() {
			md["client_timestamp"] = activity.Timestamp
		}
		if len(activity.Metadata) > 0 {
			md["activity_metadata"] = activity.Metadata
		}
		trip(Signal{Name: SignalSuspiciousActivity, Severity: SeveritySoft, Detail: activity.Type}, md)
	}

	if n := len(t.SuspiciousActivities); n >= e.policy.SuspiciousActivityLimit {
		trip(Signal{
			Name:     SignalSuspiciousActivityVolume,
			Severity: SeverityHard,
			Detail:   "suspicious activity volume reached limit",
		}, map[string]interface{}{"count": n})
	}

	if verdict.FlagCount >= e.policy.SoftFlagLimit {
		trip(Signal{
			Name:     SignalExcessiveSoftFlags,
			Severity: SeverityHard,
			Detail:   "soft flag count reached limit",
		}, map[string]interface{}{"flag_count": verdict.FlagCount})
	}

	if sameDeviceToday >= e.policy.SameDeviceDailyThreshold {
		trip(Signal{
			Name:     SignalSameDeviceReviews,
			Severity: SeverityInfo,
			Detail:   "multiple reviews from the same device today",
		}, map[string]interface{}{"count": sameDeviceToday, "device_id": t.DeviceID()})
	}

	return verdict
}

func (e *Evaluator) blockMessage(signal string, t Telemetry) string {
	switch signal {
	case SignalMockLocation:
		return MessageMockLocation
	case SignalGPSAccuracy:
		return gpsAccuracyMessage(*t.GPSAccuracy)
	default:
		return MessageMultipleSignals
	}
}

func telemetryMetadata(signal string, t Telemetry) map[string]interface{} {
	md := map[string]interface{}{}
	switch signal {
	case SignalGPSAccuracy:
		md["gps_accuracy"] = *t.GPSAccuracy
	case SignalVerificationTime:
		md["verification_time"] = *t.VerificationTime
	case SignalLowLocationHistory:
		md["location_history_count"] = *t.LocationHistoryCount
	}
	if t.Device != nil {
		md["device_id"] = t.Device.DeviceID
		md["device_model"] = t.Device.Model
	}
	return md
}
