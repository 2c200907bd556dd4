package fraud

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/richxcame/verified-reviews/pkg/logger"
	"go.uber.org/zap"
)

// AlertStore persists fraud alerts
type AlertStore interface {
	CreateFraudAlert(ctx context.Context, alert *FraudAlert) error
}

var alertsDropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "fraud_alerts_dropped_total",
	Help: "Fraud alerts dropped because too many writes were in flight",
})

// AlertSink turns blocking entries into durable fraud alerts. Writes happen on
// detached goroutines, at most maxInFlight at a time; alerts arriving while
// the sink is saturated are dropped with a log line. Failures never reach the
// caller.
type AlertSink struct {
	store   AlertStore
	timeout time.Duration
	slots   chan struct{}
	wg      sync.WaitGroup
}

// NewAlertSink creates a sink writing to store
func NewAlertSink(store AlertStore, timeout time.Duration, maxInFlight int) *AlertSink {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if maxInFlight <= 0 {
		maxInFlight = 16
	}
	return &AlertSink{
		store:   store,
		timeout: timeout,
		slots:   make(chan struct{}, maxInFlight),
	}
}

// Accept implements Sink
func (s *AlertSink) Accept(entry ActivityEntry) {
	if !shouldPersist(entry) {
		return
	}

	alert := alertFromEntry(entry)
	select {
	case s.slots <- struct{}{}:
	default:
		alertsDropped.Inc()
		logger.Get().Warn("fraud alert dropped, sink saturated",
			zap.String("user_id", alert.UserID.String()),
			zap.String("event_type", alert.EventType),
		)
		return
	}

	s.wg.Add(1)
	go s.persist(alert)
}

// Wait blocks until in-flight writes finish
func (s *AlertSink) Wait() {
	s.wg.Wait()
}

func (s *AlertSink) persist(alert *FraudAlert) {
	defer s.wg.Done()
	defer func() { <-s.slots }()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.store.CreateFraudAlert(ctx, alert); err != nil {
		logger.Get().Warn("failed to persist fraud alert",
			zap.String("user_id", alert.UserID.String()),
			zap.String("alert_type", string(alert.AlertType)),
			zap.Error(err),
		)
	}
}

func shouldPersist(entry ActivityEntry) bool {
	return entry.Severity == severityHard || entry.EventType == EventGeofenceViolation
}

func alertFromEntry(entry ActivityEntry) *FraudAlert {
	alertType, level := classify(entry.EventType)

	details := make(map[string]interface{}, len(entry.Metadata))
	for k, v := range entry.Metadata {
		details[k] = v
	}

	detectedAt := entry.Timestamp
	if detectedAt.IsZero() {
		detectedAt = time.Now()
	}

	return &FraudAlert{
		ID:          uuid.New(),
		UserID:      entry.UserID,
		BusinessID:  businessFromMetadata(entry.Metadata),
		EventType:   entry.EventType,
		AlertType:   alertType,
		AlertLevel:  level,
		Status:      AlertStatusPending,
		Description: fmt.Sprintf("review submission blocked: %s", entry.EventType),
		Details:     details,
		RiskScore:   riskScore(level),
		DetectedAt:  detectedAt,
	}
}

func businessFromMetadata(md map[string]interface{}) *uuid.UUID {
	raw, ok := md["business_id"].(string)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

func classify(eventType string) (FraudAlertType, FraudAlertLevel) {
	switch eventType {
	case "mock_location":
		return AlertTypeLocationSpoofing, AlertLevelCritical
	case "gps_accuracy":
		return AlertTypeLocationSpoofing, AlertLevelHigh
	case EventGeofenceViolation:
		return AlertTypeGeofenceViolation, AlertLevelMedium
	case EventRateLimitExceeded:
		return AlertTypeRateLimit, AlertLevelLow
	default:
		return AlertTypeReviewAbuse, AlertLevelHigh
	}
}

func riskScore(level FraudAlertLevel) float64 {
	switch level {
	case AlertLevelCritical:
		return 90
	case AlertLevelHigh:
		return 70
	case AlertLevelMedium:
		return 40
	default:
		return 10
	}
}
