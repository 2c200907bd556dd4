package fraud

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockAlertStore struct {
	mock.Mock
}

func (m *MockAlertStore) CreateFraudAlert(ctx context.Context, alert *FraudAlert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func TestAlertSink_PersistsHardEntries(t *testing.T) {
	store := new(MockAlertStore)
	sink := NewAlertSink(store, time.Second, 4)
	userID, businessID := uuid.New(), uuid.New()
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	store.On("CreateFraudAlert", mock.Anything, mock.MatchedBy(func(a *FraudAlert) bool {
		return a.UserID == userID &&
			a.AlertType == AlertTypeLocationSpoofing &&
			a.AlertLevel == AlertLevelCritical &&
			a.Status == AlertStatusPending &&
			a.DetectedAt.Equal(ts) &&
			a.EventType == "mock_location" &&
			a.BusinessID != nil && *a.BusinessID == businessID &&
			a.Details["device_id"] == "dev-1"
	})).Return(nil).Once()

	sink.Accept(ActivityEntry{
		UserID:    userID,
		EventType: "mock_location",
		Severity:  "hard",
		Metadata:  map[string]interface{}{"device_id": "dev-1", "business_id": businessID.String()},
		Timestamp: ts,
	})
	sink.Wait()

	store.AssertExpectations(t)
}

func TestAlertSink_PersistsGeofenceViolations(t *testing.T) {
	store := new(MockAlertStore)
	sink := NewAlertSink(store, time.Second, 4)

	businessID := uuid.New()

	store.On("CreateFraudAlert", mock.Anything, mock.MatchedBy(func(a *FraudAlert) bool {
		return a.AlertType == AlertTypeGeofenceViolation &&
			a.AlertLevel == AlertLevelMedium &&
			a.BusinessID != nil && *a.BusinessID == businessID
	})).Return(nil).Once()

	sink.Accept(ActivityEntry{
		UserID:    uuid.New(),
		EventType: EventGeofenceViolation,
		Metadata:  map[string]interface{}{"business_id": businessID.String(), "distance_meters": 480.0},
		Timestamp: time.Now(),
	})
	sink.Wait()

	store.AssertExpectations(t)
}

func TestAlertSink_IgnoresSoftAndInfoEntries(t *testing.T) {
	store := new(MockAlertStore)
	sink := NewAlertSink(store, time.Second, 4)

	sink.Accept(ActivityEntry{UserID: uuid.New(), EventType: "verification_time", Severity: "soft"})
	sink.Accept(ActivityEntry{UserID: uuid.New(), EventType: "same_device_reviews", Severity: "info"})
	sink.Accept(ActivityEntry{UserID: uuid.New(), EventType: EventRateLimitExceeded})
	sink.Wait()

	store.AssertNotCalled(t, "CreateFraudAlert", mock.Anything, mock.Anything)
}

func TestAlertSink_StoreErrorIsSwallowed(t *testing.T) {
	store := new(MockAlertStore)
	sink := NewAlertSink(store, time.Second, 4)

	store.On("CreateFraudAlert", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	assert.NotPanics(t, func() {
		sink.Accept(ActivityEntry{UserID: uuid.New(), EventType: "gps_accuracy", Severity: "hard"})
		sink.Wait()
	})
	store.AssertExpectations(t)
}

func TestAlertSink_DropsWhenSaturated(t *testing.T) {
	store := new(MockAlertStore)
	sink := NewAlertSink(store, time.Second, 1)

	release := make(chan struct{})
	store.On("CreateFraudAlert", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(nil).Once()

	entry := ActivityEntry{UserID: uuid.New(), EventType: "mock_location", Severity: "hard"}
	sink.Accept(entry)
	sink.Accept(entry)
	sink.Accept(entry)
	close(release)
	sink.Wait()

	store.AssertNumberOfCalls(t, "CreateFraudAlert", 1)

	// capacity is released once the write finishes
	store.On("CreateFraudAlert", mock.Anything, mock.Anything).Return(nil).Once()
	sink.Accept(entry)
	sink.Wait()
	store.AssertNumberOfCalls(t, "CreateFraudAlert", 2)
}

func TestAlertSink_MissingBusinessID(t *testing.T) {
	alert := alertFromEntry(ActivityEntry{UserID: uuid.New(), EventType: "gps_accuracy", Severity: "hard",
		Metadata: map[string]interface{}{"business_id": "not-a-uuid"}})
	assert.Nil(t, alert.BusinessID)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		event     string
		wantType  FraudAlertType
		wantLevel FraudAlertLevel
	}{
		{"mock_location", AlertTypeLocationSpoofing, AlertLevelCritical},
		{"gps_accuracy", AlertTypeLocationSpoofing, AlertLevelHigh},
		{EventGeofenceViolation, AlertTypeGeofenceViolation, AlertLevelMedium},
		{EventRateLimitExceeded, AlertTypeRateLimit, AlertLevelLow},
		{"excessive_soft_flags", AlertTypeReviewAbuse, AlertLevelHigh},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			gotType, gotLevel := classify(tt.event)
			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.wantLevel, gotLevel)
		})
	}
}
