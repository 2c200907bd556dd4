package reviews

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/verified-reviews/internal/businesses"
	"github.com/richxcame/verified-reviews/internal/coupons"
	"github.com/richxcame/verified-reviews/internal/fraud"
	"github.com/richxcame/verified-reviews/internal/geo"
	"github.com/richxcame/verified-reviews/internal/security"
)

const (
	cafeLat = 37.9601
	cafeLon = 58.3261
	// roughly 500m of latitude
	fiveHundredMetersLat = 0.0045
)

type sentNotification struct {
	UserID   uuid.UUID
	Title    string
	Body     string
	Metadata map[string]interface{}
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, userID uuid.UUID, title, body string, metadata map[string]interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Title: title, Body: body, Metadata: metadata})
	return n.err
}

func (n *recordingNotifier) all() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotification(nil), n.sent...)
}

type testEnv struct {
	service    *Service
	store      *MemoryStore
	businesses *businesses.MemoryStore
	coupons    *coupons.MemoryStore
	recorder   *fraud.Recorder
	notifier   *recordingNotifier
	business   *businesses.Business
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	bs := businesses.NewMemoryStore()
	cs := coupons.NewMemoryStore()
	store := NewMemoryStore(bs, cs)
	recorder := fraud.NewRecorder(100)
	notifier := &recordingNotifier{}

	business := &businesses.Business{
		ID:           uuid.New(),
		OwnerID:      uuid.New(),
		Name:         "Corner Cafe",
		Location:     geo.Point{Latitude: cafeLat, Longitude: cafeLon},
		RadiusMeters: 50,
		Status:       businesses.StatusActive,
	}
	bs.Put(business)

	svc := NewService(store, bs, security.NewEvaluator(security.DefaultPolicy(), recorder), recorder,
		coupons.NewIssuer(8, 2), Config{Location: time.UTC})
	svc.SetNotifier(notifier)

	return &testEnv{
		service:    svc,
		store:      store,
		businesses: bs,
		coupons:    cs,
		recorder:   recorder,
		notifier:   notifier,
		business:   business,
	}
}

func (e *testEnv) addBusiness(t *testing.T) *businesses.Business {
	t.Helper()
	b := &businesses.Business{
		ID:           uuid.New(),
		OwnerID:      uuid.New(),
		Name:         "Another Place",
		Location:     geo.Point{Latitude: cafeLat, Longitude: cafeLon},
		RadiusMeters: 50,
		Status:       businesses.StatusActive,
	}
	e.businesses.Put(b)
	return b
}

func cleanTelemetry() security.Telemetry {
	return security.Telemetry{
		GPSAccuracy:          security.Float(6),
		VerificationTime:     security.Int(30),
		MotionDetected:       security.Bool(true),
		IsMockLocation:       security.Bool(false),
		LocationHistoryCount: security.Int(10),
		Device: &security.DeviceFingerprint{
			Manufacturer: "Samsung",
			Model:        "Galaxy S23",
			OS:           "Android 14",
			DeviceID:     "device-abc",
		},
	}
}

func submissionFor(userID, businessID uuid.UUID, rating int) *Submission {
	lat, lon := cafeLat, cafeLon
	return &Submission{
		UserID:     userID,
		BusinessID: businessID,
		Rating:     rating,
		Comment:    "Great coffee and friendly staff.",
		Latitude:   &lat,
		Longitude:  &lon,
		Telemetry:  cleanTelemetry(),
	}
}
