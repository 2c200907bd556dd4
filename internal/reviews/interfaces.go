package reviews

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/verified-reviews/internal/coupons"
)

// Store is the persistence boundary of the review pipeline
type Store interface {
	Counter
	CountDeviceReviewsSince(ctx context.Context, deviceID string, since time.Time) (int, error)
	CommitReview(ctx context.Context, review *Review, issuer *coupons.Issuer) (*CommitResult, error)
	GetReviewByID(ctx context.Context, id uuid.UUID) (*Review, error)
	ListBusinessReviews(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]*Review, int64, error)
}

// Locker suppresses concurrent duplicate submissions
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// CacheInvalidator drops cached business data after its rating changes
type CacheInvalidator interface {
	Invalidate(ctx context.Context, businessID uuid.UUID)
}
