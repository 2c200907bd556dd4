package reviews

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultDailyLimit is the number of reviews a user may submit per local day
const DefaultDailyLimit = 5

// Counter answers the read-only questions the guard asks
type Counter interface {
	CountUserReviewsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	HasReviewForBusinessSince(ctx context.Context, userID, businessID uuid.UUID, since time.Time) (bool, error)
}

// Guard enforces the daily rate limit and same-day duplicate rule. Both
// checks are best effort: concurrent submissions may overshoot.
type Guard struct {
	counter    Counter
	dailyLimit int
	location   *time.Location
}

// NewGuard creates a guard using loc to decide where a day starts
func NewGuard(counter Counter, dailyLimit int, loc *time.Location) *Guard {
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyLimit
	}
	if loc == nil {
		loc = time.Local
	}
	return &Guard{counter: counter, dailyLimit: dailyLimit, location: loc}
}

// StartOfDay returns local midnight of the day containing t
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// StartOfDay returns local midnight in the guard's location
func (g *Guard) StartOfDay(now time.Time) time.Time {
	return StartOfDay(now, g.location)
}

// CheckRateLimit fails when the user already submitted the daily limit
func (g *Guard) CheckRateLimit(ctx context.Context, userID uuid.UUID, now time.Time) error {
	count, err := g.counter.CountUserReviewsSince(ctx, userID, g.StartOfDay(now))
	if err != nil {
		return &SubmissionError{Kind: KindInternal, Message: MessageInternalFailure, Err: err}
	}
	if count >= g.dailyLimit {
		return &SubmissionError{Kind: KindRateLimitExceeded, Message: MessageRateLimit}
	}
	return nil
}

// CheckDuplicate fails when the user already reviewed the business today
func (g *Guard) CheckDuplicate(ctx context.Context, userID, businessID uuid.UUID, now time.Time) error {
	exists, err := g.counter.HasReviewForBusinessSince(ctx, userID, businessID, g.StartOfDay(now))
	if err != nil {
		return &SubmissionError{Kind: KindInternal, Message: MessageInternalFailure, Err: err}
	}
	if exists {
		return &SubmissionError{Kind: KindDuplicateSubmission, Message: MessageDuplicate}
	}
	return nil
}
