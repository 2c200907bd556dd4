package reviews

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/verified-reviews/internal/businesses"
	"github.com/richxcame/verified-reviews/internal/coupons"
)

// couponLedger is the slice of the coupon memory store a commit touches
type couponLedger interface {
	coupons.Inserter
	ActiveReviewTemplate(businessID uuid.UUID) *coupons.Template
	IncrementTemplateUsage(ctx context.Context, templateID uuid.UUID) error
	DeleteCoupon(code string)
}

// MemoryStore keeps reviews in process. Commits are serialised per business
// with the same ordering as the Postgres transaction, and a failed step undoes
// the earlier ones.
type MemoryStore struct {
	businesses *businesses.MemoryStore
	coupons    couponLedger

	mu      sync.RWMutex
	reviews []*Review
	byID    map[uuid.UUID]*Review

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

// NewMemoryStore creates a memory store backed by the given business and
// coupon stores
func NewMemoryStore(bs *businesses.MemoryStore, cs *coupons.MemoryStore) *MemoryStore {
	return &MemoryStore{
		businesses: bs,
		coupons:    cs,
		byID:       make(map[uuid.UUID]*Review),
		locks:      make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *MemoryStore) businessLock(id uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// CountUserReviewsSince implements Counter
func (s *MemoryStore) CountUserReviewsSince(_ context.Context, userID uuid.UUID, since time.Time) (int, error) {
	return s.count(func(r *Review) bool {
		return r.UserID == userID && !r.CreatedAt.Before(since)
	}), nil
}

// HasReviewForBusinessSince implements Counter
func (s *MemoryStore) HasReviewForBusinessSince(_ context.Context, userID, businessID uuid.UUID, since time.Time) (bool, error) {
	return s.count(func(r *Review) bool {
		return r.UserID == userID && r.BusinessID == businessID && !r.CreatedAt.Before(since)
	}) > 0, nil
}

// CountDeviceReviewsSince implements Store
func (s *MemoryStore) CountDeviceReviewsSince(_ context.Context, deviceID string, since time.Time) (int, error) {
	if deviceID == "" {
		return 0, nil
	}
	return s.count(func(r *Review) bool {
		return r.DeviceID == deviceID && !r.CreatedAt.Before(since)
	}), nil
}

func (s *MemoryStore) count(match func(*Review) bool) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.reviews {
		if match(r) {
			n++
		}
	}
	return n
}

// CommitReview implements Store
func (s *MemoryStore) CommitReview(ctx context.Context, review *Review, issuer *coupons.Issuer) (*CommitResult, error) {
	lock := s.businessLock(review.BusinessID)
	lock.Lock()
	defer lock.Unlock()

	business, err := s.businesses.GetBusinessByID(ctx, review.BusinessID)
	if err != nil {
		return nil, err
	}

	tpl := s.coupons.ActiveReviewTemplate(review.BusinessID)
	if tpl == nil {
		tpl = coupons.DefaultReviewTemplate(review.BusinessID)
	}

	coupon, err := issuer.Issue(ctx, s.coupons, tpl, review.UserID, review.ID)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		s.coupons.DeleteCoupon(coupon.Code)
		return nil, err
	}

	review.Verified = true
	review.CouponAwarded = true
	review.CouponID = &coupon.ID

	stored := *review
	s.mu.Lock()
	s.reviews = append(s.reviews, &stored)
	s.byID[stored.ID] = &stored
	sum, count := 0, 0
	for _, r := range s.reviews {
		if r.BusinessID == review.BusinessID {
			sum += r.Rating
			count++
		}
	}
	s.mu.Unlock()

	rating := businesses.Rating{Average: float64(sum) / float64(count), Count: count}
	if err := s.businesses.SetRating(review.BusinessID, rating); err != nil {
		s.removeReview(stored.ID)
		s.coupons.DeleteCoupon(coupon.Code)
		return nil, err
	}

	if coupon.TemplateID != nil {
		if err := s.coupons.IncrementTemplateUsage(ctx, *coupon.TemplateID); err != nil {
			s.removeReview(stored.ID)
			s.coupons.DeleteCoupon(coupon.Code)
			_ = s.businesses.SetRating(review.BusinessID, business.Rating)
			return nil, fmt.Errorf("increment template usage: %w", err)
		}
	}

	return &CommitResult{Review: review, Coupon: coupon, Rating: rating}, nil
}

func (s *MemoryStore) removeReview(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	for i, r := range s.reviews {
		if r.ID == id {
			s.reviews = append(s.reviews[:i], s.reviews[i+1:]...)
			return
		}
	}
}

// GetReviewByID implements Store
func (s *MemoryStore) GetReviewByID(_ context.Context, id uuid.UUID) (*Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, ErrReviewNotFound
	}
	cp := *r
	return &cp, nil
}

// ListBusinessReviews implements Store
func (s *MemoryStore) ListBusinessReviews(_ context.Context, businessID uuid.UUID, limit, offset int) ([]*Review, int64, error) {
	s.mu.RLock()
	matched := make([]*Review, 0)
	for _, r := range s.reviews {
		if r.BusinessID == businessID {
			cp := *r
			matched = append(matched, &cp)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return []*Review{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// Len returns the number of stored reviews
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reviews)
}
