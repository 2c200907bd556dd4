package coupons

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process coupon store for local runs and tests
type MemoryStore struct {
	mu        sync.RWMutex
	byCode    map[string]*Coupon
	templates map[uuid.UUID]*Template
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byCode:    make(map[string]*Coupon),
		templates: make(map[uuid.UUID]*Template),
	}
}

// PutTemplate adds or replaces a template
func (s *MemoryStore) PutTemplate(tpl *Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tpl.ID == uuid.Nil {
		tpl.ID = uuid.New()
	}
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = time.Now()
	}
	cp := *tpl
	s.templates[tpl.ID] = &cp
}

// ActiveReviewTemplate returns a copy of the business's newest active review
// template, or nil
func (s *MemoryStore) ActiveReviewTemplate(businessID uuid.UUID) *Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var newest *Template
	for _, tpl := range s.templates {
		if tpl.BusinessID != businessID || tpl.Kind != TemplateKindBusinessReward || !tpl.IsActive {
			continue
		}
		if newest == nil || tpl.CreatedAt.After(newest.CreatedAt) ||
			(tpl.CreatedAt.Equal(newest.CreatedAt) && tpl.ID.String() > newest.ID.String()) {
			newest = tpl
		}
	}
	if newest == nil {
		return nil
	}
	cp := *newest
	return &cp
}

// Template returns a copy of a template by ID
func (s *MemoryStore) Template(id uuid.UUID) (*Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tpl, ok := s.templates[id]
	if !ok {
		return nil, false
	}
	cp := *tpl
	return &cp, true
}

// IncrementTemplateUsage bumps the usage counter of a template
func (s *MemoryStore) IncrementTemplateUsage(ctx context.Context, templateID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tpl, ok := s.templates[templateID]
	if !ok {
		return ErrTemplateNotFound
	}
	tpl.UsageCount++
	return nil
}

// InsertCoupon implements Inserter
func (s *MemoryStore) InsertCoupon(ctx context.Context, c *Coupon) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byCode[c.Code]; taken {
		return false, nil
	}
	cp := *c
	s.byCode[c.Code] = &cp
	return true, nil
}

// DeleteCoupon removes a coupon, undoing InsertCoupon
func (s *MemoryStore) DeleteCoupon(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byCode, code)
}

// GetCouponByCode retrieves a coupon by its code
func (s *MemoryStore) GetCouponByCode(_ context.Context, code string) (*Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byCode[code]
	if !ok {
		return nil, ErrCouponNotFound
	}
	cp := *c
	return &cp, nil
}

// GetCouponsByUser lists a user's coupons, newest first
func (s *MemoryStore) GetCouponsByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*Coupon, int64, error) {
	s.mu.RLock()
	matched := make([]*Coupon, 0)
	for _, c := range s.byCode {
		if c.UserID == userID {
			cp := *c
			matched = append(matched, &cp)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return []*Coupon{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// Count returns the number of stored coupons
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byCode)
}
