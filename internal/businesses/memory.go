package businesses

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process business store for local runs and tests
type MemoryStore struct {
	mu         sync.RWMutex
	businesses map[uuid.UUID]*Business
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{businesses: make(map[uuid.UUID]*Business)}
}

// Put adds or replaces a business
func (s *MemoryStore) Put(b *Business) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
		b.UpdatedAt = b.CreatedAt
	}
	cp := *b
	s.businesses[b.ID] = &cp
}

// GetBusinessByID implements Lookup. It returns a copy.
func (s *MemoryStore) GetBusinessByID(_ context.Context, id uuid.UUID) (*Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.businesses[id]
	if !ok {
		return nil, ErrBusinessNotFound
	}
	cp := *b
	return &cp, nil
}

// SetRating replaces the aggregate rating of a business
func (s *MemoryStore) SetRating(id uuid.UUID, rating Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.businesses[id]
	if !ok {
		return ErrBusinessNotFound
	}
	b.Rating = rating
	b.UpdatedAt = time.Now()
	return nil
}
