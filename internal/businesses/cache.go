package businesses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/verified-reviews/pkg/logger"
	redisclient "github.com/richxcame/verified-reviews/pkg/redis"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "business:"

// CachedLookup is a read-through Redis cache in front of another Lookup.
// Redis failures fall through to the underlying lookup.
type CachedLookup struct {
	next  Lookup
	cache *redisclient.Client
	ttl   time.Duration
}

// NewCachedLookup wraps next with a Redis cache
func NewCachedLookup(next Lookup, cache *redisclient.Client, ttl time.Duration) *CachedLookup {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedLookup{next: next, cache: cache, ttl: ttl}
}

func cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("%s%s", cacheKeyPrefix, id)
}

// GetBusinessByID implements Lookup
func (l *CachedLookup) GetBusinessByID(ctx context.Context, id uuid.UUID) (*Business, error) {
	key := cacheKey(id)

	var cached Business
	err := l.cache.GetJSON(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, redisclient.ErrCacheMiss) {
		logger.WithContext(ctx).Warn("business cache read failed", zap.String("key", key), zap.Error(err))
	}

	b, err := l.next.GetBusinessByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := l.cache.SetJSON(ctx, key, b, l.ttl); err != nil {
		logger.WithContext(ctx).Warn("business cache write failed", zap.String("key", key), zap.Error(err))
	}
	return b, nil
}

// Invalidate drops the cached copy of a business
func (l *CachedLookup) Invalidate(ctx context.Context, id uuid.UUID) {
	if err := l.cache.Delete(ctx, cacheKey(id)); err != nil {
		logger.WithContext(ctx).Warn("business cache invalidation failed", zap.String("business_id", id.String()), zap.Error(err))
	}
}
