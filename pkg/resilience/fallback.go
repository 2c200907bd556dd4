package resilience

import (
	"context"

	"github.com/richxcame/verified-reviews/pkg/logger"
	"go.uber.org/zap"
)

// FallbackFunc runs instead of the operation when the breaker rejects a call.
// err is the gobreaker rejection.
type FallbackFunc func(ctx context.Context, err error) (interface{}, error)

// RejectFallback fails fast with ErrCircuitOpen
func RejectFallback(ctx context.Context, err error) (interface{}, error) {
	return nil, ErrCircuitOpen
}

// LogAndReject is RejectFallback plus a warning naming the degraded
// dependency, logged with the request's correlation ID
func LogAndReject(dependency string) FallbackFunc {
	return func(ctx context.Context, err error) (interface{}, error) {
		logger.WithContext(ctx).Warn("Circuit open, skipping call",
			zap.String("dependency", dependency),
			zap.Error(err))
		return nil, ErrCircuitOpen
	}
}
