package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/verified-reviews/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// CorrelationIDHeader carries the request's correlation ID in and out
	CorrelationIDHeader = "X-Request-ID"
	// CorrelationIDKey is the gin context key holding the correlation ID
	CorrelationIDKey = "correlation_id"

	maxCorrelationIDLen = 128
)

// CorrelationID reuses the caller's X-Request-ID or mints a UUID, echoes it in
// the response and attaches it to the request context for logging and
// tracing. Oversized incoming IDs are replaced.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if id == "" || len(id) > maxCorrelationIDLen {
			id = uuid.New().String()
		}

		c.Set(CorrelationIDKey, id)
		c.Writer.Header().Set(CorrelationIDHeader, id)

		ctx := logger.ContextWithCorrelationID(c.Request.Context(), id)
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("correlation_id", id))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetCorrelationID returns the request's correlation ID, or ""
func GetCorrelationID(c *gin.Context) string {
	id, _ := c.Get(CorrelationIDKey)
	s, _ := id.(string)
	return s
}
