package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/verified-reviews/pkg/common"
)

const (
	// UserIDHeader carries the caller identity asserted by the API gateway
	UserIDHeader = "X-User-ID"
	// UserRoleHeader carries the caller role asserted by the API gateway
	UserRoleHeader = "X-User-Role"

	userIDKey   = "user_id"
	userRoleKey = "user_role"
)

var ErrMissingIdentity = errors.New("missing or invalid caller identity")

// GatewayIdentity reads the identity headers injected by the upstream gateway.
// Authentication itself happens before requests reach this service.
func GatewayIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader(UserIDHeader); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				c.Set(userIDKey, id)
			}
		}
		if role := c.GetHeader(UserRoleHeader); role != "" {
			c.Set(userRoleKey, role)
		}
		c.Next()
	}
}

// GetUserID returns the caller's user ID
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	value, exists := c.Get(userIDKey)
	if !exists {
		return uuid.Nil, ErrMissingIdentity
	}
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrMissingIdentity
	}
	return id, nil
}

// GetUserRole returns the caller's role, or "" when none was asserted
func GetUserRole(c *gin.Context) string {
	role, _ := c.Get(userRoleKey)
	s, _ := role.(string)
	return s
}

// RequireRole aborts with 403 unless the caller has the given role
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := GetUserID(c); err != nil {
			common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
			c.Abort()
			return
		}
		if GetUserRole(c) != role {
			common.ErrorResponse(c, http.StatusForbidden, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
