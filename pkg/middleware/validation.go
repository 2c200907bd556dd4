package middleware

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/verified-reviews/pkg/common"
	"github.com/richxcame/verified-reviews/pkg/validation"
)

// RespondWithValidationError writes a 400 with the per-field messages of a
// *validation.ValidationError, or the error text otherwise
func RespondWithValidationError(c *gin.Context, err error) {
	var valErr *validation.ValidationError
	if errors.As(err, &valErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Validation failed",
			"fields": valErr.Errors,
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Validation failed",
		"details": err.Error(),
	})
}

// RequireJSON rejects write requests whose body is not application/json
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if !strings.HasPrefix(c.ContentType(), "application/json") {
				common.ErrorResponse(c, http.StatusUnsupportedMediaType, "content type must be application/json")
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// MaxBodySize rejects bodies larger than maxSize with 413 before the handler
// runs
func MaxBodySize(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxSize))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				common.ErrorResponse(c, http.StatusRequestEntityTooLarge, "request body too large")
			} else {
				common.ErrorResponse(c, http.StatusBadRequest, "failed to read request body")
			}
			c.Abort()
			return
		}

		c.Request.Body = io.NopCloser(strings.NewReader(string(body)))
		c.Next()
	}
}
