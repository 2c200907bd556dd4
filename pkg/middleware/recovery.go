package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/verified-reviews/pkg/common"
	"github.com/richxcame/verified-reviews/pkg/logger"
	"go.uber.org/zap"
)

// Recovery turns handler panics into a 500 response. The panic value and
// stack are logged with the request's correlation ID.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger.WithContext(c.Request.Context()).Error("Panic recovered",
				zap.Any("panic", rec),
				zap.String("method", c.Request.Method),
				zap.String("route", c.FullPath()),
				zap.Stack("stack"),
			)

			if !c.Writer.Written() {
				common.ErrorResponse(c, http.StatusInternalServerError, "internal server error")
			}
			c.Abort()
		}()

		c.Next()
	}
}
