package common

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNewInternalServerError(t *testing.T) {
	cause := errors.New("pq: connection reset")
	err := NewInternalServerError("Failed to save review", cause)

	assert.Equal(t, http.StatusInternalServerError, err.Code)
	assert.Equal(t, "Failed to save review", err.Message)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed to save review: pq: connection reset", err.Error())

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	AppErrorResponse(c, err)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to save review")
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestAppError_WithoutCause(t *testing.T) {
	err := NewConflictError("already reviewed today")
	assert.Equal(t, http.StatusConflict, err.Code)
	assert.Equal(t, "already reviewed today", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}
