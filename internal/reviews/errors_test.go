package reviews

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToAppError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"validation", &SubmissionError{Kind: KindValidation, Message: "bad"}, http.StatusBadRequest},
		{"rate limit", &SubmissionError{Kind: KindRateLimitExceeded, Message: MessageRateLimit}, http.StatusTooManyRequests},
		{"duplicate", &SubmissionError{Kind: KindDuplicateSubmission, Message: MessageDuplicate}, http.StatusConflict},
		{"business missing", &SubmissionError{Kind: KindBusinessUnavailable, Message: MessageNotFound}, http.StatusNotFound},
		{"business inactive", &SubmissionError{Kind: KindBusinessUnavailable, Message: MessageInactive, Inactive: true}, http.StatusUnprocessableEntity},
		{"geofence", newGeofenceError(210, 50), http.StatusForbidden},
		{"security", &SubmissionError{Kind: KindSecurityHardBlock, Message: "blocked"}, http.StatusForbidden},
		{"commit", &SubmissionError{Kind: KindCommitFailure, Message: MessageCommitFailure}, http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", &SubmissionError{Kind: KindDuplicateSubmission}), http.StatusConflict},
		{"untyped", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, ToAppError(tt.err).Code)
		})
	}
}

func TestGeofenceMessage(t *testing.T) {
	err := newGeofenceError(210.4, 50)
	assert.Equal(t, "You must be within 50m of the business; you are currently 210m away.", err.Message)
	assert.Equal(t, 210.4, err.DistanceMeters)
	assert.Equal(t, float64(50), err.RadiusMeters)
}

func TestCommitFailureMessageHidesCause(t *testing.T) {
	appErr := ToAppError(&SubmissionError{Kind: KindCommitFailure, Message: MessageCommitFailure, Err: errors.New("deadlock detected")})
	assert.Equal(t, "Failed to submit review. Please try again.", appErr.Message)
}
