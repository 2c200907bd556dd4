package reviews

import (
	"errors"
	"fmt"

	"github.com/richxcame/verified-reviews/pkg/common"
)

// ErrorKind classifies why a submission was rejected
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation_error"
	KindRateLimitExceeded   ErrorKind = "rate_limit_exceeded"
	KindDuplicateSubmission ErrorKind = "duplicate_submission"
	KindBusinessUnavailable ErrorKind = "business_unavailable"
	KindGeofenceViolation   ErrorKind = "geofence_violation"
	KindSecurityHardBlock   ErrorKind = "security_hard_block"
	KindCommitFailure       ErrorKind = "commit_failure"
	KindInternal            ErrorKind = "internal_error"
)

// User-facing messages
const (
	MessageRateLimit       = "You have reached the daily review limit. Please try again tomorrow."
	MessageDuplicate       = "You have already reviewed this business today."
	MessageInFlight        = "A review for this business is already being submitted."
	MessageNotFound        = "Business not found."
	MessageInactive        = "business not active"
	MessageCommitFailure   = "Failed to submit review. Please try again."
	MessageInternalFailure = "Something went wrong. Please try again."
)

// ErrReviewNotFound is returned when no review matches
var ErrReviewNotFound = errors.New("review not found")

// SubmissionError is the typed rejection returned by SubmitReview
type SubmissionError struct {
	Kind           ErrorKind
	Message        string
	DistanceMeters float64
	RadiusMeters   float64
	Inactive       bool
	Err            error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a SubmissionError of kind
func IsKind(err error, kind ErrorKind) bool {
	var se *SubmissionError
	return errors.As(err, &se) && se.Kind == kind
}

func newValidationError(message string, err error) *SubmissionError {
	return &SubmissionError{Kind: KindValidation, Message: message, Err: err}
}

func newGeofenceError(distance, radius float64) *SubmissionError {
	return &SubmissionError{
		Kind: KindGeofenceViolation,
		Message: fmt.Sprintf("You must be within %.0fm of the business; you are currently %.0fm away.",
			radius, distance),
		DistanceMeters: distance,
		RadiusMeters:   radius,
	}
}

// ToAppError converts a submission failure into the HTTP error envelope
func ToAppError(err error) *common.AppError {
	var se *SubmissionError
	if !errors.As(err, &se) {
		return common.NewInternalServerError(MessageInternalFailure, err)
	}

	switch se.Kind {
	case KindValidation:
		return common.NewBadRequestError(se.Message, se.Err)
	case KindRateLimitExceeded:
		return common.NewTooManyRequestsError(se.Message)
	case KindDuplicateSubmission:
		return common.NewConflictError(se.Message)
	case KindBusinessUnavailable:
		if se.Inactive {
			return common.NewUnprocessableEntityError(se.Message)
		}
		return common.NewNotFoundError(se.Message, se.Err)
	case KindGeofenceViolation, KindSecurityHardBlock:
		return common.NewForbiddenError(se.Message)
	case KindCommitFailure:
		return common.NewInternalServerError(MessageCommitFailure, se.Err)
	default:
		return common.NewInternalServerError(MessageInternalFailure, se.Err)
	}
}
