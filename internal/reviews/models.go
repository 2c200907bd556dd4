package reviews

import (
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/verified-reviews/internal/businesses"
	"github.com/richxcame/verified-reviews/internal/coupons"
	"github.com/richxcame/verified-reviews/internal/geo"
	"github.com/richxcame/verified-reviews/internal/security"
)

// Status is the moderation state of a review
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusFlagged  Status = "flagged"
)

// Submission is an incoming review together with its trust telemetry
type Submission struct {
	UserID     uuid.UUID `json:"-"`
	BusinessID uuid.UUID `json:"business_id" validate:"required"`
	Rating     int       `json:"rating" validate:"required,min=1,max=5"`
	Comment    string    `json:"comment" validate:"required,min=10,max=500"`
	Latitude   *float64  `json:"latitude" validate:"required,finite,gte=-90,lte=90"`
	Longitude  *float64  `json:"longitude" validate:"required,finite,gte=-180,lte=180"`
	Images     []string  `json:"images,omitempty" validate:"max=5,dive,url"`

	security.Telemetry
}

// Point returns the submitted location. Callers must validate first.
func (s *Submission) Point() geo.Point {
	return geo.Point{Latitude: *s.Latitude, Longitude: *s.Longitude}
}

// SecurityMetadata is the immutable snapshot stored with an accepted review
type SecurityMetadata struct {
	security.Telemetry

	DistanceMeters         float64           `json:"distance_meters"`
	RadiusMeters           float64           `json:"radius_meters"`
	FlagCount              int               `json:"flag_count"`
	Signals                []security.Signal `json:"signals"`
	SameDeviceReviewsToday int               `json:"same_device_reviews_today"`
	EvaluatedAt            time.Time         `json:"evaluated_at"`
}

// Review is an accepted, location-verified review
type Review struct {
	ID               uuid.UUID        `json:"id"`
	UserID           uuid.UUID        `json:"user_id"`
	BusinessID       uuid.UUID        `json:"business_id"`
	Rating           int              `json:"rating"`
	Comment          string           `json:"comment"`
	Images           []string         `json:"images"`
	Location         geo.Point        `json:"location"`
	H3Cell           string           `json:"h3_cell,omitempty"`
	DeviceID         string           `json:"device_id,omitempty"`
	Verified         bool             `json:"verified"`
	Status           Status           `json:"status"`
	SecurityMetadata SecurityMetadata `json:"security_metadata"`
	CouponAwarded    bool             `json:"coupon_awarded"`
	CouponID         *uuid.UUID       `json:"coupon_id,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// CommitResult is the outcome of the commit transaction
type CommitResult struct {
	Review *Review
	Coupon *coupons.Coupon
	Rating businesses.Rating
}

// SubmissionResult is returned to the caller for an accepted review
type SubmissionResult struct {
	Review         *Review           `json:"review"`
	Coupon         *coupons.Coupon   `json:"coupon"`
	BusinessRating businesses.Rating `json:"business_rating"`
	DistanceMeters float64           `json:"distance_meters"`
	FlagCount      int               `json:"flag_count"`
}
