package businesses

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/verified-reviews/internal/geo"
)

// Status is the operating state of a business
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// ErrBusinessNotFound is returned when no business matches the ID
var ErrBusinessNotFound = errors.New("business not found")

// Rating is the aggregate rating of a business
type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Business is the reviewed entity
type Business struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	Name         string    `json:"name"`
	Location     geo.Point `json:"location"`
	RadiusMeters float64   `json:"radius_meters"`
	Status       Status    `json:"status"`
	Rating       Rating    `json:"rating"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsActive reports whether the business accepts reviews
func (b *Business) IsActive() bool {
	return b.Status == StatusActive
}

// GeofenceRadius returns the configured radius clamped to the supported
// range, using fallback when unset
func (b *Business) GeofenceRadius(fallback float64) float64 {
	return geo.NormalizeRadius(b.RadiusMeters, fallback)
}

// Lookup loads businesses by ID
type Lookup interface {
	GetBusinessByID(ctx context.Context, id uuid.UUID) (*Business, error)
}
