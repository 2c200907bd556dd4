package geo

import (
	"fmt"
	"math"

	"github.com/uber/h3-go/v4"
)

// EarthRadiusMeters is the mean Earth radius of the spherical model
const EarthRadiusMeters = 6371000.0

const (
	MinRadiusMeters     = 10.0
	MaxRadiusMeters     = 500.0
	DefaultRadiusMeters = 50.0
)

// Point is a WGS84 coordinate in degrees
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeofenceDecision is the outcome of a geofence check
type GeofenceDecision struct {
	RadiusMeters   float64 `json:"radius_meters"`
	DistanceMeters float64 `json:"distance_meters"`
	WithinFence    bool    `json:"within_fence"`
}

// Distance returns the haversine great-circle distance in meters between two
// points given in degrees. Non-finite input propagates as NaN.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// WithinGeofence reports whether the user is within radiusMeters of the
// business. The boundary is inclusive.
func WithinGeofence(userLat, userLon, businessLat, businessLon, radiusMeters float64) bool {
	return Distance(userLat, userLon, businessLat, businessLon) <= radiusMeters
}

// Evaluate computes the full geofence decision for a user against a business
// location
func Evaluate(user, business Point, radiusMeters float64) GeofenceDecision {
	distance := Distance(user.Latitude, user.Longitude, business.Latitude, business.Longitude)
	return GeofenceDecision{
		RadiusMeters:   radiusMeters,
		DistanceMeters: distance,
		WithinFence:    distance <= radiusMeters,
	}
}

// NormalizeRadius clamps a business-configured radius into the supported
// range. Zero or negative radii use fallback.
func NormalizeRadius(radius, fallback float64) float64 {
	if radius <= 0 || math.IsNaN(radius) {
		radius = fallback
	}
	return math.Min(MaxRadiusMeters, math.Max(MinRadiusMeters, radius))
}

// ValidCoordinates reports whether lat/lon are finite and within range
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Indexer maps points onto H3 cells at a fixed resolution
type Indexer struct {
	resolution int
}

// NewIndexer creates an indexer. Resolution must be within 0..15.
func NewIndexer(resolution int) (*Indexer, error) {
	if resolution < 0 || resolution > 15 {
		return nil, fmt.Errorf("h3 resolution %d out of range 0..15", resolution)
	}
	return &Indexer{resolution: resolution}, nil
}

// Resolution returns the configured H3 resolution
func (i *Indexer) Resolution() int {
	return i.resolution
}

// CellFor returns the H3 cell containing the point
func (i *Indexer) CellFor(p Point) (string, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Latitude, p.Longitude), i.resolution)
	if err != nil {
		return "", fmt.Errorf("h3 cell for %f,%f: %w", p.Latitude, p.Longitude, err)
	}
	return cell.String(), nil
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
