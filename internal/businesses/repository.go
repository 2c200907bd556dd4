package businesses

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/richxcame/verified-reviews/pkg/database"
)

const businessColumns = `
	id, owner_id, name, latitude, longitude, radius_meters, status,
	rating_average, rating_count, created_at, updated_at`

// Repository handles business persistence. Bind it to a pgx.Tx to take part
// in a transaction.
type Repository struct {
	db database.DBTX
}

// NewRepository creates a new business repository
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

// GetBusinessByID retrieves a business by ID
func (r *Repository) GetBusinessByID(ctx context.Context, id uuid.UUID) (*Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// LockBusiness retrieves a business and holds a row lock until the
// surrounding transaction ends
func (r *Repository) LockBusiness(ctx context.Context, id uuid.UUID) (*Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE id = $1 FOR UPDATE`
	return r.scanOne(ctx, query, id)
}

// RecomputeRating rebuilds the aggregate rating from every review of the
// business
func (r *Repository) RecomputeRating(ctx context.Context, id uuid.UUID) (Rating, error) {
	query := `
		UPDATE businesses b
		SET rating_average = agg.average,
		    rating_count = agg.total,
		    updated_at = NOW()
		FROM (
			SELECT COALESCE(AVG(rating), 0)::float8 AS average, COUNT(*)::int AS total
			FROM reviews
			WHERE business_id = $1
		) agg
		WHERE b.id = $1
		RETURNING b.rating_average, b.rating_count
	`

	var rating Rating
	err := r.db.QueryRow(ctx, query, id).Scan(&rating.Average, &rating.Count)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rating{}, ErrBusinessNotFound
	}
	if err != nil {
		return Rating{}, fmt.Errorf("recompute rating: %w", err)
	}
	return rating, nil
}

func (r *Repository) scanOne(ctx context.Context, query string, id uuid.UUID) (*Business, error) {
	var b Business
	err := r.db.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.OwnerID,
		&b.Name,
		&b.Location.Latitude,
		&b.Location.Longitude,
		&b.RadiusMeters,
		&b.Status,
		&b.Rating.Average,
		&b.Rating.Count,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBusinessNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get business: %w", err)
	}
	return &b, nil
}
