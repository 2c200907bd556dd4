package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/richxcame/verified-reviews/internal/businesses"
	"github.com/richxcame/verified-reviews/internal/coupons"
	"github.com/richxcame/verified-reviews/pkg/database"
)

const reviewColumns = `
	id, user_id, business_id, rating, comment, images, latitude, longitude,
	h3_cell, device_id, verified, status, security_metadata, coupon_awarded,
	coupon_id, created_at, updated_at`

// Repository handles review persistence in PostgreSQL
type Repository struct {
	db database.Pool
}

// NewRepository creates a new review repository
func NewRepository(db database.Pool) *Repository {
	return &Repository{db: db}
}

// CountUserReviewsSince counts reviews submitted by a user since a time
func (r *Repository) CountUserReviewsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM reviews WHERE user_id = $1 AND created_at >= $2`,
		userID, since,
	).Scan(&count)
	return count, err
}

// HasReviewForBusinessSince reports whether the user reviewed the business
// since a time
func (r *Repository) HasReviewForBusinessSince(ctx context.Context, userID, businessID uuid.UUID, since time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM reviews WHERE user_id = $1 AND business_id = $2 AND created_at >= $3)`,
		userID, businessID, since,
	).Scan(&exists)
	return exists, err
}

// CountDeviceReviewsSince counts reviews submitted from a device since a time
func (r *Repository) CountDeviceReviewsSince(ctx context.Context, deviceID string, since time.Time) (int, error) {
	if deviceID == "" {
		return 0, nil
	}
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM reviews WHERE device_id = $1 AND created_at >= $2`,
		deviceID, since,
	).Scan(&count)
	return count, err
}

// CommitReview atomically locks the business, mints the reward coupon,
// inserts the review, recomputes the business rating and bumps the template
// usage counter. Any failure rolls the whole transaction back.
func (r *Repository) CommitReview(ctx context.Context, review *Review, issuer *coupons.Issuer) (*CommitResult, error) {
	var result *CommitResult

	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		businessRepo := businesses.NewRepository(tx)
		couponRepo := coupons.NewRepository(tx)

		if _, err := businessRepo.LockBusiness(ctx, review.BusinessID); err != nil {
			return err
		}

		tpl, err := couponRepo.LockActiveReviewTemplate(ctx, review.BusinessID)
		if err != nil {
			return err
		}
		if tpl == nil {
			tpl = coupons.DefaultReviewTemplate(review.BusinessID)
		}

		coupon, err := issuer.Issue(ctx, couponRepo, tpl, review.UserID, review.ID)
		if err != nil {
			return err
		}

		review.Verified = true
		review.CouponAwarded = true
		review.CouponID = &coupon.ID

		if err := insertReview(ctx, tx, review); err != nil {
			return err
		}

		rating, err := businessRepo.RecomputeRating(ctx, review.BusinessID)
		if err != nil {
			return err
		}

		if coupon.TemplateID != nil {
			if err := couponRepo.IncrementTemplateUsage(ctx, *coupon.TemplateID); err != nil {
				return fmt.Errorf("increment template usage: %w", err)
			}
		}

		result = &CommitResult{Review: review, Coupon: coupon, Rating: rating}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func insertReview(ctx context.Context, db database.DBTX, review *Review) error {
	metadata, err := json.Marshal(review.SecurityMetadata)
	if err != nil {
		return fmt.Errorf("marshal security metadata: %w", err)
	}

	images := review.Images
	if images == nil {
		images = []string{}
	}

	query := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err = db.Exec(ctx, query,
		review.ID,
		review.UserID,
		review.BusinessID,
		review.Rating,
		review.Comment,
		images,
		review.Location.Latitude,
		review.Location.Longitude,
		nullString(review.H3Cell),
		nullString(review.DeviceID),
		review.Verified,
		review.Status,
		metadata,
		review.CouponAwarded,
		review.CouponID,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// GetReviewByID retrieves a review by ID
func (r *Repository) GetReviewByID(ctx context.Context, id uuid.UUID) (*Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	review, err := scanReview(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return review, nil
}

// ListBusinessReviews lists a business's reviews, newest first, with the
// total count
func (r *Repository) ListBusinessReviews(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]*Review, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE business_id = $1`, businessID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + reviewColumns + `
		FROM reviews
		WHERE business_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, businessID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reviews := make([]*Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		reviews = append(reviews, review)
	}

	return reviews, total, rows.Err()
}

func scanReview(row pgx.Row) (*Review, error) {
	var review Review
	var h3Cell, deviceID *string
	var metadata []byte

	err := row.Scan(
		&review.ID,
		&review.UserID,
		&review.BusinessID,
		&review.Rating,
		&review.Comment,
		&review.Images,
		&review.Location.Latitude,
		&review.Location.Longitude,
		&h3Cell,
		&deviceID,
		&review.Verified,
		&review.Status,
		&metadata,
		&review.CouponAwarded,
		&review.CouponID,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if h3Cell != nil {
		review.H3Cell = *h3Cell
	}
	if deviceID != nil {
		review.DeviceID = *deviceID
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &review.SecurityMetadata); err != nil {
			return nil, fmt.Errorf("unmarshal security metadata: %w", err)
		}
	}

	return &review, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
