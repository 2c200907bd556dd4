package coupons

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/richxcame/verified-reviews/pkg/database"
)

// ErrCouponNotFound is returned when no coupon matches
var ErrCouponNotFound = errors.New("coupon not found")

// ErrTemplateNotFound is returned when a coupon template does not exist
var ErrTemplateNotFound = errors.New("coupon template not found")

const couponColumns = `
	id, code, business_id, user_id, review_id, template_id, reward_type,
	reward_value, item_name, description, min_purchase_amount,
	max_discount_amount, valid_from, valid_until, status, created_at`

// Repository handles coupon and template persistence. Bind it to a pgx.Tx to
// take part in a transaction.
type Repository struct {
	db database.DBTX
}

// NewRepository creates a new coupon repository
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

// LockActiveReviewTemplate loads the newest active review reward template of a
// business and locks it for the rest of the transaction. It returns nil when
// the business has none.
func (r *Repository) LockActiveReviewTemplate(ctx context.Context, businessID uuid.UUID) (*Template, error) {
	query := `
		SELECT id, business_id, kind, reward_type, reward_value, item_name,
		       description, min_purchase_amount, max_discount_amount,
		       is_active, usage_count, created_at
		FROM coupon_templates
		WHERE business_id = $1 AND kind = $2 AND is_active = TRUE
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE
	`

	var tpl Template
	err := r.db.QueryRow(ctx, query, businessID, TemplateKindBusinessReward).Scan(
		&tpl.ID,
		&tpl.BusinessID,
		&tpl.Kind,
		&tpl.RewardType,
		&tpl.RewardValue,
		&tpl.ItemName,
		&tpl.Description,
		&tpl.MinPurchaseAmount,
		&tpl.MaxDiscountAmount,
		&tpl.IsActive,
		&tpl.UsageCount,
		&tpl.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load reward template: %w", err)
	}

	return &tpl, nil
}

// InsertCoupon inserts a coupon, reporting false when the code is taken
func (r *Repository) InsertCoupon(ctx context.Context, c *Coupon) (bool, error) {
	query := `
		INSERT INTO coupons (` + couponColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (code) DO NOTHING
		RETURNING id
	`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, query,
		c.ID,
		c.Code,
		c.BusinessID,
		c.UserID,
		c.ReviewID,
		c.TemplateID,
		c.RewardType,
		c.RewardValue,
		c.ItemName,
		c.Description,
		c.MinPurchaseAmount,
		c.MaxDiscountAmount,
		c.ValidFrom,
		c.ValidUntil,
		c.Status,
		c.CreatedAt,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// IncrementTemplateUsage bumps the usage counter of a template
func (r *Repository) IncrementTemplateUsage(ctx context.Context, templateID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE coupon_templates SET usage_count = usage_count + 1, updated_at = NOW() WHERE id = $1`,
		templateID,
	)
	return err
}

// GetCouponByCode retrieves a coupon by its code
func (r *Repository) GetCouponByCode(ctx context.Context, code string) (*Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	c, err := scanCoupon(r.db.QueryRow(ctx, query, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetCouponsByUser lists a user's coupons, newest first, with the total count
func (r *Repository) GetCouponsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Coupon, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM coupons WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + couponColumns + `
		FROM coupons
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	coupons := make([]*Coupon, 0)
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, 0, err
		}
		coupons = append(coupons, c)
	}

	return coupons, total, rows.Err()
}

func scanCoupon(row pgx.Row) (*Coupon, error) {
	var c Coupon
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.BusinessID,
		&c.UserID,
		&c.ReviewID,
		&c.TemplateID,
		&c.RewardType,
		&c.RewardValue,
		&c.ItemName,
		&c.Description,
		&c.MinPurchaseAmount,
		&c.MaxDiscountAmount,
		&c.ValidFrom,
		&c.ValidUntil,
		&c.Status,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
