package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var couponColumnNames = []string{
	"id", "code", "business_id", "user_id", "review_id", "template_id", "reward_type",
	"reward_value", "item_name", "description", "min_purchase_amount",
	"max_discount_amount", "valid_from", "valid_until", "status", "created_at",
}

func TestRepository_LockActiveReviewTemplate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	businessID := uuid.New()
	templateID := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM coupon_templates (.+) FOR UPDATE").
		WithArgs(businessID, TemplateKindBusinessReward).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "business_id", "kind", "reward_type", "reward_value", "item_name",
			"description", "min_purchase_amount", "max_discount_amount", "is_active", "usage_count", "created_at",
		}).AddRow(templateID, businessID, TemplateKindBusinessReward, RewardPercentage, dec("15"),
			nil, "15% off", nil, nil, true, 4, time.Now()))

	tpl, err := repo.LockActiveReviewTemplate(context.Background(), businessID)
	require.NoError(t, err)
	require.NotNil(t, tpl)
	assert.Equal(t, templateID, tpl.ID)
	assert.True(t, dec("15").Equal(tpl.RewardValue))
	assert.Equal(t, 4, tpl.UsageCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_LockActiveReviewTemplate_None(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	businessID := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM coupon_templates").
		WithArgs(businessID, TemplateKindBusinessReward).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	tpl, err := repo.LockActiveReviewTemplate(context.Background(), businessID)
	require.NoError(t, err)
	assert.Nil(t, tpl)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_InsertCoupon(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	coupon, err := NewIssuer(8, 2).NewReviewReward(DefaultReviewTemplate(uuid.New()), uuid.New(), uuid.New())
	require.NoError(t, err)

	t.Run("inserted", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO coupons (.+) ON CONFLICT \\(code\\) DO NOTHING").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(coupon.ID))

		ok, err := repo.InsertCoupon(context.Background(), coupon)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("code taken", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO coupons").
			WillReturnRows(pgxmock.NewRows([]string{"id"}))

		ok, err := repo.InsertCoupon(context.Background(), coupon)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_IncrementTemplateUsage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	templateID := uuid.New()

	mock.ExpectExec("UPDATE coupon_templates SET usage_count = usage_count \\+ 1").
		WithArgs(templateID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.IncrementTemplateUsage(context.Background(), templateID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetCouponByCode(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM coupons WHERE code = \\$1").
		WithArgs("AB12CD34").
		WillReturnRows(pgxmock.NewRows(couponColumnNames).AddRow(
			id, "AB12CD34", uuid.New(), uuid.New(), uuid.New(), nil, RewardPercentage,
			dec("10"), nil, "Thank you for your review!", nil,
			nil, now, now.Add(2*time.Hour), StatusActive, now,
		))

	coupon, err := repo.GetCouponByCode(context.Background(), "AB12CD34")
	require.NoError(t, err)
	assert.Equal(t, id, coupon.ID)
	assert.Equal(t, StatusActive, coupon.Status)

	mock.ExpectQuery("SELECT (.+) FROM coupons WHERE code = \\$1").
		WithArgs("MISSING0").
		WillReturnRows(pgxmock.NewRows(couponColumnNames))

	_, err = repo.GetCouponByCode(context.Background(), "MISSING0")
	assert.ErrorIs(t, err, ErrCouponNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetCouponsByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	userID := uuid.New()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM coupons").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT (.+) FROM coupons (.+) ORDER BY created_at DESC").
		WithArgs(userID, 20, 0).
		WillReturnRows(pgxmock.NewRows(couponColumnNames).AddRow(
			uuid.New(), "ZX98YW76", uuid.New(), userID, uuid.New(), nil, RewardFixed,
			dec("5"), nil, "5 off", nil,
			nil, now, now.Add(2*time.Hour), StatusActive, now,
		))

	coupons, total, err := repo.GetCouponsByUser(context.Background(), userID, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, coupons, 1)
	assert.Equal(t, "ZX98YW76", coupons[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
