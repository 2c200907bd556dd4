package coupons

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/verified-reviews/pkg/common"
	"github.com/richxcame/verified-reviews/pkg/middleware"
	"github.com/richxcame/verified-reviews/pkg/pagination"
	"github.com/shopspring/decimal"
)

// Reader is the read side of a coupon store
type Reader interface {
	GetCouponByCode(ctx context.Context, code string) (*Coupon, error)
	GetCouponsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Coupon, int64, error)
}

// Handler handles HTTP requests for coupons
type Handler struct {
	store Reader
	now   func() time.Time
}

// NewHandler creates a new coupons handler
func NewHandler(store Reader) *Handler {
	return &Handler{store: store, now: time.Now}
}

// ListMyCoupons returns the caller's coupons
func (h *Handler) ListMyCoupons(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	params := pagination.ParseParams(c)
	coupons, total, err := h.store.GetCouponsByUser(c.Request.Context(), userID, params.Limit, params.Offset)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to get coupons")
		return
	}

	common.SuccessResponseWithMeta(c, coupons, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// PreviewCoupon reports whether the caller's coupon is usable and the discount
// it would grant on ?purchase_amount=
func (h *Handler) PreviewCoupon(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	purchase := decimal.Zero
	if raw := c.Query("purchase_amount"); raw != "" {
		purchase, err = decimal.NewFromString(raw)
		if err != nil || purchase.IsNegative() {
			common.ErrorResponse(c, http.StatusBadRequest, "invalid purchase_amount")
			return
		}
	}

	coupon, err := h.store.GetCouponByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "coupon not found")
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to get coupon")
		return
	}

	// coupons are private to their holder
	if coupon.UserID != userID {
		common.ErrorResponse(c, http.StatusNotFound, "coupon not found")
		return
	}

	now := h.now()
	preview := Preview{
		Coupon:         coupon,
		Valid:          IsValid(coupon, now),
		PurchaseAmount: purchase,
		Discount:       decimal.Zero,
	}
	if preview.Valid {
		preview.Discount = CalculateDiscount(coupon, purchase)
		preview.ExpiresIn = coupon.ValidUntil.Sub(now).Round(time.Second).String()
	}

	common.SuccessResponse(c, preview)
}

// RegisterRoutes mounts coupon routes
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/coupons", h.ListMyCoupons)
	api.GET("/coupons/:code", h.PreviewCoupon)
}
