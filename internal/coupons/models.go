package coupons

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RewardType is the kind of benefit a coupon grants
type RewardType string

const (
	RewardPercentage RewardType = "percentage"
	RewardFixed      RewardType = "fixed"
	RewardFreeItem   RewardType = "free_item"
	RewardBuy1Get1   RewardType = "buy1get1"
	RewardCashback   RewardType = "cashback"
)

// Status is the lifecycle state of a coupon
type Status string

const (
	StatusActive    Status = "active"
	StatusRedeemed  Status = "redeemed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// TemplateKindBusinessReward marks templates used for review rewards
const TemplateKindBusinessReward = "business_reward"

// Coupon is a single-use reward minted for an accepted review
type Coupon struct {
	ID                uuid.UUID        `json:"id"`
	Code              string           `json:"code"`
	BusinessID        uuid.UUID        `json:"business_id"`
	UserID            uuid.UUID        `json:"user_id"`
	ReviewID          uuid.UUID        `json:"review_id"`
	TemplateID        *uuid.UUID       `json:"template_id,omitempty"`
	RewardType        RewardType       `json:"reward_type"`
	RewardValue       decimal.Decimal  `json:"reward_value"`
	ItemName          *string          `json:"item_name,omitempty"`
	Description       string           `json:"description"`
	MinPurchaseAmount *decimal.Decimal `json:"min_purchase_amount,omitempty"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	ValidFrom         time.Time        `json:"valid_from"`
	ValidUntil        time.Time        `json:"valid_until"`
	Status            Status           `json:"status"`
	CreatedAt         time.Time        `json:"created_at"`
}

// Template is a business-configured reward pattern
type Template struct {
	ID                uuid.UUID        `json:"id"`
	BusinessID        uuid.UUID        `json:"business_id"`
	Kind              string           `json:"kind"`
	RewardType        RewardType       `json:"reward_type"`
	RewardValue       decimal.Decimal  `json:"reward_value"`
	ItemName          *string          `json:"item_name,omitempty"`
	Description       string           `json:"description"`
	MinPurchaseAmount *decimal.Decimal `json:"min_purchase_amount,omitempty"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	IsActive          bool             `json:"is_active"`
	UsageCount        int              `json:"usage_count"`
	CreatedAt         time.Time        `json:"created_at"`
}

// Preview is the validity and discount preview for a coupon
type Preview struct {
	Coupon         *Coupon         `json:"coupon"`
	Valid          bool            `json:"valid"`
	PurchaseAmount decimal.Decimal `json:"purchase_amount"`
	Discount       decimal.Decimal `json:"discount"`
	ExpiresIn      string          `json:"expires_in,omitempty"`
}
