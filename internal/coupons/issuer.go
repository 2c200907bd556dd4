package coupons

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultCodeLength    = 8
	DefaultValidityHours = 2
	MaxCodeAttempts      = 5

	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ErrCodeSpaceExhausted is returned when every generated code collided
var ErrCodeSpaceExhausted = errors.New("could not generate a unique coupon code")

// Inserter stores a coupon. It returns false without error when the code is
// already taken.
type Inserter interface {
	InsertCoupon(ctx context.Context, coupon *Coupon) (bool, error)
}

// Issuer mints review reward coupons
type Issuer struct {
	codeLength int
	validity   time.Duration
	random     io.Reader
	now        func() time.Time
}

// NewIssuer creates an issuer. Non-positive arguments fall back to an
// 8-character code and a 2 hour validity window.
func NewIssuer(codeLength int, validityHours int) *Issuer {
	if codeLength <= 0 {
		codeLength = DefaultCodeLength
	}
	if validityHours <= 0 {
		validityHours = DefaultValidityHours
	}
	return &Issuer{
		codeLength: codeLength,
		validity:   time.Duration(validityHours) * time.Hour,
		random:     rand.Reader,
		now:        time.Now,
	}
}

// GenerateCode returns a random code drawn uniformly from [A-Z0-9]
func (i *Issuer) GenerateCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	code := make([]byte, i.codeLength)
	for n := range code {
		idx, err := rand.Int(i.random, max)
		if err != nil {
			return "", fmt.Errorf("generate coupon code: %w", err)
		}
		code[n] = codeAlphabet[idx.Int64()]
	}
	return string(code), nil
}

// NewReviewReward builds an unsaved coupon for reviewID from tpl
func (i *Issuer) NewReviewReward(tpl *Template, userID, reviewID uuid.UUID) (*Coupon, error) {
	code, err := i.GenerateCode()
	if err != nil {
		return nil, err
	}

	now := i.now()
	coupon := &Coupon{
		ID:                uuid.New(),
		Code:              code,
		BusinessID:        tpl.BusinessID,
		UserID:            userID,
		ReviewID:          reviewID,
		RewardType:        tpl.RewardType,
		RewardValue:       tpl.RewardValue,
		ItemName:          tpl.ItemName,
		Description:       tpl.Description,
		MinPurchaseAmount: tpl.MinPurchaseAmount,
		MaxDiscountAmount: tpl.MaxDiscountAmount,
		ValidFrom:         now,
		ValidUntil:        now.Add(i.validity),
		Status:            StatusActive,
		CreatedAt:         now,
	}
	if tpl.ID != uuid.Nil {
		id := tpl.ID
		coupon.TemplateID = &id
	}
	return coupon, nil
}

// Issue mints and stores a coupon, regenerating the code on collision
func (i *Issuer) Issue(ctx context.Context, store Inserter, tpl *Template, userID, reviewID uuid.UUID) (*Coupon, error) {
	for attempt := 0; attempt < MaxCodeAttempts; attempt++ {
		coupon, err := i.NewReviewReward(tpl, userID, reviewID)
		if err != nil {
			return nil, err
		}

		inserted, err := store.InsertCoupon(ctx, coupon)
		if err != nil {
			return nil, fmt.Errorf("insert coupon: %w", err)
		}
		if inserted {
			return coupon, nil
		}
	}
	return nil, ErrCodeSpaceExhausted
}

// DefaultReviewTemplate is used when the business has no active reward
// template: 10% off, no minimum purchase and no cap.
func DefaultReviewTemplate(businessID uuid.UUID) *Template {
	return &Template{
		BusinessID:  businessID,
		Kind:        TemplateKindBusinessReward,
		RewardType:  RewardPercentage,
		RewardValue: decimal.NewFromInt(10),
		Description: "Thank you for your review!",
		IsActive:    true,
	}
}

// ComputeExpiry returns from plus hours
func ComputeExpiry(from time.Time, hours int) time.Time {
	return from.Add(time.Duration(hours) * time.Hour)
}

// IsValid reports whether c can be used at now. A coupon is still valid at
// exactly ValidUntil.
func IsValid(c *Coupon, now time.Time) bool {
	if c == nil || c.Status != StatusActive {
		return false
	}
	return !now.After(c.ValidUntil)
}

// CalculateDiscount returns the discount c grants on purchase, rounded to
// cents
func CalculateDiscount(c *Coupon, purchase decimal.Decimal) decimal.Decimal {
	if c == nil || !purchase.IsPositive() {
		return decimal.Zero
	}
	if c.MinPurchaseAmount != nil && purchase.LessThan(*c.MinPurchaseAmount) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch c.RewardType {
	case RewardPercentage, RewardCashback:
		discount = purchase.Mul(c.RewardValue).Div(decimal.NewFromInt(100))
		if c.MaxDiscountAmount != nil && discount.GreaterThan(*c.MaxDiscountAmount) {
			discount = *c.MaxDiscountAmount
		}
	case RewardFixed:
		discount = decimal.Min(c.RewardValue, purchase)
	default:
		return decimal.Zero
	}

	return discount.Round(2)
}
