package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CouponState is the coupon attached to a cart. DiscountRate is zero unless
// Applied is set, and always lies in [0, 1).
type CouponState struct {
	Code         string          `json:"code,omitempty"`
	Applied      bool            `json:"applied"`
	DiscountRate decimal.Decimal `json:"discountRate"`
}

var couponRates = map[string]decimal.Decimal{
	"DISCOUNT10": decimal.RequireFromString("0.10"),
	"DISCOUNT20": decimal.RequireFromString("0.20"),
}

// EvaluateCoupon matches code case-insensitively against the coupon table.
func EvaluateCoupon(code string) (CouponState, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	rate, ok := couponRates[normalized]
	if !ok {
		return CouponState{}, ErrInvalidCoupon
	}
	return CouponState{Code: normalized, Applied: true, DiscountRate: rate}, nil
}

// RestoreCouponState rebuilds a persisted coupon state, rejecting rates
// outside [0, 1).
func RestoreCouponState(code string, applied bool, rate decimal.Decimal) (CouponState, error) {
	if !applied {
		return CouponState{}, nil
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return CouponState{}, fmt.Errorf("coupon %q: discount rate %s out of range", code, rate)
	}
	return CouponState{Code: code, Applied: true, DiscountRate: rate}, nil
}

// Rate is the effective discount rate.
func (s CouponState) Rate() decimal.Decimal {
	if !s.Applied {
		return decimal.Zero
	}
	return s.DiscountRate
}
