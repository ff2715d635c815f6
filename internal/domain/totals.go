package domain

import "github.com/shopspring/decimal"

// OrderTotals is derived on every read and never stored on a cart.
type OrderTotals struct {
	Subtotal       int64 `json:"subtotal"`
	ShippingFee    int64 `json:"shippingFee"`
	DiscountAmount int64 `json:"discountAmount"`
	FinalTotal     int64 `json:"finalTotal"`
}

// CalculateTotals applies the coupon rate to the subtotal only, rounded to
// whole đồng, and adds the shipping fee.
func CalculateTotals(subtotal, shippingFee int64, coupon CouponState) OrderTotals {
	var discount int64
	if coupon.Applied {
		discount = decimal.NewFromInt(subtotal).Mul(coupon.Rate()).Round(0).IntPart()
	}
	return OrderTotals{
		Subtotal:       subtotal,
		ShippingFee:    shippingFee,
		DiscountAmount: discount,
		FinalTotal:     subtotal + shippingFee - discount,
	}
}
