package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrOutOfStock is returned when a product without stock is added to a cart.
	ErrOutOfStock = errors.New("product out of stock")
	// ErrInvalidCoupon is returned for codes missing from the coupon table.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrCouponLocked is returned when a cart already carries an applied coupon.
	ErrCouponLocked = errors.New("coupon already applied")
	// ErrEmptyCart is returned when an order is placed from a cart without lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidTransition is returned when an order action does not apply to its current status.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrInvalidShipping is returned when recipient details are incomplete.
	ErrInvalidShipping = errors.New("invalid shipping information")
)
