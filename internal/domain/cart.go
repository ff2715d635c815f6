package domain

import "time"

const (
	CartStateActive  = "active"
	CartStateOrdered = "ordered"
)

// CartLineItem is one product entry in a cart. Product is the snapshot taken
// when the line was last added to, and its Stock is the quantity ceiling.
type CartLineItem struct {
	Product  Product   `json:"product"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"addedAt"`
}

// Total returns unit price times quantity.
func (l CartLineItem) Total() int64 {
	return l.Product.Price * int64(l.Quantity)
}

// Cart holds the ordered line items of one session owner. Lines are keyed by
// product id: at most one line per product, and every quantity stays within
// [1, product stock]. Mutate it only through its methods.
type Cart struct {
	ID          string         `json:"id"`
	CustomerID  *string        `json:"customerId,omitempty"`
	AnonymousID *string        `json:"-"`
	State       string         `json:"state"`
	Coupon      CouponState    `json:"coupon"`
	Lines       []CartLineItem `json:"lineItems"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// AddItem merges quantity into the line for p, or appends a new line. A
// quantity below 1 counts as 1, so adding never shrinks a line. The
// resulting quantity is clamped to [1, p.Stock].
func (c *Cart) AddItem(p Product, quantity int) error {
	if p.Stock <= 0 {
		return ErrOutOfStock
	}
	if quantity < 1 {
		quantity = 1
	}
	if i := c.indexOf(p.ID); i >= 0 {
		line := &c.Lines[i]
		line.Product = p
		line.Quantity = clampQuantity(line.Quantity+quantity, p.Stock)
		return nil
	}
	c.Lines = append(c.Lines, CartLineItem{
		Product:  p,
		Quantity: clampQuantity(quantity, p.Stock),
		AddedAt:  time.Now().UTC(),
	})
	return nil
}

// UpdateQuantity sets the quantity of the line for productID to
// max(1, quantity), capped at the line's stock. Unknown ids are ignored.
func (c *Cart) UpdateQuantity(productID string, quantity int) {
	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	c.Lines[i].Quantity = clampQuantity(quantity, c.Lines[i].Product.Stock)
}

// RefreshProduct replaces the snapshot on p's line with the current catalog
// entry and re-clamps its quantity. A line whose product sold out is dropped.
// It reports whether the line is still in the cart.
func (c *Cart) RefreshProduct(p Product) bool {
	i := c.indexOf(p.ID)
	if i < 0 {
		return false
	}
	if p.Stock <= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		return false
	}
	c.Lines[i].Product = p
	c.Lines[i].Quantity = clampQuantity(c.Lines[i].Quantity, p.Stock)
	return true
}

// RemoveItem deletes the line for productID if present.
func (c *Cart) RemoveItem(productID string) {
	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
}

// Clear drops every line. The coupon state is left untouched.
func (c *Cart) Clear() {
	c.Lines = nil
}

// Line returns the line for productID.
func (c *Cart) Line(productID string) (CartLineItem, bool) {
	i := c.indexOf(productID)
	if i < 0 {
		return CartLineItem{}, false
	}
	return c.Lines[i], true
}

// TotalItems is the sum of quantities across all lines.
func (c *Cart) TotalItems() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// TotalPrice is the sum of price times quantity across all lines.
func (c *Cart) TotalPrice() int64 {
	var sum int64
	for _, l := range c.Lines {
		sum += l.Total()
	}
	return sum
}

// ApplyCoupon evaluates code and locks it onto the cart on a match.
func (c *Cart) ApplyCoupon(code string) error {
	if c.Coupon.Applied {
		return ErrCouponLocked
	}
	state, err := EvaluateCoupon(code)
	if err != nil {
		return err
	}
	c.Coupon = state
	return nil
}

// ResetCoupon releases the coupon lock.
func (c *Cart) ResetCoupon() {
	c.Coupon = CouponState{}
}

// Totals derives the payable amounts from the current lines and coupon.
func (c *Cart) Totals(shippingFee int64) OrderTotals {
	return CalculateTotals(c.TotalPrice(), shippingFee, c.Coupon)
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func clampQuantity(q, stock int) int {
	if q < 1 {
		q = 1
	}
	if q > stock {
		q = stock
	}
	return q
}
