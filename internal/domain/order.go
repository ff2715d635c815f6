package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusAwaitingConfirmation OrderStatus = "awaiting_confirmation"
	StatusProcessing           OrderStatus = "processing"
	StatusShipping             OrderStatus = "shipping"
	StatusDelivered            OrderStatus = "delivered"
	StatusCancelled            OrderStatus = "cancelled"
)

// ParseOrderStatus validates a status coming from a request.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusAwaitingConfirmation, StatusProcessing, StatusShipping, StatusDelivered, StatusCancelled:
		return st, true
	}
	return "", false
}

// OrderAction is an administrative command on an order.
type OrderAction string

const (
	ActionApprove OrderAction = "approve"
	ActionReject  OrderAction = "reject"
	ActionShip    OrderAction = "ship"
	ActionDeliver OrderAction = "deliver"
)

type transition struct {
	from OrderStatus
	to   OrderStatus
}

// Every transition moves forward; none leads back to an earlier status.
var transitions = map[OrderAction]transition{
	ActionApprove: {from: StatusAwaitingConfirmation, to: StatusProcessing},
	ActionReject:  {from: StatusAwaitingConfirmation, to: StatusCancelled},
	ActionShip:    {from: StatusProcessing, to: StatusShipping},
	ActionDeliver: {from: StatusShipping, to: StatusDelivered},
}

// Transition returns the status reached by applying a to an order in status from.
func (a OrderAction) Transition(from OrderStatus) (OrderStatus, error) {
	t, ok := transitions[a]
	if !ok || t.from != from {
		return "", ErrInvalidTransition
	}
	return t.to, nil
}

// RequiresNote reports whether the action must carry an explanatory note.
func (a OrderAction) RequiresNote() bool {
	return a == ActionReject
}

// ShippingInfo identifies the recipient of an order.
type ShippingInfo struct {
	RecipientName string `json:"recipientName"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
}

func (s ShippingInfo) Validate() error {
	if strings.TrimSpace(s.RecipientName) == "" || strings.TrimSpace(s.Phone) == "" || strings.TrimSpace(s.Address) == "" {
		return ErrInvalidShipping
	}
	return nil
}

type OrderLine struct {
	ProductID string `json:"productId"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	Total     int64  `json:"total"`
}

// Order is a placed cart. ID is assigned by storage.
type Order struct {
	ID           int64           `json:"id"`
	CustomerID   string          `json:"customerId"`
	Shipping     ShippingInfo    `json:"shipping"`
	CouponCode   string          `json:"couponCode,omitempty"`
	DiscountRate decimal.Decimal `json:"discountRate"`
	Totals       OrderTotals     `json:"totals"`
	Status       OrderStatus     `json:"status"`
	Note         string          `json:"note,omitempty"`
	Lines        []OrderLine     `json:"lines"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// NewOrderFromCart snapshots the cart lines and totals into an order awaiting
// confirmation.
func NewOrderFromCart(cart Cart, customerID string, shipping ShippingInfo, shippingFee int64) (Order, error) {
	if len(cart.Lines) == 0 {
		return Order{}, ErrEmptyCart
	}
	if err := shipping.Validate(); err != nil {
		return Order{}, err
	}
	lines := make([]OrderLine, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		lines = append(lines, OrderLine{
			ProductID: l.Product.ID,
			SKU:       l.Product.SKU,
			Name:      l.Product.Name,
			UnitPrice: l.Product.Price,
			Quantity:  l.Quantity,
			Total:     l.Total(),
		})
	}
	shipping.RecipientName = strings.TrimSpace(shipping.RecipientName)
	shipping.Phone = strings.TrimSpace(shipping.Phone)
	shipping.Address = strings.TrimSpace(shipping.Address)
	return Order{
		CustomerID:   customerID,
		Shipping:     shipping,
		CouponCode:   cart.Coupon.Code,
		DiscountRate: cart.Coupon.Rate(),
		Totals:       cart.Totals(shippingFee),
		Status:       StatusAwaitingConfirmation,
		Lines:        lines,
	}, nil
}

// MatchesKeyword reports whether q is a substring of the recipient name
// (case-insensitive), the numeric order id, or the phone number.
func (o Order) MatchesKeyword(q string) bool {
	q = strings.TrimSpace(q)
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(o.Shipping.RecipientName), strings.ToLower(q)) {
		return true
	}
	if strings.Contains(strconv.FormatInt(o.ID, 10), q) {
		return true
	}
	return strings.Contains(o.Shipping.Phone, q)
}

// FilterOrders keeps the orders matching q, preserving order.
func FilterOrders(orders []Order, q string) []Order {
	if strings.TrimSpace(q) == "" {
		return orders
	}
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.MatchesKeyword(q) {
			out = append(out, o)
		}
	}
	return out
}
