package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"storefront/internal/domain"
	"storefront/internal/money"
	"storefront/internal/notify"
	cartsvc "storefront/internal/service/cart"
	customersvc "storefront/internal/service/customer"
	ordersvc "storefront/internal/service/order"
)

type moneyView struct {
	Amount    int64  `json:"amount"`
	Formatted string `json:"formatted"`
}

func toMoney(amount int64) moneyView {
	return moneyView{Amount: amount, Formatted: money.Format(amount)}
}

type productView struct {
	ID          string    `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       moneyView `json:"price"`
	Stock       int       `json:"stock"`
	InStock     bool      `json:"inStock"`
	Category    string    `json:"category,omitempty"`
	Images      []string  `json:"images"`
}

func toProductView(p domain.Product) productView {
	images := p.Images()
	if images == nil {
		images = []string{}
	}
	return productView{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       toMoney(p.Price),
		Stock:       p.Stock,
		InStock:     p.Stock > 0,
		Category:    p.Category,
		Images:      images,
	}
}

type lineItemView struct {
	Product  productView `json:"product"`
	Quantity int         `json:"quantity"`
	Total    moneyView   `json:"total"`
	AddedAt  time.Time   `json:"addedAt"`
}

type couponView struct {
	Code         string `json:"code,omitempty"`
	Applied      bool   `json:"applied"`
	DiscountRate string `json:"discountRate"`
}

type totalsView struct {
	Subtotal       moneyView `json:"subtotal"`
	ShippingFee    moneyView `json:"shippingFee"`
	DiscountAmount moneyView `json:"discountAmount"`
	FinalTotal     moneyView `json:"finalTotal"`
}

func toTotalsView(t domain.OrderTotals) totalsView {
	return totalsView{
		Subtotal:       toMoney(t.Subtotal),
		ShippingFee:    toMoney(t.ShippingFee),
		DiscountAmount: toMoney(t.DiscountAmount),
		FinalTotal:     toMoney(t.FinalTotal),
	}
}

type cartView struct {
	ID            string                `json:"id"`
	State         string                `json:"state"`
	LineItems     []lineItemView        `json:"lineItems"`
	TotalItems    int                   `json:"totalItems"`
	TotalPrice    moneyView             `json:"totalPrice"`
	Coupon        couponView            `json:"coupon"`
	Totals        totalsView            `json:"totals"`
	Notifications []notify.Notification `json:"notifications,omitempty"`
}

func toCartView(c *domain.Cart, totals domain.OrderTotals) cartView {
	lines := make([]lineItemView, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, lineItemView{
			Product:  toProductView(l.Product),
			Quantity: l.Quantity,
			Total:    toMoney(l.Total()),
			AddedAt:  l.AddedAt,
		})
	}
	return cartView{
		ID:         c.ID,
		State:      c.State,
		LineItems:  lines,
		TotalItems: c.TotalItems(),
		TotalPrice: toMoney(c.TotalPrice()),
		Coupon: couponView{
			Code:         c.Coupon.Code,
			Applied:      c.Coupon.Applied,
			DiscountRate: c.Coupon.Rate().String(),
		},
		Totals: toTotalsView(totals),
	}
}

type orderLineView struct {
	ProductID string    `json:"productId"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	UnitPrice moneyView `json:"unitPrice"`
	Quantity  int       `json:"quantity"`
	Total     moneyView `json:"total"`
}

type orderView struct {
	ID           int64               `json:"id"`
	CustomerID   string              `json:"customerId"`
	Shipping     domain.ShippingInfo `json:"shipping"`
	CouponCode   string              `json:"couponCode,omitempty"`
	DiscountRate string              `json:"discountRate"`
	Totals       totalsView          `json:"totals"`
	Status       domain.OrderStatus  `json:"status"`
	Note         string              `json:"note,omitempty"`
	Lines        []orderLineView     `json:"lines"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

func toOrderView(o domain.Order) orderView {
	lines := make([]orderLineView, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, orderLineView{
			ProductID: l.ProductID,
			SKU:       l.SKU,
			Name:      l.Name,
			UnitPrice: toMoney(l.UnitPrice),
			Quantity:  l.Quantity,
			Total:     toMoney(l.Total),
		})
	}
	return orderView{
		ID:           o.ID,
		CustomerID:   o.CustomerID,
		Shipping:     o.Shipping,
		CouponCode:   o.CouponCode,
		DiscountRate: o.DiscountRate.String(),
		Totals:       toTotalsView(o.Totals),
		Status:       o.Status,
		Note:         o.Note,
		Lines:        lines,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

type orderListView struct {
	Orders     []orderView         `json:"orders"`
	Pagination ordersvc.Pagination `json:"pagination"`
}

func toOrderListView(res *ordersvc.ListResult) orderListView {
	orders := make([]orderView, 0, len(res.Orders))
	for _, o := range res.Orders {
		orders = append(orders, toOrderView(o))
	}
	return orderListView{Orders: orders, Pagination: res.Pagination}
}

type customerView struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	FullName  string      `json:"fullName,omitempty"`
	Phone     string      `json:"phone,omitempty"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

func toCustomerView(c domain.Customer) customerView {
	return customerView{
		ID:        c.ID,
		Email:     c.Email,
		FullName:  c.FullName,
		Phone:     c.Phone,
		Role:      c.Role,
		CreatedAt: c.CreatedAt,
	}
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var verr customersvc.ValidationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrInvalidCoupon),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidShipping),
		errors.Is(err, ordersvc.ErrNoteRequired),
		errors.Is(err, ordersvc.ErrInvalidInput),
		errors.Is(err, cartsvc.ErrProductRequired),
		errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrCouponLocked),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, customersvc.ErrInvalidCredentials),
		errors.Is(err, customersvc.ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the mapped status. Internal errors are not echoed.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal error"
	}
	c.JSON(status, gin.H{
		"error":         msg,
		"notifications": notify.Collected(c.Request.Context()),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
