// Package checkout guards the move from the cart view to checkout.
package checkout

import (
	"context"
	"io"
	"log"

	"storefront/internal/domain"
	"storefront/internal/notify"
)

type State string

const (
	StateCart     State = "cart"
	StateCheckout State = "checkout"
)

// Session is the resolved caller of a request.
type Session struct {
	CustomerID  string
	AnonymousID string
}

func (s Session) Authenticated() bool {
	return s.CustomerID != ""
}

func (s Session) owner() string {
	if s.Authenticated() {
		return "customer:" + s.CustomerID
	}
	return "anonymous:" + s.AnonymousID
}

// Result tells the caller where the flow went. RedirectTo is set only when
// the caller must sign in first.
type Result struct {
	State      State
	RedirectTo string
	Order      *domain.Order
}

type orderPlacer interface {
	PlaceFromCart(ctx context.Context, customerID string, shipping domain.ShippingInfo) (*domain.Order, error)
}

type Gate struct {
	orders    orderPlacer
	notifier  notify.Notifier
	loginPath string
	logger    *log.Logger
}

func NewGate(orders orderPlacer, notifier notify.Notifier, loginPath string, logger *log.Logger) *Gate {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if notifier == nil {
		notifier = notify.Fanout{}
	}
	if loginPath == "" {
		loginPath = "/login"
	}
	return &Gate{orders: orders, notifier: notifier, loginPath: loginPath, logger: logger}
}

// Proceed hands the cart to the order service for signed-in callers. Anyone
// else gets a warning and a redirect to the login page; their cart is left
// as it is.
func (g *Gate) Proceed(ctx context.Context, session Session, shipping domain.ShippingInfo) (Result, error) {
	if !session.Authenticated() {
		g.notifier.Notify(ctx, notify.New(notify.KindWarning, session.owner(), "Please sign in to check out"))
		return Result{State: StateCart, RedirectTo: g.loginPath}, nil
	}
	order, err := g.orders.PlaceFromCart(ctx, session.CustomerID, shipping)
	if err != nil {
		g.logger.Printf("checkout: handoff customer_id=%s error=%v", session.CustomerID, err)
		return Result{State: StateCart}, err
	}
	return Result{State: StateCheckout, Order: order}, nil
}
