package order

import (
	"context"

	"storefront/internal/domain"
)

// ListFilter narrows an order listing. Zero values mean no restriction.
type ListFilter struct {
	Status     domain.OrderStatus
	CustomerID string
	Limit      int
	Offset     int
}

type Repository interface {
	// PlaceFromCart stores the order and retires the cart in one transaction.
	PlaceFromCart(ctx context.Context, order domain.Order, cartID string) (*domain.Order, error)
	// List returns one page of orders, newest first, and the unpaged total.
	List(ctx context.Context, filter ListFilter) ([]domain.Order, int, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	// UpdateStatus moves the order from one status to another. It returns
	// domain.ErrInvalidTransition when the order is no longer in status from.
	UpdateStatus(ctx context.Context, id int64, from, to domain.OrderStatus, note string) (*domain.Order, error)
}
