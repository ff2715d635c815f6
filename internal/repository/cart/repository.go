package cart

import (
	"context"

	"storefront/internal/domain"
)

// Owner identifies whose cart is addressed. Exactly one field is set.
type Owner struct {
	CustomerID  string
	AnonymousID string
}

type Repository interface {
	// GetActive returns the owner's active cart or domain.ErrNotFound.
	GetActive(ctx context.Context, owner Owner) (*domain.Cart, error)
	Create(ctx context.Context, owner Owner) (*domain.Cart, error)
	// Save persists coupon state and replaces the cart lines.
	Save(ctx context.Context, cart *domain.Cart) error
	AssignCustomerToAnonymous(ctx context.Context, anonymousID, customerID string) (*domain.Cart, error)
	Delete(ctx context.Context, id string) error
}
