package product

import (
	"context"

	"storefront/internal/domain"
)

// Repository reads and writes catalog products.
type Repository interface {
	List(ctx context.Context, category string) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}
