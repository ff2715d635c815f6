package token

import (
	"context"
	"time"
)

// Token is a bearer token issued to a signed-in customer.
type Token struct {
	Token      string
	CustomerID string
	ExpiresAt  *time.Time
	CreatedAt  time.Time
}

type Repository interface {
	Create(ctx context.Context, token Token) error
	Get(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
}
