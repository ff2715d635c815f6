package session

import (
	"context"
	"time"
)

// Session is the anonymous visitor a bearer token stands for.
type Session struct {
	AnonymousID string    `json:"anonymousId"`
	IssuedAt    time.Time `json:"issuedAt"`
}

// Repository stores anonymous sessions with a sliding expiry. Get extends
// the session by ttl and returns domain.ErrNotFound for unknown or expired
// tokens.
type Repository interface {
	Put(ctx context.Context, token string, s Session, ttl time.Duration) error
	Get(ctx context.Context, token string, ttl time.Duration) (*Session, error)
	Delete(ctx context.Context, token string) error
}
