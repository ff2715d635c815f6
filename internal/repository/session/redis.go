package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"storefront/internal/domain"
)

type redisRepo struct {
	client    *redis.Client
	namespace string
}

// NewRedis returns a Repository keeping sessions under "<namespace>:anon:<token>".
func NewRedis(client *redis.Client, namespace string) Repository {
	return &redisRepo{client: client, namespace: namespace}
}

func (r *redisRepo) key(token string) string {
	return fmt.Sprintf("%s:anon:%s", r.namespace, token)
}

func (r *redisRepo) Put(ctx context.Context, token string, s Session, ttl time.Duration) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, r.key(token), payload, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (r *redisRepo) Get(ctx context.Context, token string, ttl time.Duration) (*Session, error) {
	raw, err := r.client.GetEx(ctx, r.key(token), ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", token, err)
	}
	return &s, nil
}

func (r *redisRepo) Delete(ctx context.Context, token string) error {
	n, err := r.client.Del(ctx, r.key(token)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
