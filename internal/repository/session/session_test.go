package session

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"storefront/internal/domain"
)

func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()
	token := uuid.NewString()

	if _, err := repo.Get(ctx, token, time.Minute); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	want := Session{AnonymousID: "anon-1", IssuedAt: time.Now().UTC().Truncate(time.Second)}
	if err := repo.Put(ctx, token, want, time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := repo.Put(ctx, token, want, time.Minute); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	got, err := repo.Get(ctx, token, time.Minute)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AnonymousID != want.AnonymousID || !got.IssuedAt.Equal(want.IssuedAt) {
		t.Fatalf("unexpected session %+v", got)
	}
	if err := repo.Delete(ctx, token); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, token, time.Minute); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemory(t *testing.T) {
	exerciseRepository(t, NewMemory())
}

func TestMemory_Expiry(t *testing.T) {
	m := NewMemory()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	if err := m.Put(ctx, "tok", Session{AnonymousID: "a"}, time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	now = now.Add(50 * time.Second)
	if _, err := m.Get(ctx, "tok", time.Minute); err != nil {
		t.Fatalf("Get within ttl: %v", err)
	}
	now = now.Add(50 * time.Second)
	if _, err := m.Get(ctx, "tok", time.Minute); err != nil {
		t.Fatalf("Get must slide the expiry: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := m.Get(ctx, "tok", time.Minute); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	exerciseRepository(t, NewRedis(client, "storefront-test"))
}
