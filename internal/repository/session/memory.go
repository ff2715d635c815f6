package session

import (
	"context"
	"sync"
	"time"

	"storefront/internal/domain"
)

type entry struct {
	session   Session
	expiresAt time.Time
}

// Memory is a process-local Repository used by tests in place of Redis.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]entry
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]entry), now: time.Now}
}

func (m *Memory) Put(_ context.Context, token string, s Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[token]; ok && m.now().Before(e.expiresAt) {
		return domain.ErrAlreadyExists
	}
	m.sessions[token] = entry{session: s, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *Memory) Get(_ context.Context, token string, ttl time.Duration) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	now := m.now()
	if now.After(e.expiresAt) {
		delete(m.sessions, token)
		return nil, domain.ErrNotFound
	}
	e.expiresAt = now.Add(ttl)
	m.sessions[token] = e
	s := e.session
	return &s, nil
}

func (m *Memory) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[token]; !ok {
		return domain.ErrNotFound
	}
	delete(m.sessions, token)
	return nil
}
