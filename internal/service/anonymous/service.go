package anonymous

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
	"storefront/internal/domain"
	sessionrepo "storefront/internal/repository/session"
)

var ErrInvalidToken = errors.New("invalid token")

// Service issues bearer tokens to visitors who have not signed in.
type Service struct {
	sessions  sessionrepo.Repository
	accessTTL time.Duration
}

func New(sessions sessionrepo.Repository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{sessions: sessions, accessTTL: ttl}
}

// Issue starts a new anonymous session.
func (s *Service) Issue(ctx context.Context) (accessToken, anonymousID string, err error) {
	anonymousID = uuid.NewString()
	session := sessionrepo.Session{AnonymousID: anonymousID, IssuedAt: time.Now().UTC()}
	for i := 0; i < 5; i++ {
		accessToken, err = randomToken()
		if err != nil {
			return "", "", err
		}
		err = s.sessions.Put(ctx, accessToken, session, s.accessTTL)
		if err == nil {
			return accessToken, anonymousID, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return "", "", err
		}
	}
	return "", "", errors.New("token collision")
}

// LookupByToken resolves a token to its anonymous id and extends the session.
func (s *Service) LookupByToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	session, err := s.sessions.Get(ctx, token, s.accessTTL)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	return session.AnonymousID, nil
}

// Revoke ends the session; unknown tokens are ignored.
func (s *Service) Revoke(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
