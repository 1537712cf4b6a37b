package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mmcdole/reel/internal/domain"
)

// TokenKey is the KV key holding the signed-in user's bearer token
const TokenKey = "auth_token"

// Source implements domain.CredentialSource over the local KV store.
// The server verifies signatures; locally the token is only checked for expiry.
type Source struct {
	store    domain.KeyValueStore
	mu       sync.RWMutex
	fallback string
	now      func() time.Time
	logger   *slog.Logger
}

// NewSource creates a credential source. fallback is used when nothing is stored.
func NewSource(store domain.KeyValueStore, fallback string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		store:    store,
		fallback: fallback,
		now:      time.Now,
		logger:   logger,
	}
}

// Token returns the stored bearer token or domain.ErrAuthMissing
func (s *Source) Token(_ context.Context) (string, error) {
	s.mu.RLock()
	token := s.fallback
	s.mu.RUnlock()
	if data, ok := s.store.Get(TokenKey); ok && len(data) > 0 {
		token = string(data)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.ErrAuthMissing
	}

	if expired, err := s.expired(token); err == nil && expired {
		s.logger.Info("stored token has expired")
		return "", fmt.Errorf("%w: token expired", domain.ErrAuthMissing)
	}
	return token, nil
}

// Save persists token for later runs
func (s *Source) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is empty")
	}
	if err := s.store.Set(TokenKey, []byte(token)); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Clear removes the stored token and forgets the fallback
func (s *Source) Clear() error {
	s.mu.Lock()
	s.fallback = ""
	s.mu.Unlock()
	if err := s.store.Remove(TokenKey); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

// expired reports whether a JWT's exp claim has passed.
// Tokens that are not JWTs return an error and are accepted as opaque.
func (s *Source) expired(token string) (bool, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false, err
	}
	if claims.ExpiresAt == nil {
		return false, nil
	}
	return !s.now().Before(claims.ExpiresAt.Time), nil
}

var _ domain.CredentialSource = (*Source)(nil)
