// Package session caches the bearer token and display preferences in the
// local store, under reserved keys that never collide with image blobs or
// the note manifest.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"nota/internal/blobstore"
)

const (
	tokenKey = "local/token"
	themeKey = "local/theme"
)

// Session reads and writes the cached credentials and preferences.
type Session struct {
	store blobstore.Store
}

// New creates a session over store.
func New(store blobstore.Store) *Session {
	return &Session{store: store}
}

// Token returns the cached bearer token. A token that is locally known to
// be expired is cleared and reported as absent, so callers fall back to
// pure local-buffer operation instead of burning a round-trip on a 401.
func (s *Session) Token(ctx context.Context) (string, bool, error) {
	token, ok, err := s.store.Get(ctx, tokenKey)
	if err != nil || !ok {
		return "", false, err
	}
	if Expired(token, time.Now()) {
		if err := s.Clear(ctx); err != nil {
			return "", false, err
		}
		return "", false, nil
	}
	return token, true, nil
}

// SaveToken caches a bearer token.
func (s *Session) SaveToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token is required")
	}
	return s.store.Put(ctx, tokenKey, token)
}

// Clear removes the cached token. Used on explicit logout and on the
// AuthExpired sign-out condition.
func (s *Session) Clear(ctx context.Context) error {
	return s.store.Remove(ctx, tokenKey)
}

// Theme returns the persisted display-theme preference, empty when unset.
func (s *Session) Theme(ctx context.Context) (string, error) {
	theme, _, err := s.store.Get(ctx, themeKey)
	return theme, err
}

// SetTheme persists the display-theme preference.
func (s *Session) SetTheme(ctx context.Context, theme string) error {
	return s.store.Put(ctx, themeKey, theme)
}

// Expired reports whether a JWT bearer token is past its exp claim. The
// signature is not verified; the server stays authoritative, this only
// short-circuits calls that are certain to fail. Opaque or claimless
// tokens are never considered expired locally.
func Expired(token string, now time.Time) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
