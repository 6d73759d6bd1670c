// Package session owns the login lifecycle: at most one active session per
// user, issued as a signed token whose keyed hash is stored server-side.
//
// A session moves absent -> active on Issue and active -> absent on Revoke or
// when Validate notices it has expired. Expiry is only checked when a token is
// presented; nothing sweeps the store in the background.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/placeshub/internal/auth"
)

var (
	ErrSessionAlreadyActive = errors.New("session already active")
	ErrMissingToken         = errors.New("missing token")
	ErrMalformedToken       = errors.New("malformed token")
	ErrNoActiveSession      = errors.New("no active session")
	ErrTokenMismatch        = errors.New("token does not match session")
	ErrSessionExpired       = errors.New("session expired")
)

// Store persists one session row per user.
// Create must fail with ErrAlreadyExists when a row for the user is present.
// Get returns ErrNotFound when there is none. Delete is idempotent.
type Store interface {
	Get(ctx context.Context, userID string) (Session, error)
	Create(ctx context.Context, s Session) error
	Delete(ctx context.Context, userID string) error
}

// TokenIssuer is the slice of auth.Manager the session manager needs.
type TokenIssuer interface {
	GenerateSessionToken(userID string) (string, time.Time, error)
	ParseAndValidate(raw string) (*auth.Claims, error)
	HashToken(raw string) string
	TokenMatches(raw, storedHash string) bool
}

// Observer receives lifecycle outcomes, e.g. for metrics. May be nil.
type Observer interface {
	SessionEvent(event string)
}

type Manager struct {
	store  Store
	tokens TokenIssuer
	ttl    time.Duration
	now    func() time.Time
	obs    Observer
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithObserver(obs Observer) Option {
	return func(m *Manager) { m.obs = obs }
}

func NewManager(store Store, tokens TokenIssuer, ttl time.Duration, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		tokens: tokens,
		ttl:    ttl,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Active reports whether userID currently holds a session row, expired or not.
func (m *Manager) Active(ctx context.Context, userID string) (bool, error) {
	_, err := m.store.Get(ctx, userID)

	if err == nil {
		return true, nil
	}

	if errors.Is(err, ErrNotFound) {
		return false, nil
	}

	return false, fmt.Errorf("load session: %w", err)
}

// Issue creates the session for userID and returns the raw token. The token is
// not recoverable afterwards.
func (m *Manager) Issue(ctx context.Context, userID string) (string, error) {
	active, err := m.Active(ctx, userID)
	if err != nil {
		return "", err
	}

	if active {
		m.emit("already_active")
		return "", ErrSessionAlreadyActive
	}

	raw, _, err := m.tokens.GenerateSessionToken(userID)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	now := m.now().UTC()

	row := Session{
		UserID:    userID,
		TokenHash: m.tokens.HashToken(raw),
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}

	err = m.store.Create(ctx, row)
	if err != nil {
		// a concurrent login won the insert
		if errors.Is(err, ErrAlreadyExists) {
			m.emit("already_active")
			return "", ErrSessionAlreadyActive
		}
		return "", fmt.Errorf("create session: %w", err)
	}

	m.emit("issued")

	return raw, nil
}

// Validate resolves a presented token to its user id.
func (m *Manager) Validate(ctx context.Context, raw string) (string, error) {
	if raw == "" {
		m.emit("missing_token")
		return "", ErrMissingToken
	}

	claims, err := m.tokens.ParseAndValidate(raw)
	if err != nil {
		m.emit("malformed_token")
		return "", fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	row, err := m.store.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			m.emit("no_session")
			return "", ErrNoActiveSession
		}
		return "", fmt.Errorf("load session: %w", err)
	}

	if !m.tokens.TokenMatches(raw, row.TokenHash) {
		m.emit("token_mismatch")
		return "", ErrTokenMismatch
	}

	if row.ExpiredAt(m.now()) {
		err = m.store.Delete(ctx, claims.UserID)
		if err != nil {
			return "", fmt.Errorf("delete expired session: %w", err)
		}

		slog.DebugContext(ctx, "expired session removed", "user_id", claims.UserID)
		m.emit("expired")
		return "", ErrSessionExpired
	}

	m.emit("validated")

	return claims.UserID, nil
}

// Revoke removes the session for userID. Revoking an absent session is not an error.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	err := m.store.Delete(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	m.emit("revoked")

	return nil
}

func (m *Manager) emit(event string) {
	if m.obs != nil {
		m.obs.SessionEvent(event)
	}
}
