package session

import (
	"errors"
	"time"
)

// Store-level errors, distinct from the validation outcomes in manager.go.
var (
	ErrNotFound      = errors.New("session not found")
	ErrAlreadyExists = errors.New("session already exists")
)

// Session is the server-side record of the single active login of a user.
// TokenHash is a keyed hash of the issued token, the raw token is never stored.
type Session struct {
	UserID    string    `json:"userId"`
	TokenHash string    `json:"tokenHash"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s Session) ExpiredAt(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
