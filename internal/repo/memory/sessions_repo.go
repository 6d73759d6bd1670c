package memory

import (
	"context"
	"sync"

	"github.com/geocoder89/placeshub/internal/session"
)

type SessionsRepo struct {
	mu    sync.RWMutex
	items map[string]session.Session // keyed by user id
}

func NewSessionsRepo() *SessionsRepo {
	return &SessionsRepo{
		items: make(map[string]session.Session),
	}
}

func (r *SessionsRepo) Get(_ context.Context, userID string) (session.Session, error) {
	r.mu.RLock()
	s, ok := r.items[userID]
	r.mu.RUnlock()

	if !ok {
		return session.Session{}, session.ErrNotFound
	}

	return s, nil
}

// Create is insert-if-absent under the write lock.
func (r *SessionsRepo) Create(_ context.Context, s session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[s.UserID]; ok {
		return session.ErrAlreadyExists
	}

	r.items[s.UserID] = s

	return nil
}

func (r *SessionsRepo) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	delete(r.items, userID)
	r.mu.Unlock()

	return nil
}

// Put overwrites the row for s.UserID. Tests use it to plant expired or forged sessions.
func (r *SessionsRepo) Put(s session.Session) {
	r.mu.Lock()
	r.items[s.UserID] = s
	r.mu.Unlock()
}

func (r *SessionsRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}
