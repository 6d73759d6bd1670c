package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/placeshub/internal/domain/user"
	"github.com/google/uuid"
)

type UsersRepo struct {
	mu         sync.RWMutex
	byID       map[string]user.User
	byUsername map[string]string
	byEmail    map[string]string
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		byID:       make(map[string]user.User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

func (r *UsersRepo) Create(_ context.Context, username, email, passwordHash string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// same precedence as the unique constraints checked by the credential store
	if _, ok := r.byUsername[username]; ok {
		return user.User{}, user.ErrUsernameTaken
	}

	if _, ok := r.byEmail[email]; ok {
		return user.User{}, user.ErrEmailTaken
	}

	u := user.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	r.byID[u.ID] = u
	r.byUsername[username] = u.ID
	r.byEmail[email] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByUsername(_ context.Context, username string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return r.byID[id], nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return r.byID[id], nil
}
