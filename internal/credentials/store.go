package credentials

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/geocoder89/placeshub/internal/domain/user"
	"github.com/geocoder89/placeshub/internal/security"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 6
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// InputError carries the client-facing reason for an ErrInvalidInput.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Unwrap() error { return ErrInvalidInput }

type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, username, email, passwordHash string) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) error
}

type Store struct {
	users  UserRepository
	hasher PasswordHasher
}

func NewStore(users UserRepository, hasher PasswordHasher) *Store {
	if hasher == nil {
		hasher = security.DefaultHasher()
	}
	return &Store{users: users, hasher: hasher}
}

func ValidateRegistration(username, email, password string) error {
	if username == "" || email == "" || password == "" {
		return &InputError{Message: "Username, email, and password are required"}
	}

	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return &InputError{Message: fmt.Sprintf("Username must be between %d and %d characters long", minUsernameLen, maxUsernameLen)}
	}

	if !emailPattern.MatchString(email) {
		return &InputError{Message: "Invalid email address"}
	}

	if utf8.RuneCountInString(password) < minPasswordLen {
		return &InputError{Message: fmt.Sprintf("Password must be at least %d characters long", minPasswordLen)}
	}

	return nil
}

// Register validates and persists a new user. Username uniqueness is checked
// before email uniqueness.
func (s *Store) Register(ctx context.Context, username, email, password string) (user.User, error) {
	if err := ValidateRegistration(username, email, password); err != nil {
		return user.User{}, err
	}

	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return user.User{}, ErrDuplicateUsername
	}
	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, fmt.Errorf("lookup username: %w", err)
	}

	_, err = s.users.GetByEmail(ctx, email)
	if err == nil {
		return user.User{}, ErrDuplicateEmail
	}
	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.Create(ctx, username, email, hash)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUsernameTaken):
			return user.User{}, ErrDuplicateUsername
		case errors.Is(err, user.ErrEmailTaken):
			return user.User{}, ErrDuplicateEmail
		}
		return user.User{}, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

// Lookup finds a user by username. Unknown users yield ErrInvalidCredentials.
func (s *Store) Lookup(ctx context.Context, username string) (user.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrInvalidCredentials
		}
		return user.User{}, fmt.Errorf("lookup username: %w", err)
	}

	return u, nil
}

// CheckPassword compares password against u's stored hash.
func (s *Store) CheckPassword(u user.User, password string) error {
	err := s.hasher.Verify(u.PasswordHash, password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return ErrInvalidCredentials
		}
		// a corrupt hash is still a failed login from the caller's view
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	return nil
}

// Verify returns the user when username and password match. Unknown user and
// wrong password are the same error.
func (s *Store) Verify(ctx context.Context, username, password string) (user.User, error) {
	u, err := s.Lookup(ctx, username)
	if err != nil {
		return user.User{}, err
	}

	if err := s.CheckPassword(u, password); err != nil {
		return user.User{}, err
	}

	return u, nil
}
