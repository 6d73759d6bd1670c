package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/placeshub/internal/observability"
	"github.com/geocoder89/placeshub/internal/session"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionsRepo struct {
	pool *pgxpool.Pool
	observer
}

func NewSessionsRepo(pool *pgxpool.Pool, prom *observability.Prom) *SessionsRepo {
	return &SessionsRepo{pool: pool, observer: observer{prom: prom}}
}

func (r *SessionsRepo) Get(ctx context.Context, userID string) (session.Session, error) {
	var s session.Session

	err := r.observe("sessions.get", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT user_id, token_hash, expires_at, created_at
			FROM sessions
			WHERE user_id = $1
		`, userID).Scan(&s.UserID, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, err
	}

	return s, nil
}

// Create inserts only when the user has no row, so two racing logins cannot
// both succeed.
func (r *SessionsRepo) Create(ctx context.Context, s session.Session) error {
	var inserted int64

	err := r.observe("sessions.create", func() error {
		tag, err := r.pool.Exec(ctx, `
			INSERT INTO sessions (user_id, token_hash, expires_at, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id) DO NOTHING
		`, s.UserID, s.TokenHash, s.ExpiresAt, s.CreatedAt)

		inserted = tag.RowsAffected()
		return err
	})

	if err != nil {
		return err
	}

	if inserted == 0 {
		return session.ErrAlreadyExists
	}

	return nil
}

func (r *SessionsRepo) Delete(ctx context.Context, userID string) error {
	return r.observe("sessions.delete", func() error {
		_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
		return err
	})
}
