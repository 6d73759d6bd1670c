// Package redisstore keeps session rows in redis, one key per user.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/placeshub/internal/observability"
	"github.com/geocoder89/placeshub/internal/session"
	"github.com/redis/go-redis/v9"
)

// DefaultGrace keeps expired rows around long enough for Validate to report
// them as expired instead of absent.
const DefaultGrace = 24 * time.Hour

type SessionsStore struct {
	rdb    redis.UniversalClient
	prefix string
	grace  time.Duration
	now    func() time.Time
	prom   *observability.Prom
}

func NewSessionsStore(rdb redis.UniversalClient, prefix string, grace time.Duration) *SessionsStore {
	if prefix == "" {
		prefix = "placeshub"
	}

	if grace <= 0 {
		grace = DefaultGrace
	}

	return &SessionsStore{
		rdb:    rdb,
		prefix: prefix,
		grace:  grace,
		now:    time.Now,
	}
}

// WithMetrics reports every redis round trip to p.
func (s *SessionsStore) WithMetrics(p *observability.Prom) *SessionsStore {
	s.prom = p
	return s
}

func (s *SessionsStore) observe(op string, fn func() error) error {
	if s.prom == nil {
		return fn()
	}
	return s.prom.ObserveStore("redis", op, fn)
}

func (s *SessionsStore) key(userID string) string {
	return s.prefix + ":session:" + userID
}

func (s *SessionsStore) Get(ctx context.Context, userID string) (session.Session, error) {
	var raw []byte

	err := s.observe("sessions.get", func() error {
		var err error
		raw, err = s.rdb.Get(ctx, s.key(userID)).Bytes()
		return err
	})

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, err
	}

	var row session.Session

	if err := json.Unmarshal(raw, &row); err != nil {
		return session.Session{}, fmt.Errorf("decode session: %w", err)
	}

	return row, nil
}

// Create uses SETNX so only one login per user can land.
func (s *SessionsStore) Create(ctx context.Context, row session.Session) error {
	raw, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ttl := row.ExpiresAt.Sub(s.now()) + s.grace
	if ttl < s.grace {
		ttl = s.grace
	}

	var ok bool

	err = s.observe("sessions.create", func() error {
		var err error
		ok, err = s.rdb.SetNX(ctx, s.key(row.UserID), raw, ttl).Result()
		return err
	})
	if err != nil {
		return err
	}

	if !ok {
		return session.ErrAlreadyExists
	}

	return nil
}

func (s *SessionsStore) Delete(ctx context.Context, userID string) error {
	return s.observe("sessions.delete", func() error {
		return s.rdb.Del(ctx, s.key(userID)).Err()
	})
}
