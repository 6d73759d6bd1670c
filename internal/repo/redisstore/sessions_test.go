package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/geocoder89/placeshub/internal/auth"
	"github.com/geocoder89/placeshub/internal/observability"
	"github.com/geocoder89/placeshub/internal/repo/redisstore"
	"github.com/geocoder89/placeshub/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*redisstore.SessionsStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	return redisstore.NewSessionsStore(rdb, "test", time.Hour), mr
}

func TestSessionsStore_CRUD(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "user-1")
	require.ErrorIs(t, err, session.ErrNotFound)

	row := session.Session{
		UserID:    "user-1",
		TokenHash: "abc123",
		ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	require.NoError(t, store.Create(ctx, row))
	require.True(t, mr.Exists("test:session:user-1"))

	got, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, row.TokenHash, got.TokenHash)
	require.True(t, row.ExpiresAt.Equal(got.ExpiresAt))

	err = store.Create(ctx, row)
	require.ErrorIs(t, err, session.ErrAlreadyExists)

	require.NoError(t, store.Delete(ctx, "user-1"))
	require.NoError(t, store.Delete(ctx, "user-1"))

	_, err = store.Get(ctx, "user-1")
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestSessionsStore_KeyOutlivesExpiryByGrace(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	row := session.Session{UserID: "user-1", TokenHash: "h", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Create(ctx, row))

	ttl := mr.TTL("test:session:user-1")
	require.Greater(t, ttl, time.Hour+55*time.Minute)
	require.LessOrEqual(t, ttl, 2*time.Hour)
}

func TestSessionsStore_WithManagerReportsExpiry(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	now := time.Now()
	clock := func() time.Time { return now }

	tokens := auth.NewManager("test-secret-key", time.Hour).WithClock(clock)
	m := session.NewManager(store, tokens, time.Hour, session.WithClock(clock))

	raw, err := m.Issue(ctx, "user-1")
	require.NoError(t, err)

	_, err = m.Issue(ctx, "user-1")
	require.ErrorIs(t, err, session.ErrSessionAlreadyActive)

	userID, err := m.Validate(ctx, raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)

	// past the session expiry but inside the key grace window
	now = now.Add(90 * time.Minute)

	_, err = m.Validate(ctx, raw)
	require.ErrorIs(t, err, session.ErrSessionExpired)

	_, err = m.Validate(ctx, raw)
	require.ErrorIs(t, err, session.ErrNoActiveSession)
}

func TestSessionsStore_ReportsMetrics(t *testing.T) {
	store, mr := newStore(t)
	prom := observability.NewProm(prometheus.NewRegistry())
	store.WithMetrics(prom)
	ctx := context.Background()

	_, err := store.Get(ctx, "user-1")
	require.ErrorIs(t, err, session.ErrNotFound)
	require.Equal(t, 0, testutil.CollectAndCount(prom.DbErrorsTotal), "a miss is not an error")

	mr.SetError("ERR injected")

	_, err = store.Get(ctx, "user-1")
	require.Error(t, err)
	require.NotErrorIs(t, err, session.ErrNotFound)
	require.Equal(t, float64(1), testutil.ToFloat64(prom.DbErrorsTotal.WithLabelValues("redis", "sessions.get", "unknown")))
}
