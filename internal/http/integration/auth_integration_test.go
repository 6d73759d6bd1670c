package integration__test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/placeshub/internal/actions"
	"github.com/geocoder89/placeshub/internal/audit"
	"github.com/geocoder89/placeshub/internal/auth"
	"github.com/geocoder89/placeshub/internal/credentials"
	"github.com/geocoder89/placeshub/internal/db"
	apphttp "github.com/geocoder89/placeshub/internal/http"
	"github.com/geocoder89/placeshub/internal/http/handlers"
	"github.com/geocoder89/placeshub/internal/observability"
	"github.com/geocoder89/placeshub/internal/places"
	"github.com/geocoder89/placeshub/internal/repo/postgres"
	"github.com/geocoder89/placeshub/internal/security"
	"github.com/geocoder89/placeshub/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
)

type stack struct {
	router   http.Handler
	pool     *pgxpool.Pool
	sessions *session.Manager
	users    *postgres.UsersRepo
}

// setupStack runs against a real database; set TEST_DB_DSN to enable.
func setupStack(t *testing.T) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()

	if err := db.Migrate(ctx, dsn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.EnsureActions(ctx, pool); err != nil {
		t.Fatalf("seed actions: %v", err)
	}

	prom := observability.NewProm(prometheus.NewRegistry())

	users := postgres.NewUsersRepo(pool, prom)
	tokens := auth.NewManager("test-secret-key", time.Hour)
	sessions := session.NewManager(postgres.NewSessionsRepo(pool, prom), tokens, time.Hour, session.WithObserver(prom))
	registry := actions.NewRegistry(postgres.NewActionsRepo(pool, prom), time.Minute)
	auditLog := audit.NewLog(postgres.NewTransactionsRepo(pool, prom), registry)

	router := apphttp.NewRouter(apphttp.Deps{
		Env:          "test",
		Credentials:  credentials.NewStore(users, security.NewHasher(bcrypt.MinCost)),
		Sessions:     sessions,
		Audit:        auditLog,
		Actions:      registry,
		Places:       places.NewClient("http://127.0.0.1:1", "unused", nil),
		Prom:         prom,
		Pings:        map[string]handlers.PingFunc{"postgres": func() error { return pool.Ping(context.Background()) }},
		MaxBodyBytes: 1 << 20,
		StoreTimeout: 3 * time.Second,
	})

	s := &stack{router: router, pool: pool, sessions: sessions, users: users}
	resetDB(t, pool)
	t.Cleanup(func() { resetDB(t, pool) })

	return s
}

func resetDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `TRUNCATE transactions, sessions, users CASCADE`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

func doRequest(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestAuthIntegration_Register_Login_Transactions_Logout(t *testing.T) {
	s := setupStack(t)

	w := doRequest(s.router, http.MethodPost, "/api/register", "", `{"username":"alice","email":"alice@example.com","password":"secret1"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register got status %d, body=%s", w.Code, w.Body.String())
	}

	w = doRequest(s.router, http.MethodPost, "/api/register", "", `{"username":"alice","email":"bob@example.com","password":"secret1"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register got status %d, body=%s", w.Code, w.Body.String())
	}

	w = doRequest(s.router, http.MethodPost, "/api/login", "", `{"username":"alice","password":"secret1"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("login got status %d, body=%s", w.Code, w.Body.String())
	}

	var tok struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &tok); err != nil || tok.Token == "" {
		t.Fatalf("login body %s: %v", w.Body.String(), err)
	}

	w = doRequest(s.router, http.MethodGet, "/api/transactions?startDate=2000-01-01", tok.Token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("transactions got status %d, body=%s", w.Code, w.Body.String())
	}

	var list struct {
		Transactions []struct {
			Action string          `json:"action"`
			Data   json.RawMessage `json:"data"`
		} `json:"transactions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("transactions body: %v", err)
	}
	if len(list.Transactions) != 1 || list.Transactions[0].Action != "User Login" || string(list.Transactions[0].Data) != "null" {
		t.Fatalf("unexpected transactions %s", w.Body.String())
	}

	w = doRequest(s.router, http.MethodPost, "/api/logout", tok.Token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("logout got status %d, body=%s", w.Code, w.Body.String())
	}

	w = doRequest(s.router, http.MethodGet, "/api/transactions", tok.Token, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("after logout got status %d, body=%s", w.Code, w.Body.String())
	}
}

func TestSessionIntegration_ConcurrentIssueYieldsOneSession(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()

	hash, err := security.NewHasher(bcrypt.MinCost).Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	u, err := s.users.Create(ctx, "racer", "racer@example.com", hash)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	const attempts = 8

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		issued  int
		refused int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := s.sessions.Issue(ctx, u.ID)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				issued++
			case errors.Is(err, session.ErrSessionAlreadyActive):
				refused++
			default:
				t.Errorf("unexpected issue error: %v", err)
			}
		}()
	}
	wg.Wait()

	if issued != 1 || refused != attempts-1 {
		t.Fatalf("issued=%d refused=%d, want exactly one winner", issued, refused)
	}
}
