package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/placeshub/internal/actions"
	"github.com/geocoder89/placeshub/internal/audit"
	"github.com/geocoder89/placeshub/internal/auth"
	"github.com/geocoder89/placeshub/internal/config"
	"github.com/geocoder89/placeshub/internal/credentials"
	"github.com/geocoder89/placeshub/internal/db"
	httpx "github.com/geocoder89/placeshub/internal/http"
	"github.com/geocoder89/placeshub/internal/http/handlers"
	"github.com/geocoder89/placeshub/internal/observability"
	"github.com/geocoder89/placeshub/internal/places"
	"github.com/geocoder89/placeshub/internal/redisclient"
	"github.com/geocoder89/placeshub/internal/repo/memory"
	"github.com/geocoder89/placeshub/internal/repo/postgres"
	"github.com/geocoder89/placeshub/internal/repo/redisstore"
	"github.com/geocoder89/placeshub/internal/retry"
	"github.com/geocoder89/placeshub/internal/security"
	"github.com/geocoder89/placeshub/internal/session"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const actionCacheTTL = 10 * time.Minute

// stores is the persistence picked by STORE_DRIVER / SESSION_STORE.
type stores struct {
	users        credentials.UserRepository
	sessions     session.Store
	actions      actions.Repository
	transactions audit.Repository

	pings   map[string]handlers.PingFunc
	closers []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	if err := cfg.Validate(); err != nil {
		log.Error("config invalid", "err", err)
		os.Exit(1)
	}

	ctx, cancel := config.WithTimeout(15 * time.Second)
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		Enabled:     cfg.OTelEnabled,
		ServiceName: "placeshub",
		Env:         cfg.Env,
		Endpoint:    cfg.OTelEndpoint,
		SampleRatio: cfg.OTelSampleRatio,
	})
	cancel()

	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	st, err := openStores(cfg, prom)
	if err != nil {
		log.Error("store setup failed", "err", err, "store_driver", cfg.StoreDriver, "session_store", cfg.SessionStore)
		os.Exit(1)
	}
	defer st.close()

	tokens := auth.NewManager(cfg.JWTSecret, cfg.SessionTTL())
	sessions := session.NewManager(st.sessions, tokens, cfg.SessionTTL(), session.WithObserver(prom))
	registry := actions.NewRegistry(st.actions, actionCacheTTL)

	if cfg.PlacesAPIKey == "" {
		log.Warn("PLACES_API_KEY is empty, nearby search will be rejected upstream")
	}

	var shuttingDown atomic.Bool

	// set up routers with the wired services
	router := httpx.NewRouter(httpx.Deps{
		Env:                cfg.Env,
		Credentials:        credentials.NewStore(st.users, security.DefaultHasher()),
		Sessions:           sessions,
		Audit:              audit.NewLog(st.transactions, registry),
		Actions:            registry,
		Places:             places.NewClient(cfg.PlacesBaseURL, cfg.PlacesAPIKey, nil),
		Prom:               prom,
		Pings:              st.pings,
		ShuttingDown:       shuttingDown.Load,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		MaxBodyBytes:       cfg.MaxBodyBytes,
		StoreTimeout:       cfg.RequestTimeout(),
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store_driver", cfg.StoreDriver, "session_store", cfg.SessionStore)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")
	shuttingDown.Store(true)

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)
		if err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		err = shutdownTracer(ctx)
		if err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

func openStores(cfg config.Config, prom *observability.Prom) (*stores, error) {
	st := &stores{pings: map[string]handlers.PingFunc{}}

	var pool *pgxpool.Pool

	if cfg.StoreDriver == "postgres" || cfg.SessionStore == "postgres" {
		ctx, cancel := config.WithTimeout(60 * time.Second)
		defer cancel()

		// postgres may still be booting next to us
		err := retry.Startup.Do(ctx, "postgres", func(ctx context.Context) error {
			var err error
			pool, err = db.NewPool(ctx, cfg.DBURL, cfg.DBMaxConns)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		err = db.Migrate(ctx, cfg.DBURL)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		st.closers = append(st.closers, pool.Close)

		err = db.EnsureActions(ctx, pool)
		if err != nil {
			st.close()
			return nil, fmt.Errorf("seed actions: %w", err)
		}

		st.pings["postgres"] = pingWith(func(ctx context.Context) error { return pool.Ping(ctx) })
	}

	switch cfg.StoreDriver {
	case "postgres":
		st.users = postgres.NewUsersRepo(pool, prom)
		st.actions = postgres.NewActionsRepo(pool, prom)
		st.transactions = postgres.NewTransactionsRepo(pool, prom)
	default:
		slog.Warn("using in-memory stores, data is lost on restart")
		st.users = memory.NewUsersRepo()
		st.actions = memory.NewActionsRepo()
		st.transactions = memory.NewTransactionsRepo()
	}

	switch cfg.SessionStore {
	case "postgres":
		st.sessions = postgres.NewSessionsRepo(pool, prom)
	case "redis":
		ctx, cancel := config.WithTimeout(60 * time.Second)
		defer cancel()

		var rdb *redis.Client

		err := retry.Startup.Do(ctx, "redis", func(ctx context.Context) error {
			var err error
			rdb, err = redisclient.Connect(ctx, redisclient.Config{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			return err
		})
		if err != nil {
			st.close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		st.closers = append(st.closers, func() { _ = rdb.Close() })

		st.sessions = redisstore.NewSessionsStore(rdb, "placeshub", redisstore.DefaultGrace).WithMetrics(prom)
		st.pings["redis"] = pingWith(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	default:
		st.sessions = memory.NewSessionsRepo()
	}

	return st, nil
}

func pingWith(fn func(ctx context.Context) error) handlers.PingFunc {
	return func() error {
		ctx, cancel := config.WithTimeout(time.Second)
		defer cancel()

		return fn(ctx)
	}
}
