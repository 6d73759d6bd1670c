// Command migrate applies the schema and seeds the action catalog, then exits.
// The API runs the same steps on boot; this is for deploy pipelines that
// migrate ahead of rollout.
package main

import (
	"os"
	"time"

	"github.com/geocoder89/placeshub/internal/config"
	"github.com/geocoder89/placeshub/internal/db"
	"github.com/geocoder89/placeshub/internal/observability"
)

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	if cfg.DBURL == "" {
		log.Error("no database configured")
		os.Exit(1)
	}

	ctx, cancel := config.WithTimeout(60 * time.Second)
	defer cancel()

	if err := db.Migrate(ctx, cfg.DBURL); err != nil {
		log.Error("migrate failed", "err", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(ctx, cfg.DBURL, 1)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.EnsureActions(ctx, pool); err != nil {
		log.Error("seed actions failed", "err", err)
		os.Exit(1)
	}

	log.Info("migrations applied")
}
