package db

import (
	"context"

	"github.com/geocoder89/placeshub/internal/domain/action"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureActions inserts any catalog action that is missing. Existing rows are left alone.
func EnsureActions(ctx context.Context, pool *pgxpool.Pool) error {
	for _, a := range action.Catalog {
		_, err := pool.Exec(ctx,
			`INSERT INTO actions (id, name) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			a.ID, a.Name,
		)

		if err != nil {
			return err
		}
	}

	return nil
}
