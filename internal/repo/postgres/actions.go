package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/placeshub/internal/domain/action"
	"github.com/geocoder89/placeshub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ActionsRepo struct {
	pool *pgxpool.Pool
	observer
}

func NewActionsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ActionsRepo {
	return &ActionsRepo{pool: pool, observer: observer{prom: prom}}
}

func (r *ActionsRepo) GetByName(ctx context.Context, name string) (action.Action, error) {
	var a action.Action

	err := r.observe("actions.get_by_name", func() error {
		return r.pool.QueryRow(ctx, `SELECT id, name FROM actions WHERE name = $1`, name).Scan(&a.ID, &a.Name)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return action.Action{}, action.ErrNotFound
		}
		return action.Action{}, err
	}

	return a, nil
}

func (r *ActionsRepo) List(ctx context.Context) ([]action.Action, error) {
	var out []action.Action

	err := r.observe("actions.list", func() error {
		rows, err := r.pool.Query(ctx, `SELECT id, name FROM actions ORDER BY id ASC`)
		if err != nil {
			return err
		}

		out, err = pgx.CollectRows(rows, pgx.RowToStructByPos[action.Action])
		return err
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}
