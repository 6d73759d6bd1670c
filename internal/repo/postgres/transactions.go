package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/geocoder89/placeshub/internal/domain/transaction"
	"github.com/geocoder89/placeshub/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TransactionsRepo struct {
	pool *pgxpool.Pool
	observer
}

func NewTransactionsRepo(pool *pgxpool.Pool, prom *observability.Prom) *TransactionsRepo {
	return &TransactionsRepo{pool: pool, observer: observer{prom: prom}}
}

func (r *TransactionsRepo) Insert(ctx context.Context, in transaction.NewTransaction) (transaction.Transaction, error) {
	t := transaction.Transaction{
		UserID:   in.UserID,
		ActionID: in.ActionID,
		Data:     in.Data,
	}

	// a nil RawMessage must reach the driver as NULL, not as the bytes "null"
	var data any
	if in.Data != nil {
		data = string(in.Data)
	}

	err := r.observe("transactions.insert", func() error {
		return r.pool.QueryRow(ctx, `
			WITH inserted AS (
				INSERT INTO transactions (user_id, action_id, data)
				VALUES ($1, $2, $3::jsonb)
				RETURNING id, action_id, created_at
			)
			SELECT i.id, a.name, i.created_at
			FROM inserted i
			INNER JOIN actions a ON a.id = i.action_id
		`, in.UserID, in.ActionID, data).Scan(&t.ID, &t.ActionName, &t.CreatedAt)
	})

	if err != nil {
		return transaction.Transaction{}, err
	}

	return t, nil
}

// List builds the WHERE clause from whichever filters are set.
func (r *TransactionsRepo) List(ctx context.Context, f transaction.Filter) ([]transaction.Transaction, error) {
	baseQuery := `
		SELECT t.id, t.user_id, t.action_id, a.name, t.data, t.created_at
		FROM transactions t
		INNER JOIN actions a ON t.action_id = a.id
	`

	var conds []string
	var args []interface{}

	argsPosition := 1

	if f.UserID != nil {
		conds = append(conds, fmt.Sprintf("t.user_id = $%d", argsPosition))
		args = append(args, *f.UserID)
		argsPosition++
	}

	if f.ActionID != nil {
		conds = append(conds, fmt.Sprintf("t.action_id = $%d", argsPosition))
		args = append(args, *f.ActionID)
		argsPosition++
	}

	if f.From != nil {
		conds = append(conds, fmt.Sprintf("t.created_at >= $%d", argsPosition))
		args = append(args, *f.From)
		argsPosition++
	}

	if f.To != nil {
		conds = append(conds, fmt.Sprintf("t.created_at <= $%d", argsPosition))
		args = append(args, *f.To)
		argsPosition++
	}

	query := baseQuery

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY t.created_at DESC, t.id DESC"

	output := make([]transaction.Transaction, 0)

	err := r.observe("transactions.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var t transaction.Transaction
			var data []byte

			err = rows.Scan(&t.ID, &t.UserID, &t.ActionID, &t.ActionName, &data, &t.CreatedAt)
			if err != nil {
				return err
			}

			if data != nil {
				t.Data = data
			}

			output = append(output, t)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return output, nil
}
