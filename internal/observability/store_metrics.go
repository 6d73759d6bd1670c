package observability

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

// ObserveStore times fn as one logical store operation on backend.
// Misses (no row, no key) are ordinary results and count as ok.
func (p *Prom) ObserveStore(backend, op string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := "ok"

	if err != nil && !isMiss(err) {
		status = "error"
		p.DbErrorsTotal.WithLabelValues(backend, op, ClassifyStoreErr(err)).Inc()
	}

	p.DbQueryDuration.WithLabelValues(backend, op, status).Observe(time.Since(start).Seconds())

	return err
}

func isMiss(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, redis.Nil)
}

// ClassifyStoreErr buckets err into a low cardinality label.
func ClassifyStoreErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return "unique_violation"
		case "23503":
			return "foreign_key_violation"
		case "40001":
			return "serialization_failure"
		case "40P01":
			return "deadlock"
		case "57014":
			return "query_canceled"
		}

		// SQLSTATE class, e.g. 08 for connection exceptions
		if len(pgErr.Code) >= 2 {
			return "pg_class_" + pgErr.Code[:2]
		}
		return "pg_unknown"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}

	if errors.Is(err, context.Canceled) {
		return "canceled"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "timeout"
		}
		return "connection"
	}

	return "unknown"
}
