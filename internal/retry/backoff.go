// Package retry retries startup dependencies (postgres, redis) that may come
// up after the API does.
package retry

import (
	"context"
	"log/slog"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

type Policy struct {
	Attempts int
	Base     time.Duration
	Cap      time.Duration
	// Jitter is applied as +/- Jitter around each wait.
	Jitter time.Duration
}

// Startup is tuned for container boot ordering: about half a minute total.
var Startup = Policy{Attempts: 6, Base: 500 * time.Millisecond, Cap: 8 * time.Second, Jitter: 250 * time.Millisecond}

// Backoff yields Base*2^n capped at Cap, Attempts-1 times.
func (p Policy) Backoff() goretry.Backoff {
	b := goretry.NewExponential(p.Base)

	if p.Jitter > 0 {
		b = goretry.WithJitter(p.Jitter, b)
	}

	b = goretry.WithCappedDuration(p.Cap, b)

	retries := p.Attempts - 1
	if retries < 0 {
		retries = 0
	}

	return goretry.WithMaxRetries(uint64(retries), b)
}

// Do calls fn until it succeeds, attempts run out or ctx is done. The last
// error from fn is returned.
func (p Policy) Do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	attempt := 0

	return goretry.Do(ctx, p.Backoff(), func(ctx context.Context) error {
		attempt++

		err := fn(ctx)
		if err == nil {
			return nil
		}

		if attempt < p.Attempts {
			slog.WarnContext(ctx, "dependency not ready, retrying", "dependency", name, "attempt", attempt, "err", err)
		}

		return goretry.RetryableError(err)
	})
}
