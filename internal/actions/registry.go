package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/placeshub/internal/cache"
	"github.com/geocoder89/placeshub/internal/domain/action"
)

var ErrUnknownAction = errors.New("unknown action")

type Repository interface {
	GetByName(ctx context.Context, name string) (action.Action, error)
	List(ctx context.Context) ([]action.Action, error)
}

// Registry resolves catalog names to stable action ids.
type Registry struct {
	repo  Repository
	cache *cache.Cache[string, int64]
}

// NewRegistry caches resolved ids for ttl. Catalog rows never change, so the
// ttl only bounds memory held for names that are no longer asked for.
func NewRegistry(repo Repository, ttl time.Duration) *Registry {
	return &Registry{
		repo:  repo,
		cache: cache.New[string, int64](ttl),
	}
}

func (r *Registry) IDByName(ctx context.Context, name string) (int64, error) {
	if id, ok := r.cache.Get(name); ok {
		return id, nil
	}

	a, err := r.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, action.ErrNotFound) {
			return 0, fmt.Errorf("%w: %q", ErrUnknownAction, name)
		}
		return 0, fmt.Errorf("lookup action %q: %w", name, err)
	}

	r.cache.Set(name, a.ID)

	return a.ID, nil
}

func (r *Registry) List(ctx context.Context) ([]action.Action, error) {
	return r.repo.List(ctx)
}
