package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/geocoder89/placeshub/internal/domain/action"
)

type ActionsRepo struct {
	mu     sync.RWMutex
	byName map[string]action.Action

	// lookups counts GetByName calls, read by cache tests
	lookups int
}

// NewActionsRepo returns a repo seeded with action.Catalog.
func NewActionsRepo() *ActionsRepo {
	r := &ActionsRepo{byName: make(map[string]action.Action)}

	for _, a := range action.Catalog {
		r.byName[a.Name] = a
	}

	return r
}

func (r *ActionsRepo) GetByName(_ context.Context, name string) (action.Action, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lookups++

	a, ok := r.byName[name]
	if !ok {
		return action.Action{}, action.ErrNotFound
	}

	return a, nil
}

func (r *ActionsRepo) List(_ context.Context) ([]action.Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]action.Action, 0, len(r.byName))
	for _, a := range r.byName {
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *ActionsRepo) Lookups() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lookups
}
