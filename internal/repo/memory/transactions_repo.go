package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/placeshub/internal/domain/action"
	"github.com/geocoder89/placeshub/internal/domain/transaction"
	"github.com/google/uuid"
)

var ErrUnknownActionID = errors.New("unknown action id")

type TransactionsRepo struct {
	mu      sync.RWMutex
	items   []transaction.Transaction
	actions map[int64]string
	now     func() time.Time

	// FailInsert, when set, is returned by Insert. Used to exercise audit failure paths.
	FailInsert error
}

func NewTransactionsRepo() *TransactionsRepo {
	actions := make(map[int64]string, len(action.Catalog))
	for _, a := range action.Catalog {
		actions[a.ID] = a.Name
	}

	return &TransactionsRepo{
		actions: actions,
		now:     time.Now,
	}
}

// SetClock replaces the creation timestamp source.
func (r *TransactionsRepo) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

func (r *TransactionsRepo) Insert(_ context.Context, in transaction.NewTransaction) (transaction.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailInsert != nil {
		return transaction.Transaction{}, r.FailInsert
	}

	name, ok := r.actions[in.ActionID]
	if !ok {
		return transaction.Transaction{}, ErrUnknownActionID
	}

	t := transaction.Transaction{
		ID:         uuid.NewString(),
		UserID:     in.UserID,
		ActionID:   in.ActionID,
		ActionName: name,
		Data:       in.Data,
		CreatedAt:  r.now().UTC(),
	}

	r.items = append(r.items, t)

	return t, nil
}

func (r *TransactionsRepo) List(_ context.Context, f transaction.Filter) ([]transaction.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]transaction.Transaction, 0)

	// walk newest insert first so equal timestamps keep insertion recency
	for i := len(r.items) - 1; i >= 0; i-- {
		t := r.items[i]

		if f.UserID != nil && t.UserID != *f.UserID {
			continue
		}
		if f.ActionID != nil && t.ActionID != *f.ActionID {
			continue
		}
		if f.From != nil && t.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && t.CreatedAt.After(*f.To) {
			continue
		}
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	return out, nil
}

func (r *TransactionsRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
