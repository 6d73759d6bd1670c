package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/geocoder89/placeshub/internal/domain/transaction"
)

type Repository interface {
	Insert(ctx context.Context, in transaction.NewTransaction) (transaction.Transaction, error)
	List(ctx context.Context, f transaction.Filter) ([]transaction.Transaction, error)
}

// ActionResolver maps catalog names to action ids.
type ActionResolver interface {
	IDByName(ctx context.Context, name string) (int64, error)
}

// Log appends and reads audit transactions. Records are never updated or deleted.
type Log struct {
	repo    Repository
	actions ActionResolver
}

func NewLog(repo Repository, actions ActionResolver) *Log {
	return &Log{repo: repo, actions: actions}
}

// Record appends a transaction. A nil payload is stored as NULL, anything else
// as its JSON encoding. Failures are returned so the calling operation fails too.
func (l *Log) Record(ctx context.Context, userID string, actionID int64, payload any) (transaction.Transaction, error) {
	data, err := encodePayload(payload)
	if err != nil {
		return transaction.Transaction{}, err
	}

	t, err := l.repo.Insert(ctx, transaction.NewTransaction{
		UserID:   userID,
		ActionID: actionID,
		Data:     data,
	})
	if err != nil {
		return transaction.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}

	slog.DebugContext(ctx, "transaction recorded", "user_id", userID, "action_id", actionID, "transaction_id", t.ID)

	return t, nil
}

// RecordByName resolves actionName through the registry before recording.
func (l *Log) RecordByName(ctx context.Context, userID, actionName string, payload any) (transaction.Transaction, error) {
	id, err := l.actions.IDByName(ctx, actionName)
	if err != nil {
		return transaction.Transaction{}, err
	}

	return l.Record(ctx, userID, id, payload)
}

// Query returns matching transactions, newest first. No match is an empty slice.
func (l *Log) Query(ctx context.Context, f transaction.Filter) ([]transaction.Transaction, error) {
	out, err := l.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}

	if out == nil {
		out = []transaction.Transaction{}
	}

	return out, nil
}

// encodePayload returns nil for nil payloads, including typed nils such as a
// nil slice, so they are stored as NULL rather than the text "null".
func encodePayload(payload any) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode audit payload: %w", err)
	}

	if string(b) == "null" {
		return nil, nil
	}

	return b, nil
}
