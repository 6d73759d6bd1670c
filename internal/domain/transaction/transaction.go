package transaction

import (
	"encoding/json"
	"time"
)

// Transaction is an immutable audit record.
// Data is nil when the event carried no payload.
type Transaction struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	ActionID   int64           `json:"actionId"`
	ActionName string          `json:"action"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// with pointers if optional, it will be nil
type Filter struct {
	UserID   *string
	ActionID *int64
	From     *time.Time
	To       *time.Time
}

type NewTransaction struct {
	UserID   string
	ActionID int64
	Data     json.RawMessage
}
