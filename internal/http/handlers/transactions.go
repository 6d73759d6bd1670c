package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/placeshub/internal/domain/action"
	"github.com/geocoder89/placeshub/internal/domain/transaction"
	"github.com/geocoder89/placeshub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

const dateOnly = "2006-01-02"

var errBadDate = errors.New("must be RFC3339 or YYYY-MM-DD")

type TransactionQuerier interface {
	Query(ctx context.Context, f transaction.Filter) ([]transaction.Transaction, error)
	AuditRecorder
}

type TransactionsHandler struct {
	audit   TransactionQuerier
	timeout time.Duration
}

func NewTransactionsHandler(audit TransactionQuerier, timeout time.Duration) *TransactionsHandler {
	return &TransactionsHandler{audit: audit, timeout: timeout}
}

type ListTransactionsQuery struct {
	UserID    string `form:"userId" binding:"omitempty,uuid"`
	ActionID  *int64 `form:"actionId" binding:"omitempty,min=1"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

// ToFilter turns the raw query into a store filter. Empty values mean no
// constraint on that field.
func (q ListTransactionsQuery) ToFilter() (transaction.Filter, error) {
	var f transaction.Filter

	if q.UserID != "" {
		id := q.UserID
		f.UserID = &id
	}

	f.ActionID = q.ActionID

	from, err := parseDate(q.StartDate)
	if err != nil {
		return transaction.Filter{}, err
	}
	f.From = from

	to, err := parseDate(q.EndDate)
	if err != nil {
		return transaction.Filter{}, err
	}
	f.To = to

	return f, nil
}

// parseDate accepts RFC3339 timestamps and bare dates. A bare date is
// midnight UTC of that day.
func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	for _, layout := range []string{time.RFC3339Nano, dateOnly} {
		t, err := time.Parse(layout, raw)
		if err == nil {
			t = t.UTC()
			return &t, nil
		}
	}

	return nil, errBadDate
}

func (h *TransactionsHandler) ListTransactions(ctx *gin.Context) {
	var q ListTransactionsQuery

	if !BindQuery(ctx, &q) {
		return
	}

	filter, err := q.ToFilter()
	if err != nil {
		RespondBadRequest(ctx, "Invalid query parameters", gin.H{"reason": "startDate and endDate " + err.Error()})
		return
	}

	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := storeContext(ctx, h.timeout)
	defer cancel()

	txs, err := h.audit.Query(cctx, filter)
	if err != nil {
		slog.ErrorContext(cctx, "query transactions failed", "err", err)
		RespondInternal(ctx, "Internal server error")
		return
	}

	// the read itself is audited, with what was returned
	_, err = h.audit.RecordByName(cctx, userID, action.GetTransaction, txs)
	if err != nil {
		slog.ErrorContext(cctx, "record transaction read failed", "err", err)
		RespondInternal(ctx, "Internal server error")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"transactions": txs})
}
