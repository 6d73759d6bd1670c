package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/placeshub/internal/domain/action"
	"github.com/gin-gonic/gin"
)

type ActionLister interface {
	List(ctx context.Context) ([]action.Action, error)
}

type ActionsHandler struct {
	actions ActionLister
	timeout time.Duration
}

func NewActionsHandler(actions ActionLister, timeout time.Duration) *ActionsHandler {
	return &ActionsHandler{actions: actions, timeout: timeout}
}

func (h *ActionsHandler) ListActions(ctx *gin.Context) {
	cctx, cancel := storeContext(ctx, h.timeout)
	defer cancel()

	list, err := h.actions.List(cctx)
	if err != nil {
		slog.ErrorContext(cctx, "list actions failed", "err", err)
		RespondInternal(ctx, "Could not list actions")
		return
	}

	// the catalog is static, let clients revalidate cheaply
	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"actions": list})
}
