package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PingFunc reports whether a backing store is reachable.
type PingFunc func() error

type HealthHandler struct {
	pings          map[string]PingFunc
	isShuttingDown func() bool
}

// NewHealthHandler takes one ping per dependency, keyed by a name used in the
// readiness body. Nil pings are skipped. isShuttingDown may be nil.
func NewHealthHandler(pings map[string]PingFunc, isShuttingDown func() bool) *HealthHandler {
	return &HealthHandler{pings: pings, isShuttingDown: isShuttingDown}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	// drain: stop taking traffic before the listener closes
	if h.isShuttingDown != nil && h.isShuttingDown() {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
		return
	}

	checks := make(map[string]string, len(h.pings))
	ready := true

	for name, ping := range h.pings {
		if ping == nil {
			continue
		}

		if err := ping(); err != nil {
			slog.WarnContext(ctx.Request.Context(), "readiness check failed", "dependency", name, "err", err)
			checks[name] = "down"
			ready = false
			continue
		}
		checks[name] = "up"
	}

	if !ready {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": checks})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}
