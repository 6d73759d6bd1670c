package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultStoreTimeout = 3 * time.Second

// storeContext bounds store calls made on behalf of a request. It keeps the
// request's values (trace span, actor) so downstream logs stay correlated.
func storeContext(ctx *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultStoreTimeout
	}

	return context.WithTimeout(ctx.Request.Context(), d)
}
