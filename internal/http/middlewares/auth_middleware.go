package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/placeshub/internal/actorctx"
	"github.com/geocoder89/placeshub/internal/session"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type SessionValidator interface {
	Validate(ctx context.Context, raw string) (string, error)
}

type AuthMiddleware struct {
	sessions SessionValidator
	timeout  time.Duration
}

// NewAuthMiddleware bounds each session lookup by timeout; zero means 3s.
func NewAuthMiddleware(sessions SessionValidator, timeout time.Duration) *AuthMiddleware {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &AuthMiddleware{sessions: sessions, timeout: timeout}
}

// RequireSession runs session validation ahead of a protected handler. On
// success the user id and raw token are available to the handler through
// UserIDFromContext / TokenFromContext and on the request context.
func (m *AuthMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := BearerToken(c.GetHeader("Authorization"))

		vctx, cancel := context.WithTimeout(c.Request.Context(), m.timeout)
		userID, err := m.sessions.Validate(vctx, raw)
		cancel()

		if err != nil {
			status, code, message := gateFailure(err)

			if status == http.StatusInternalServerError {
				slog.ErrorContext(c.Request.Context(), "session validation failed", "err", err)
			}

			c.AbortWithStatusJSON(status, gin.H{
				"error": gin.H{
					"code":      code,
					"message":   message,
					"requestId": c.GetString(CtxRequestID),
				},
			})
			return
		}

		// Stash useful bits of identity on the context
		c.Set(CtxUserID, userID)
		c.Set(CtxToken, raw)

		ctx := actorctx.WithUserID(c.Request.Context(), userID)
		ctx = actorctx.WithToken(ctx, raw)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// BearerToken extracts the token from an Authorization header value.
// Anything other than "Bearer <token>" yields "".
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}

func gateFailure(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, session.ErrMissingToken):
		return http.StatusUnauthorized, "missing_token", "Access denied"
	case errors.Is(err, session.ErrMalformedToken):
		return http.StatusBadRequest, "invalid_token", "Invalid token"
	case errors.Is(err, session.ErrNoActiveSession), errors.Is(err, session.ErrTokenMismatch):
		return http.StatusUnauthorized, "invalid_token", "Invalid token"
	case errors.Is(err, session.ErrSessionExpired):
		return http.StatusUnauthorized, "session_expired", "Session has expired. Please log in again."
	default:
		return http.StatusInternalServerError, "internal_error", "Could not validate session"
	}
}

// Optional helpers so handlers don’t need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func TokenFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxToken)
	if !ok {
		return "", false
	}
	raw, ok := v.(string)
	return raw, ok && raw != ""
}
