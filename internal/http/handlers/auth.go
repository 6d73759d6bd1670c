package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/placeshub/internal/credentials"
	"github.com/geocoder89/placeshub/internal/domain/action"
	"github.com/geocoder89/placeshub/internal/domain/transaction"
	"github.com/geocoder89/placeshub/internal/domain/user"
	"github.com/geocoder89/placeshub/internal/http/middlewares"
	"github.com/geocoder89/placeshub/internal/session"
	"github.com/gin-gonic/gin"
)

type CredentialStore interface {
	Register(ctx context.Context, username, email, password string) (user.User, error)
	Lookup(ctx context.Context, username string) (user.User, error)
	CheckPassword(u user.User, password string) error
}

type SessionIssuer interface {
	Active(ctx context.Context, userID string) (bool, error)
	Issue(ctx context.Context, userID string) (string, error)
	Revoke(ctx context.Context, userID string) error
}

// AuditRecorder writes one transaction per audited operation. A failed write
// fails the request.
type AuditRecorder interface {
	RecordByName(ctx context.Context, userID, actionName string, payload any) (transaction.Transaction, error)
}

type AuthHandler struct {
	credentials CredentialStore
	sessions    SessionIssuer
	audit       AuditRecorder
	timeout     time.Duration
}

func NewAuthHandler(creds CredentialStore, sessions SessionIssuer, audit AuditRecorder, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		credentials: creds,
		sessions:    sessions,
		audit:       audit,
		timeout:     timeout,
	}
}

// field checks live in credentials.ValidateRegistration so each failure gets
// its own message
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := storeContext(ctx, h.timeout)
	defer cancel()

	u, err := h.credentials.Register(cctx, req.Username, req.Email, req.Password)
	if err != nil {
		var inputErr *credentials.InputError

		switch {
		case errors.As(err, &inputErr):
			RespondBadRequestCode(ctx, "invalid_input", inputErr.Message)
		case errors.Is(err, credentials.ErrDuplicateUsername):
			RespondBadRequestCode(ctx, "username_taken", "Username already exists")
		case errors.Is(err, credentials.ErrDuplicateEmail):
			RespondBadRequestCode(ctx, "email_taken", "Email already exists")
		default:
			slog.ErrorContext(cctx, "register failed", "err", err)
			RespondInternal(ctx, "Failed to create user")
		}
		return
	}

	ctx.JSON(http.StatusCreated, u)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := storeContext(ctx, h.timeout)
	defer cancel()

	u, err := h.credentials.Lookup(cctx, req.Username)
	if err != nil {
		h.loginFailure(ctx, err)
		return
	}

	// an open session short-circuits before the password is compared
	active, err := h.sessions.Active(cctx, u.ID)
	if err != nil {
		slog.ErrorContext(cctx, "session lookup failed", "err", err, "user_id", u.ID)
		RespondInternal(ctx, "Could not create session")
		return
	}

	if active {
		ctx.JSON(http.StatusOK, gin.H{"message": "Session already active"})
		return
	}

	err = h.credentials.CheckPassword(u, req.Password)
	if err != nil {
		h.loginFailure(ctx, err)
		return
	}

	token, err := h.sessions.Issue(cctx, u.ID)
	if err != nil {
		if errors.Is(err, session.ErrSessionAlreadyActive) {
			// lost a concurrent login race
			ctx.JSON(http.StatusOK, gin.H{"message": "Session already active"})
			return
		}

		slog.ErrorContext(cctx, "issue session failed", "err", err, "user_id", u.ID)
		RespondInternal(ctx, "Could not create session")
		return
	}

	_, err = h.audit.RecordByName(cctx, u.ID, action.UserLogin, nil)
	if err != nil {
		slog.ErrorContext(cctx, "record login failed", "err", err, "user_id", u.ID)
		RespondInternal(ctx, "Internal server error")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"token": token})
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "missing_token", "Access denied")
		return
	}

	cctx, cancel := storeContext(ctx, h.timeout)
	defer cancel()

	err := h.sessions.Revoke(cctx, userID)
	if err != nil {
		slog.ErrorContext(cctx, "revoke session failed", "err", err)
		RespondInternal(ctx, "Internal server error")
		return
	}

	_, err = h.audit.RecordByName(cctx, userID, action.UserLogout, nil)
	if err != nil {
		slog.ErrorContext(cctx, "record logout failed", "err", err)
		RespondInternal(ctx, "Internal server error")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *AuthHandler) loginFailure(ctx *gin.Context, err error) {
	if errors.Is(err, credentials.ErrInvalidCredentials) {
		RespondBadRequestCode(ctx, "invalid_credentials", "Invalid username or password")
		return
	}

	slog.ErrorContext(ctx.Request.Context(), "login failed", "err", err)
	RespondInternal(ctx, "Internal server error")
}
