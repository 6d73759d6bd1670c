package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/geocoder89/placeshub/internal/domain/action"
	"github.com/geocoder89/placeshub/internal/domain/transaction"
	"github.com/geocoder89/placeshub/internal/domain/user"
	"github.com/geocoder89/placeshub/internal/http/middlewares"
	"github.com/geocoder89/placeshub/internal/places"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCredentials struct {
	registerFn func(ctx context.Context, username, email, password string) (user.User, error)
	lookupFn   func(ctx context.Context, username string) (user.User, error)
	checkFn    func(u user.User, password string) error
}

func (f *fakeCredentials) Register(ctx context.Context, username, email, password string) (user.User, error) {
	if f.registerFn != nil {
		return f.registerFn(ctx, username, email, password)
	}
	return user.User{}, nil
}

func (f *fakeCredentials) Lookup(ctx context.Context, username string) (user.User, error) {
	if f.lookupFn != nil {
		return f.lookupFn(ctx, username)
	}
	return user.User{ID: "user-1", Username: username}, nil
}

func (f *fakeCredentials) CheckPassword(u user.User, password string) error {
	if f.checkFn != nil {
		return f.checkFn(u, password)
	}
	return nil
}

type fakeSessions struct {
	activeFn func(ctx context.Context, userID string) (bool, error)
	issueFn  func(ctx context.Context, userID string) (string, error)
	revokeFn func(ctx context.Context, userID string) error

	issued  int
	revoked []string
}

func (f *fakeSessions) Active(ctx context.Context, userID string) (bool, error) {
	if f.activeFn != nil {
		return f.activeFn(ctx, userID)
	}
	return false, nil
}

func (f *fakeSessions) Issue(ctx context.Context, userID string) (string, error) {
	f.issued++
	if f.issueFn != nil {
		return f.issueFn(ctx, userID)
	}
	return "token-for-" + userID, nil
}

func (f *fakeSessions) Revoke(ctx context.Context, userID string) error {
	f.revoked = append(f.revoked, userID)
	if f.revokeFn != nil {
		return f.revokeFn(ctx, userID)
	}
	return nil
}

type recorded struct {
	userID  string
	action  string
	payload any
}

type fakeAudit struct {
	recordFn func(ctx context.Context, userID, actionName string, payload any) (transaction.Transaction, error)
	queryFn  func(ctx context.Context, f transaction.Filter) ([]transaction.Transaction, error)

	records []recorded
}

func (f *fakeAudit) RecordByName(ctx context.Context, userID, actionName string, payload any) (transaction.Transaction, error) {
	f.records = append(f.records, recorded{userID: userID, action: actionName, payload: payload})
	if f.recordFn != nil {
		return f.recordFn(ctx, userID, actionName, payload)
	}
	return transaction.Transaction{}, nil
}

func (f *fakeAudit) Query(ctx context.Context, filter transaction.Filter) ([]transaction.Transaction, error) {
	if f.queryFn != nil {
		return f.queryFn(ctx, filter)
	}
	return []transaction.Transaction{}, nil
}

type fakeActions struct {
	listFn func(ctx context.Context) ([]action.Action, error)
}

func (f *fakeActions) List(ctx context.Context) ([]action.Action, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return action.Catalog, nil
}

type fakePlaces struct {
	nearbyFn func(ctx context.Context, q places.Query) ([]places.Place, error)
}

func (f *fakePlaces) Nearby(ctx context.Context, q places.Query) ([]places.Place, error) {
	if f.nearbyFn != nil {
		return f.nearbyFn(ctx, q)
	}
	return []places.Place{}, nil
}

// small helper function which returns the gin engine to mount one handler per test

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

// setupAuthedRouter mounts h behind a stand-in for the request gate that
// marks the caller as userID.
func setupAuthedRouter(method, path, userID string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, func(ctx *gin.Context) {
		ctx.Set(middlewares.CtxUserID, userID)
		ctx.Next()
	}, h)

	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}
