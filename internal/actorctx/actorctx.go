// Package actorctx carries the authenticated caller on a context.Context so
// code below the HTTP layer (logging, audit) can see who is acting.
package actorctx

import "context"

type ctxKey string

const (
	keyUserID ctxKey = "user_id"
	keyToken  ctxKey = "session_token"
)

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, keyUserID, userID)
}

func UserIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyUserID).(string)

	return v, ok && v != ""
}

func WithToken(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, keyToken, raw)
}

func TokenFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyToken).(string)

	return v, ok && v != ""
}
