package session

import (
	"context"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const idContextKey contextKey = "session_id"

// WithID stores the session id in the context. The session middleware calls
// this once per request after resolving the cookie.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idContextKey, id)
}

// IDFromContext returns the session id stored by WithID, or "" if none.
func IDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(idContextKey).(string)
	return id
}
