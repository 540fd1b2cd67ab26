package auth

import (
	"context"
)

// context keys
type contextKey string

const (
	// UserIDKey carries the authenticated user's id (string UUID) as
	// resolved by the identity gateway in front of this service.
	UserIDKey contextKey = "user_id"
)

// WithUID returns a context carrying the authenticated user id.
func WithUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, UserIDKey, uid)
}

// UIDFromContext returns the authenticated user id, if any.
func UIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(UserIDKey).(string)
	return uid, ok && uid != ""
}
