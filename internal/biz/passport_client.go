package biz

import (
	"context"
	"time"
)

// PassportClient is the anti-corruption interface to the passport
// (identity) service. User identity and display names live there, not in
// this service.
type PassportClient interface {
	// Rename updates a user's display name.
	Rename(ctx context.Context, uid, name string) error
	// CountActiveUsers counts users whose last activity is at or after
	// since.
	CountActiveUsers(ctx context.Context, since time.Time) (int64, error)
}
