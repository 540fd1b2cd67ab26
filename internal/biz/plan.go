package biz

import (
	"context"
	"time"

	"brightcopy/plan-service/internal/constants"
)

// PlanAssignment is a user's current plan tier plus its optional expiry.
// Paid tiers (pro, max) carry an expiry; admin, free and tester never do.
type PlanAssignment struct {
	UID          string
	Tier         string
	ExpiresAt    *time.Time
	PreviousTier string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PlanRepo persists plan assignments, one row per user, upsert keyed by uid.
type PlanRepo interface {
	// GetAssignment returns nil, nil when the user has no row yet; readers
	// treat that as the default free plan.
	GetAssignment(ctx context.Context, uid string) (*PlanAssignment, error)
	// SaveAssignment upserts by uid so concurrent admin edits and sweeper
	// runs converge on one row.
	SaveAssignment(ctx context.Context, a *PlanAssignment) error
	ListAssignments(ctx context.Context, page, pageSize int) ([]*PlanAssignment, int, error)
	// ListExpired returns paid-tier rows whose expiry is before now.
	ListExpired(ctx context.Context, now time.Time) ([]*PlanAssignment, error)
	// ListExpiringWithin returns paid-tier rows expiring within the given
	// number of days, including rows already past their expiry.
	ListExpiringWithin(ctx context.Context, now time.Time, days int) ([]*PlanAssignment, error)
	CountByTier(ctx context.Context) (map[string]int64, error)
	// CountExpiredPaidByTier counts paid-tier rows already past expiry,
	// keyed by stored tier.
	CountExpiredPaidByTier(ctx context.Context, now time.Time) (map[string]int64, error)
}

// EffectiveTier applies lazy expiry to a stored assignment. Every reader
// must go through this function instead of re-deriving expiry rules:
//   - admin never expires
//   - a paid tier past its expiry reads as free, whether or not the sweeper
//     has physically downgraded the row yet
//   - no row at all reads as free
func EffectiveTier(a *PlanAssignment, now time.Time) string {
	if a == nil {
		return constants.TierFree
	}
	if a.Tier == constants.TierAdmin {
		return constants.TierAdmin
	}
	if a.ExpiresAt != nil && a.ExpiresAt.Before(now) {
		return constants.TierFree
	}
	return a.Tier
}
