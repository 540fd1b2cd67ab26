package biz

import (
	"context"
	"time"

	"brightcopy/plan-service/internal/auth"
	"brightcopy/plan-service/internal/constants"
	"brightcopy/plan-service/internal/errors"
)

// AdminGuard is the single authorization gate for administrative
// operations. Every admin-facing usecase entry point calls Require before
// touching a repository; there are no per-field checks anywhere else.
type AdminGuard struct {
	planRepo PlanRepo
}

// NewAdminGuard creates the guard.
func NewAdminGuard(planRepo PlanRepo) *AdminGuard {
	return &AdminGuard{planRepo: planRepo}
}

// Require returns nil only when the calling user holds the admin effective
// tier.
func (g *AdminGuard) Require(ctx context.Context) error {
	uid, ok := auth.UIDFromContext(ctx)
	if !ok {
		return errors.NotAuthenticated()
	}
	a, err := g.planRepo.GetAssignment(ctx, uid)
	if err != nil {
		return errors.StoreUnavailable(err)
	}
	if EffectiveTier(a, time.Now().UTC()) != constants.TierAdmin {
		return errors.Unauthorized()
	}
	return nil
}
