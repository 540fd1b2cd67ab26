package biz

import (
	"context"
	"time"

	"brightcopy/plan-service/internal/constants"
	"brightcopy/plan-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// UserOverview is one row of the admin user listing: tier, expiry and usage
// per feature.
type UserOverview struct {
	UID        string           `json:"uid"`
	Tier       string           `json:"tier"`
	ExpiresAt  *time.Time       `json:"expires_at,omitempty"`
	Current    map[string]int64 `json:"current"`
	Cumulative map[string]int64 `json:"cumulative"`
}

// AdminUsecase applies manual plan changes and renewals. Plan changes are
// confirmed out of band (there is no payment gateway); an administrator
// applies them here and every mutation is mirrored into the history log.
type AdminUsecase struct {
	guard       *AdminGuard
	planRepo    PlanRepo
	usageRepo   UsageRepo
	historyRepo HistoryRepo
	passport    PassportClient
	cache       QuotaCache
	log         *log.Helper
}

// NewAdminUsecase creates the admin usecase.
func NewAdminUsecase(
	guard *AdminGuard,
	planRepo PlanRepo,
	usageRepo UsageRepo,
	historyRepo HistoryRepo,
	passport PassportClient,
	cache QuotaCache,
	logger log.Logger,
) *AdminUsecase {
	return &AdminUsecase{
		guard:       guard,
		planRepo:    planRepo,
		usageRepo:   usageRepo,
		historyRepo: historyRepo,
		passport:    passport,
		cache:       cache,
		log:         log.NewHelper(logger),
	}
}

// SetPlan assigns newTier to the user, creating the assignment when absent.
// Paid tiers get a 30-day expiry, all others none. Exactly one history entry
// is appended per successful write, with the old tier resolved through the
// effective-tier rule immediately before the write.
func (uc *AdminUsecase) SetPlan(ctx context.Context, uid, newTier string) (*PlanAssignment, error) {
	if err := uc.guard.Require(ctx); err != nil {
		return nil, err
	}
	if !constants.IsValidTier(newTier) {
		return nil, errors.InvalidTier(newTier)
	}

	now := time.Now().UTC()
	a, err := uc.planRepo.GetAssignment(ctx, uid)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	oldTier := EffectiveTier(a, now)

	if a == nil {
		a = &PlanAssignment{UID: uid, CreatedAt: now}
	}
	a.Tier = newTier
	if constants.IsPaidTier(newTier) {
		expiresAt := now.Add(constants.PaidTierDuration)
		a.ExpiresAt = &expiresAt
	} else {
		a.ExpiresAt = nil
	}
	// only the sweeper records a fall-from tier
	a.PreviousTier = ""
	a.UpdatedAt = now

	if err := uc.planRepo.SaveAssignment(ctx, a); err != nil {
		uc.log.Errorf("Failed to save plan for user %s: %v", uid, err)
		return nil, errors.StoreUnavailable(err)
	}

	entry := &PlanHistoryEntry{
		UID:       uid,
		OldTier:   oldTier,
		NewTier:   newTier,
		ChangedBy: constants.ChangedByAdmin,
		ChangedAt: now,
	}
	if err := uc.historyRepo.Append(ctx, entry); err != nil {
		uc.log.Errorf("Failed to append plan history for user %s: %v", uid, err)
	}

	uc.cache.Invalidate(ctx, uid)
	uc.log.Infof("Plan set for user %s: %s -> %s", uid, oldTier, newTier)
	return a, nil
}

// Renew extends a paid subscription by 30 days. Eligibility checks the
// stored tier: a lapsed-but-not-yet-swept subscription is still renewable
// and renews from now rather than stacking on the past date; once the
// sweeper has downgraded the row it is free and no longer eligible. Renewal
// keeps the tier, so it writes no history entry.
func (uc *AdminUsecase) Renew(ctx context.Context, uid string) (*PlanAssignment, error) {
	if err := uc.guard.Require(ctx); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	a, err := uc.planRepo.GetAssignment(ctx, uid)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	if a == nil || !constants.IsPaidTier(a.Tier) {
		return nil, errors.NotEligible(EffectiveTier(a, now))
	}

	base := now
	if a.ExpiresAt != nil && a.ExpiresAt.After(now) {
		base = *a.ExpiresAt
	}
	expiresAt := base.Add(constants.PaidTierDuration)
	a.ExpiresAt = &expiresAt
	a.UpdatedAt = now

	if err := uc.planRepo.SaveAssignment(ctx, a); err != nil {
		uc.log.Errorf("Failed to renew plan for user %s: %v", uid, err)
		return nil, errors.StoreUnavailable(err)
	}

	uc.cache.Invalidate(ctx, uid)
	uc.log.Infof("Plan renewed for user %s (%s) until %s", uid, a.Tier, expiresAt.Format(time.RFC3339))
	return a, nil
}

// Rename updates the user's display name. Identity is owned by the
// passport service; this only shares the admin authorization gate.
func (uc *AdminUsecase) Rename(ctx context.Context, uid, name string) error {
	if err := uc.guard.Require(ctx); err != nil {
		return err
	}
	if err := uc.passport.Rename(ctx, uid, name); err != nil {
		uc.log.Errorf("Failed to rename user %s: %v", uid, err)
		return err
	}
	return nil
}

// ListUsers returns a page of users with tier, expiry and per-feature
// usage.
func (uc *AdminUsecase) ListUsers(ctx context.Context, page, pageSize int) ([]*UserOverview, int, error) {
	if err := uc.guard.Require(ctx); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > constants.MaxPageSize {
		pageSize = constants.DefaultPageSize
	}

	now := time.Now().UTC()
	assignments, total, err := uc.planRepo.ListAssignments(ctx, page, pageSize)
	if err != nil {
		return nil, 0, errors.StoreUnavailable(err)
	}

	month := MonthKey(now)
	overviews := make([]*UserOverview, 0, len(assignments))
	for _, a := range assignments {
		current, err := uc.usageRepo.MonthCounts(ctx, a.UID, month)
		if err != nil {
			return nil, 0, errors.StoreUnavailable(err)
		}
		cumulative, err := uc.usageRepo.CumulativeCounts(ctx, a.UID)
		if err != nil {
			return nil, 0, errors.StoreUnavailable(err)
		}
		overviews = append(overviews, &UserOverview{
			UID:        a.UID,
			Tier:       EffectiveTier(a, now),
			ExpiresAt:  a.ExpiresAt,
			Current:    current,
			Cumulative: cumulative,
		})
	}

	return overviews, total, nil
}
