package biz

import (
	"context"
	"time"

	"brightcopy/plan-service/internal/constants"
	"brightcopy/plan-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// FeatureUsage is one feature's current-month usage against its tier limit,
// shaped for display.
type FeatureUsage struct {
	Feature string `json:"feature"`
	Label   string `json:"label"`
	Current int64  `json:"current"`
	Limit   int    `json:"limit"`
}

// QuotaDecision is the outcome of a quota check.
type QuotaDecision struct {
	Allowed bool   `json:"allowed"`
	Current int64  `json:"current"`
	Limit   int    `json:"limit"`
	Tier    string `json:"tier"`
}

// QuotaCache is a short-lived cache for usage summaries. It is best-effort:
// failures are handled inside the implementation, a miss falls through to
// the store.
type QuotaCache interface {
	GetSummary(ctx context.Context, uid string) ([]*FeatureUsage, bool)
	SetSummary(ctx context.Context, uid string, items []*FeatureUsage)
	Invalidate(ctx context.Context, uid string)
}

// QuotaUsecase gates metered features against per-tier monthly limits.
type QuotaUsecase struct {
	planRepo  PlanRepo
	usageRepo UsageRepo
	cache     QuotaCache
	log       *log.Helper
}

// NewQuotaUsecase creates the quota usecase.
func NewQuotaUsecase(planRepo PlanRepo, usageRepo UsageRepo, cache QuotaCache, logger log.Logger) *QuotaUsecase {
	return &QuotaUsecase{
		planRepo:  planRepo,
		usageRepo: usageRepo,
		cache:     cache,
		log:       log.NewHelper(logger),
	}
}

// GetEffectiveTier resolves the tier governing the user right now.
func (uc *QuotaUsecase) GetEffectiveTier(ctx context.Context, uid string) (string, error) {
	a, err := uc.planRepo.GetAssignment(ctx, uid)
	if err != nil {
		return "", errors.StoreUnavailable(err)
	}
	return EffectiveTier(a, time.Now().UTC()), nil
}

// CheckAllowed decides whether one more invocation of feature is within the
// user's monthly limit. Quota exhaustion is a normal allowed=false result,
// not an error.
func (uc *QuotaUsecase) CheckAllowed(ctx context.Context, uid, feature string) (*QuotaDecision, error) {
	now := time.Now().UTC()

	a, err := uc.planRepo.GetAssignment(ctx, uid)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	tier := EffectiveTier(a, now)
	limit := constants.LimitFor(tier)

	current, err := uc.usageRepo.GetCount(ctx, uid, feature, MonthKey(now))
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}

	return &QuotaDecision{
		Allowed: limit == constants.UnlimitedQuota || current < int64(limit),
		Current: current,
		Limit:   limit,
		Tier:    tier,
	}, nil
}

// Increment records one successful invocation of feature in the current
// month. Callers invoke it only after the metered action has completed, so
// a failure here is logged and swallowed: the feature was already delivered
// and must not appear to fail.
func (uc *QuotaUsecase) Increment(ctx context.Context, uid, feature string) {
	month := MonthKey(time.Now().UTC())
	if err := uc.usageRepo.Increment(ctx, uid, feature, month); err != nil {
		uc.log.Errorf("Failed to increment usage for user %s feature %s month %s: %v", uid, feature, month, err)
		return
	}
	uc.cache.Invalidate(ctx, uid)
}

// Summary returns current-month usage against the tier limit for every
// feature. Unlimited tiers report a large finite limit for display.
func (uc *QuotaUsecase) Summary(ctx context.Context, uid string) ([]*FeatureUsage, error) {
	if items, ok := uc.cache.GetSummary(ctx, uid); ok {
		return items, nil
	}

	now := time.Now().UTC()
	a, err := uc.planRepo.GetAssignment(ctx, uid)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	tier := EffectiveTier(a, now)

	limit := constants.LimitFor(tier)
	if limit == constants.UnlimitedQuota {
		limit = constants.DisplayUnlimited
	}

	counts, err := uc.usageRepo.MonthCounts(ctx, uid, MonthKey(now))
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}

	items := make([]*FeatureUsage, 0, len(constants.Features))
	for _, feature := range constants.Features {
		items = append(items, &FeatureUsage{
			Feature: feature,
			Label:   constants.FeatureLabels[feature],
			Current: counts[feature],
			Limit:   limit,
		})
	}

	uc.cache.SetSummary(ctx, uid, items)
	return items, nil
}
