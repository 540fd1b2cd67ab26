package biz

import (
	"context"
	"time"

	"brightcopy/plan-service/internal/constants"
	"brightcopy/plan-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// UsageTotals holds platform-wide per-feature totals.
type UsageTotals struct {
	Cumulative   map[string]int64 `json:"cumulative"`
	CurrentMonth map[string]int64 `json:"current_month"`
}

// MonthBucket is one month of the usage trend.
type MonthBucket struct {
	Month  string           `json:"month"`
	Counts map[string]int64 `json:"counts"`
	Total  int64            `json:"total"`
}

// TransitionTrend is one month of upgrade/downgrade counts derived from the
// history log by comparing tier ranks.
type TransitionTrend struct {
	Month      string `json:"month"`
	Upgrades   int64  `json:"upgrades"`
	Downgrades int64  `json:"downgrades"`
}

// ReportingUsecase aggregates the three repositories for dashboards. It is
// strictly read-only; every result is a pure function of store contents at
// query time.
type ReportingUsecase struct {
	guard       *AdminGuard
	planRepo    PlanRepo
	usageRepo   UsageRepo
	historyRepo HistoryRepo
	passport    PassportClient
	log         *log.Helper
}

// NewReportingUsecase creates the reporting usecase.
func NewReportingUsecase(
	guard *AdminGuard,
	planRepo PlanRepo,
	usageRepo UsageRepo,
	historyRepo HistoryRepo,
	passport PassportClient,
	logger log.Logger,
) *ReportingUsecase {
	return &ReportingUsecase{
		guard:       guard,
		planRepo:    planRepo,
		usageRepo:   usageRepo,
		historyRepo: historyRepo,
		passport:    passport,
		log:         log.NewHelper(logger),
	}
}

// TierCounts returns how many users hold each tier. Paid rows already past
// their expiry are reported as free, consistent with the effective-tier
// rule applied everywhere else.
func (uc *ReportingUsecase) TierCounts(ctx context.Context) (map[string]int64, error) {
	if err := uc.guard.Require(ctx); err != nil {
		return nil, err
	}

	counts, err := uc.planRepo.CountByTier(ctx)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	expired, err := uc.planRepo.CountExpiredPaidByTier(ctx, time.Now().UTC())
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	for tier, n := range expired {
		counts[tier] -= n
		counts[constants.TierFree] += n
	}
	return counts, nil
}

// UsageTotals returns cumulative and current-month totals per feature.
func (uc *ReportingUsecase) UsageTotals(ctx context.Context) (*UsageTotals, error) {
	if err := uc.guard.Require(ctx); err != nil {
		return nil, err
	}

	cumulative, err := uc.usageRepo.TotalsByFeature(ctx, "")
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	current, err := uc.usageRepo.TotalsByFeature(ctx, MonthKey(time.Now().UTC()))
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	return &UsageTotals{Cumulative: cumulative, CurrentMonth: current}, nil
}

// MonthlyTrend returns per-feature usage for a trailing window of calendar
// months, oldest first, with missing months zero-filled.
func (uc *ReportingUsecase) MonthlyTrend(ctx context.Context, months int) ([]*MonthBucket, error) {
	if err := uc.guard.Require(ctx); err != nil {
		return nil, err
	}
	if months < 1 || months > 24 {
		months = constants.DefaultTrendMonths
	}

	keys := TrailingMonthKeys(time.Now().UTC(), months)
	byMonth, err := uc.usageRepo.TotalsByMonth(ctx, keys)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}

	buckets := make([]*MonthBucket, 0, len(keys))
	for _, key := range keys {
		bucket := &MonthBucket{Month: key, Counts: map[string]int64{}}
		for feature, total := range byMonth[key] {
			bucket.Counts[feature] = total
			bucket.Total += total
		}
		buckets = append(buckets, bucket)
	}
	return buckets, nil
}

// TransitionTrend returns upgrade/downgrade counts per month over a
// trailing window. A transition counts as an upgrade when the new tier
// ranks above the old one.
func (uc *ReportingUsecase) TransitionTrend(ctx context.Context, months int) ([]*TransitionTrend, error) {
	if err := uc.guard.Require(ctx); err != nil {
		return nil, err
	}
	if months < 1 || months > 24 {
		months = constants.DefaultTrendMonths
	}

	now := time.Now().UTC()
	keys := TrailingMonthKeys(now, months)
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	entries, err := uc.historyRepo.ListSince(ctx, since)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}

	byMonth := make(map[string]*TransitionTrend, len(keys))
	trend := make([]*TransitionTrend, 0, len(keys))
	for _, key := range keys {
		t := &TransitionTrend{Month: key}
		byMonth[key] = t
		trend = append(trend, t)
	}

	for _, entry := range entries {
		t, ok := byMonth[MonthKey(entry.ChangedAt)]
		if !ok {
			continue
		}
		oldRank := constants.Rank(entry.OldTier)
		newRank := constants.Rank(entry.NewTier)
		switch {
		case newRank > oldRank:
			t.Upgrades++
		case newRank < oldRank:
			t.Downgrades++
		}
	}
	return trend, nil
}

// TransitionMatrix returns from->to pair counts over the whole history,
// most frequent first.
func (uc *ReportingUsecase) TransitionMatrix(ctx context.Context) ([]*TransitionCount, error) {
	if err := uc.guard.Require(ctx); err != nil {
		return nil, err
	}
	counts, err := uc.historyRepo.TransitionCounts(ctx)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	return counts, nil
}

// RecentHistory returns the most recent plan transitions.
func (uc *ReportingUsecase) RecentHistory(ctx context.Context, limit int) ([]*PlanHistoryEntry, error) {
	if err := uc.guard.Require(ctx); err != nil {
		return nil, err
	}
	if limit < 1 || limit > constants.MaxPageSize {
		limit = constants.DefaultRecentHistory
	}
	entries, err := uc.historyRepo.Recent(ctx, limit)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	return entries, nil
}

// TopUsers returns the heaviest users by cumulative usage.
func (uc *ReportingUsecase) TopUsers(ctx context.Context, limit int) ([]*UserUsageTotal, error) {
	if err := uc.guard.Require(ctx); err != nil {
		return nil, err
	}
	if limit < 1 || limit > constants.MaxPageSize {
		limit = constants.DefaultTopUsers
	}
	totals, err := uc.usageRepo.TopUsers(ctx, limit)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	return totals, nil
}

// ActiveUsers counts users active since the given time. Last-activity data
// is owned by the passport service.
func (uc *ReportingUsecase) ActiveUsers(ctx context.Context, since time.Time) (int64, error) {
	if err := uc.guard.Require(ctx); err != nil {
		return 0, err
	}
	return uc.passport.CountActiveUsers(ctx, since)
}
