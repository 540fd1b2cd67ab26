package biz

import (
	"context"
	"fmt"
	"testing"
	"time"

	"brightcopy/plan-service/internal/constants"
	"brightcopy/plan-service/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuotaFixture() (*QuotaUsecase, *fakePlanRepo, *fakeUsageRepo, *fakeQuotaCache) {
	planRepo := newFakePlanRepo()
	usageRepo := newFakeUsageRepo()
	cache := newFakeQuotaCache()
	uc := NewQuotaUsecase(planRepo, usageRepo, cache, testLogger())
	return uc, planRepo, usageRepo, cache
}

func TestCheckAllowedFreeTierLimit(t *testing.T) {
	uc, _, usageRepo, _ := newQuotaFixture()
	ctx := context.Background()
	month := MonthKey(time.Now().UTC())

	// no assignment at all: the free limit of 3 applies
	for i := 0; i < 3; i++ {
		d, err := uc.CheckAllowed(ctx, "u1", constants.FeatureAnalyze)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "call %d should be allowed", i+1)
		assert.Equal(t, constants.TierFree, d.Tier)
		require.NoError(t, usageRepo.Increment(ctx, "u1", constants.FeatureAnalyze, month))
	}

	d, err := uc.CheckAllowed(ctx, "u1", constants.FeatureAnalyze)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, int64(3), d.Current)
	assert.Equal(t, 3, d.Limit)
}

func TestCheckAllowedLimitsArePerFeature(t *testing.T) {
	uc, _, usageRepo, _ := newQuotaFixture()
	ctx := context.Background()
	month := MonthKey(time.Now().UTC())

	for i := 0; i < 3; i++ {
		require.NoError(t, usageRepo.Increment(ctx, "u1", constants.FeatureAnalyze, month))
	}

	d, err := uc.CheckAllowed(ctx, "u1", constants.FeatureAnalyze)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	// exhausting one feature leaves the others untouched
	d, err = uc.CheckAllowed(ctx, "u1", constants.FeatureGenerate)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(0), d.Current)
}

func TestCheckAllowedAdminUnlimited(t *testing.T) {
	uc, planRepo, usageRepo, _ := newQuotaFixture()
	ctx := context.Background()
	month := MonthKey(time.Now().UTC())

	planRepo.rows["a1"] = &PlanAssignment{UID: "a1", Tier: constants.TierAdmin}
	for i := 0; i < 1000; i++ {
		require.NoError(t, usageRepo.Increment(ctx, "a1", constants.FeatureGenerate, month))
	}

	d, err := uc.CheckAllowed(ctx, "a1", constants.FeatureGenerate)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, constants.UnlimitedQuota, d.Limit)
	assert.Equal(t, int64(1000), d.Current)
}

func TestCheckAllowedExpiredProFallsToFreeLimit(t *testing.T) {
	uc, planRepo, usageRepo, _ := newQuotaFixture()
	ctx := context.Background()
	month := MonthKey(time.Now().UTC())

	expired := time.Now().UTC().Add(-24 * time.Hour)
	planRepo.rows["u2"] = &PlanAssignment{UID: "u2", Tier: constants.TierPro, ExpiresAt: &expired}
	for i := 0; i < 3; i++ {
		require.NoError(t, usageRepo.Increment(ctx, "u2", constants.FeatureKeyword, month))
	}

	// within the pro limit of 15 but past expiry, so the free limit governs
	d, err := uc.CheckAllowed(ctx, "u2", constants.FeatureKeyword)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, constants.TierFree, d.Tier)
	assert.Equal(t, 3, d.Limit)
}

func TestCheckAllowedStoreError(t *testing.T) {
	uc, planRepo, _, _ := newQuotaFixture()
	planRepo.getErr = fmt.Errorf("connection refused")

	_, err := uc.CheckAllowed(context.Background(), "u1", constants.FeatureAnalyze)
	require.Error(t, err)
	assert.True(t, errors.IsStoreUnavailable(err))
}

func TestIncrementSwallowsStoreError(t *testing.T) {
	uc, _, usageRepo, cache := newQuotaFixture()
	ctx := context.Background()
	usageRepo.incErr = fmt.Errorf("deadlock")

	// the metered action already ran; a counter failure must not surface
	uc.Increment(ctx, "u1", constants.FeatureAnalyze)
	assert.Empty(t, cache.invalidated)

	usageRepo.incErr = nil
	uc.Increment(ctx, "u1", constants.FeatureAnalyze)
	n, err := usageRepo.GetCount(ctx, "u1", constants.FeatureAnalyze, MonthKey(time.Now().UTC()))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, []string{"u1"}, cache.invalidated)
}

func TestSummaryCoversEveryFeature(t *testing.T) {
	uc, _, usageRepo, cache := newQuotaFixture()
	ctx := context.Background()
	month := MonthKey(time.Now().UTC())

	require.NoError(t, usageRepo.Increment(ctx, "u1", constants.FeatureAnalyze, month))
	require.NoError(t, usageRepo.Increment(ctx, "u1", constants.FeatureAnalyze, month))

	items, err := uc.Summary(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, len(constants.Features))

	byFeature := make(map[string]*FeatureUsage, len(items))
	for _, it := range items {
		byFeature[it.Feature] = it
		assert.Equal(t, 3, it.Limit)
		assert.NotEmpty(t, it.Label)
	}
	assert.Equal(t, int64(2), byFeature[constants.FeatureAnalyze].Current)
	assert.Equal(t, int64(0), byFeature[constants.FeatureGenerate].Current)
	assert.Equal(t, 1, cache.sets)
}

func TestSummaryUnlimitedDisplaysFiniteLimit(t *testing.T) {
	uc, planRepo, _, _ := newQuotaFixture()
	planRepo.rows["a1"] = &PlanAssignment{UID: "a1", Tier: constants.TierAdmin}

	items, err := uc.Summary(context.Background(), "a1")
	require.NoError(t, err)
	for _, it := range items {
		assert.Equal(t, constants.DisplayUnlimited, it.Limit)
	}
}

func TestSummaryServedFromCache(t *testing.T) {
	uc, planRepo, _, cache := newQuotaFixture()
	ctx := context.Background()

	cached := []*FeatureUsage{{Feature: constants.FeatureAnalyze, Current: 7, Limit: 15}}
	cache.summaries["u1"] = cached

	// the store is broken; a cache hit must not touch it
	planRepo.getErr = fmt.Errorf("down")
	items, err := uc.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, cached, items)
}

func TestGetEffectiveTier(t *testing.T) {
	uc, planRepo, _, _ := newQuotaFixture()
	ctx := context.Background()

	tier, err := uc.GetEffectiveTier(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, constants.TierFree, tier)

	future := time.Now().UTC().Add(time.Hour)
	planRepo.rows["u1"] = &PlanAssignment{UID: "u1", Tier: constants.TierMax, ExpiresAt: &future}
	tier, err = uc.GetEffectiveTier(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, constants.TierMax, tier)
}
