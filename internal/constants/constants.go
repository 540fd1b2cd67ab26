package constants

import "time"

// Plan tiers
const (
	TierAdmin  = "admin"
	TierFree   = "free"
	TierTester = "tester"
	TierPro    = "pro"
	TierMax    = "max"
)

// Metered features
const (
	FeatureAnalyze  = "analyze"
	FeatureGenerate = "generate"
	FeatureKeyword  = "keyword"
	FeatureSeries   = "series"
)

// Features lists all metered features in display order.
var Features = []string{FeatureAnalyze, FeatureGenerate, FeatureKeyword, FeatureSeries}

// FeatureLabels maps feature keys to the labels shown in usage summaries.
var FeatureLabels = map[string]string{
	FeatureAnalyze:  "Content Analysis",
	FeatureGenerate: "Content Generation",
	FeatureKeyword:  "Keyword Research",
	FeatureSeries:   "Series Planning",
}

// UnlimitedQuota is the internal sentinel for tiers with no monthly cap.
// DisplayUnlimited is what summaries report instead, since display layers
// expect a finite number.
const (
	UnlimitedQuota   = -1
	DisplayUnlimited = 999999
)

// tierLimits is the authoritative tier -> monthly limit policy. Every
// feature shares one limit per tier.
var tierLimits = map[string]int{
	TierAdmin:  UnlimitedQuota,
	TierFree:   3,
	TierTester: 50,
	TierPro:    15,
	TierMax:    50,
}

// tierRank orders tiers so history transitions can be classified as
// upgrades or downgrades.
var tierRank = map[string]int{
	TierFree:   0,
	TierTester: 1,
	TierPro:    2,
	TierMax:    3,
	TierAdmin:  4,
}

// LimitFor returns the monthly limit for a tier. Unknown tiers fall back to
// the free limit.
func LimitFor(tier string) int {
	if limit, ok := tierLimits[tier]; ok {
		return limit
	}
	return tierLimits[TierFree]
}

// Rank returns the ordering rank of a tier, or -1 for unknown tiers.
func Rank(tier string) int {
	if rank, ok := tierRank[tier]; ok {
		return rank
	}
	return -1
}

// IsValidTier reports whether tier is one of the five known tiers.
func IsValidTier(tier string) bool {
	_, ok := tierRank[tier]
	return ok
}

// IsPaidTier reports whether tier is a paid tier that carries an expiry.
func IsPaidTier(tier string) bool {
	return tier == TierPro || tier == TierMax
}

// IsValidFeature reports whether feature is one of the metered features.
func IsValidFeature(feature string) bool {
	_, ok := FeatureLabels[feature]
	return ok
}

// History actor values
const (
	ChangedByAdmin  = "admin"
	ChangedBySystem = "system"
)

// PaidTierDuration is how long a paid tier runs per purchase or renewal.
const PaidTierDuration = 30 * 24 * time.Hour

// MonthKeyLayout formats a time into the YYYY-MM usage counter key.
const MonthKeyLayout = "2006-01"

// Pagination
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Reporting defaults
const (
	DefaultTrendMonths   = 6
	DefaultRecentHistory = 20
	DefaultTopUsers      = 10
)

// DefaultWarnDays are the expiry warning windows (in days) used when the
// config does not set any.
var DefaultWarnDays = []int{3, 7}

// Quota summary cache settings.
const (
	QuotaSummaryCacheTTL = 5 * time.Minute
	QuotaSummaryCacheKey = "quota_summary:user:%s"
)

// Distributed lock settings for the cron binary.
const (
	SweepLockKey        = "plan_sweep_lock"
	SweepLockExpiration = 10 * time.Minute
	SweepLockRetries    = 1
)
