package biz

import (
	"context"
	"time"

	"brightcopy/plan-service/internal/constants"
)

// UsageCounter is one user's count for one feature in one calendar month.
// Counters only ever increase within a month key; a new month starts fresh
// at zero and old keys are kept for cumulative totals.
type UsageCounter struct {
	UID     string
	Feature string
	Month   string // YYYY-MM
	Count   int64
}

// UserUsageTotal is a user's cumulative usage across all features and months.
type UserUsageTotal struct {
	UID   string
	Total int64
}

// UsageRepo persists usage counters, one row per (uid, feature, month).
type UsageRepo interface {
	// Increment adds 1 to the counter, creating it at 1 when absent. The
	// implementation must be a single atomic upsert, not read-then-write.
	Increment(ctx context.Context, uid, feature, month string) error
	// GetCount returns 0 when no counter exists.
	GetCount(ctx context.Context, uid, feature, month string) (int64, error)
	MonthCounts(ctx context.Context, uid, month string) (map[string]int64, error)
	// CumulativeCounts sums every month key per feature for one user.
	CumulativeCounts(ctx context.Context, uid string) (map[string]int64, error)
	// TotalsByFeature sums counts per feature across all users; an empty
	// month means all months (cumulative totals).
	TotalsByFeature(ctx context.Context, month string) (map[string]int64, error)
	// TotalsByMonth returns month -> feature -> total for the given keys.
	TotalsByMonth(ctx context.Context, months []string) (map[string]map[string]int64, error)
	TopUsers(ctx context.Context, limit int) ([]*UserUsageTotal, error)
}

// MonthKey returns the YYYY-MM usage key for t, in UTC.
func MonthKey(t time.Time) string {
	return t.UTC().Format(constants.MonthKeyLayout)
}

// TrailingMonthKeys returns the n month keys ending at t's month, oldest
// first.
func TrailingMonthKeys(t time.Time, n int) []string {
	t = t.UTC()
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	keys := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		keys = append(keys, first.AddDate(0, -i, 0).Format(constants.MonthKeyLayout))
	}
	return keys
}
