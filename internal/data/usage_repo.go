package data

import (
	"context"
	"errors"

	"brightcopy/plan-service/internal/biz"
	"brightcopy/plan-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// usageRepo persists usage counters in MySQL.
type usageRepo struct {
	data *Data
	log  *log.Helper
}

// NewUsageRepo creates the usage repository.
func NewUsageRepo(data *Data, logger log.Logger) biz.UsageRepo {
	return &usageRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// Increment is a single conditional upsert: INSERT a fresh counter at 1, or
// bump the existing row with count = count + 1. Two concurrent increments
// for the same key both land; there is no read-then-write window to lose.
func (r *usageRepo) Increment(ctx context.Context, uid, feature, month string) error {
	m := &model.UsageCounter{
		UID:     uid,
		Feature: feature,
		Month:   month,
		Count:   1,
	}
	err := r.data.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}, {Name: "feature"}, {Name: "month"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1")}),
		}).
		Create(m).Error
	if err != nil {
		r.log.Errorf("Failed to increment usage for user %s feature %s month %s: %v", uid, feature, month, err)
		return err
	}
	return nil
}

// GetCount returns 0 when no counter row exists.
func (r *usageRepo) GetCount(ctx context.Context, uid, feature, month string) (int64, error) {
	var m model.UsageCounter
	err := r.data.db.WithContext(ctx).
		Where("uid = ? AND feature = ? AND month = ?", uid, feature, month).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		r.log.Errorf("Failed to get usage count for user %s feature %s: %v", uid, feature, err)
		return 0, err
	}
	return m.Count, nil
}

type featureCountRow struct {
	Feature string
	Total   int64
}

// MonthCounts returns feature -> count for one user and month.
func (r *usageRepo) MonthCounts(ctx context.Context, uid, month string) (map[string]int64, error) {
	var rows []featureCountRow
	if err := r.data.db.WithContext(ctx).
		Model(&model.UsageCounter{}).
		Select("feature, count AS total").
		Where("uid = ? AND month = ?", uid, month).
		Scan(&rows).Error; err != nil {
		r.log.Errorf("Failed to get month counts for user %s month %s: %v", uid, month, err)
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Feature] = row.Total
	}
	return counts, nil
}

// CumulativeCounts sums all month keys per feature for one user.
func (r *usageRepo) CumulativeCounts(ctx context.Context, uid string) (map[string]int64, error) {
	var rows []featureCountRow
	if err := r.data.db.WithContext(ctx).
		Model(&model.UsageCounter{}).
		Select("feature, SUM(count) AS total").
		Where("uid = ?", uid).
		Group("feature").
		Scan(&rows).Error; err != nil {
		r.log.Errorf("Failed to get cumulative counts for user %s: %v", uid, err)
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Feature] = row.Total
	}
	return counts, nil
}

// TotalsByFeature sums counts per feature across all users. An empty month
// means all months.
func (r *usageRepo) TotalsByFeature(ctx context.Context, month string) (map[string]int64, error) {
	query := r.data.db.WithContext(ctx).
		Model(&model.UsageCounter{}).
		Select("feature, SUM(count) AS total").
		Group("feature")
	if month != "" {
		query = query.Where("month = ?", month)
	}

	var rows []featureCountRow
	if err := query.Scan(&rows).Error; err != nil {
		r.log.Errorf("Failed to get usage totals by feature: %v", err)
		return nil, err
	}

	totals := make(map[string]int64, len(rows))
	for _, row := range rows {
		totals[row.Feature] = row.Total
	}
	return totals, nil
}

type monthFeatureRow struct {
	Month   string
	Feature string
	Total   int64
}

// TotalsByMonth returns month -> feature -> total for the given month keys.
func (r *usageRepo) TotalsByMonth(ctx context.Context, months []string) (map[string]map[string]int64, error) {
	if len(months) == 0 {
		return map[string]map[string]int64{}, nil
	}

	var rows []monthFeatureRow
	if err := r.data.db.WithContext(ctx).
		Model(&model.UsageCounter{}).
		Select("month, feature, SUM(count) AS total").
		Where("month IN ?", months).
		Group("month, feature").
		Scan(&rows).Error; err != nil {
		r.log.Errorf("Failed to get usage totals by month: %v", err)
		return nil, err
	}

	totals := make(map[string]map[string]int64, len(months))
	for _, row := range rows {
		if totals[row.Month] == nil {
			totals[row.Month] = map[string]int64{}
		}
		totals[row.Month][row.Feature] = row.Total
	}
	return totals, nil
}

type userTotalRow struct {
	UID   string
	Total int64
}

// TopUsers returns users ordered by cumulative usage, heaviest first.
func (r *usageRepo) TopUsers(ctx context.Context, limit int) ([]*biz.UserUsageTotal, error) {
	var rows []userTotalRow
	if err := r.data.db.WithContext(ctx).
		Model(&model.UsageCounter{}).
		Select("uid, SUM(count) AS total").
		Group("uid").
		Order("total DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		r.log.Errorf("Failed to get top users: %v", err)
		return nil, err
	}

	totals := make([]*biz.UserUsageTotal, len(rows))
	for i, row := range rows {
		totals[i] = &biz.UserUsageTotal{UID: row.UID, Total: row.Total}
	}
	return totals, nil
}
