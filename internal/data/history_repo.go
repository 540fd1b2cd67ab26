package data

import (
	"context"
	"time"

	"brightcopy/plan-service/internal/biz"
	"brightcopy/plan-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
)

// historyRepo persists the append-only plan transition log.
type historyRepo struct {
	data *Data
	log  *log.Helper
}

// NewHistoryRepo creates the history repository.
func NewHistoryRepo(data *Data, logger log.Logger) biz.HistoryRepo {
	return &historyRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func toHistoryEntry(m *model.PlanHistory) *biz.PlanHistoryEntry {
	return &biz.PlanHistoryEntry{
		ID:        m.PlanHistoryID,
		UID:       m.UID,
		OldTier:   m.OldTier,
		NewTier:   m.NewTier,
		ChangedBy: m.ChangedBy,
		ChangedAt: m.ChangedAt,
	}
}

// Append inserts one entry. Rows are never updated or deleted.
func (r *historyRepo) Append(ctx context.Context, entry *biz.PlanHistoryEntry) error {
	m := &model.PlanHistory{
		UID:       entry.UID,
		OldTier:   entry.OldTier,
		NewTier:   entry.NewTier,
		ChangedBy: entry.ChangedBy,
		ChangedAt: entry.ChangedAt,
	}
	if err := r.data.db.WithContext(ctx).Create(m).Error; err != nil {
		r.log.Errorf("Failed to append plan history for user %s: %v", entry.UID, err)
		return err
	}
	entry.ID = m.PlanHistoryID
	return nil
}

// Recent returns the newest entries; insertion order breaks timestamp ties.
func (r *historyRepo) Recent(ctx context.Context, limit int) ([]*biz.PlanHistoryEntry, error) {
	var models []model.PlanHistory
	if err := r.data.db.WithContext(ctx).
		Order("changed_at DESC, plan_history_id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to get recent plan history: %v", err)
		return nil, err
	}

	entries := make([]*biz.PlanHistoryEntry, len(models))
	for i := range models {
		entries[i] = toHistoryEntry(&models[i])
	}
	return entries, nil
}

// ListSince returns entries changed at or after since, oldest first.
func (r *historyRepo) ListSince(ctx context.Context, since time.Time) ([]*biz.PlanHistoryEntry, error) {
	var models []model.PlanHistory
	if err := r.data.db.WithContext(ctx).
		Where("changed_at >= ?", since).
		Order("changed_at ASC, plan_history_id ASC").
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to list plan history since %s: %v", since.Format(time.RFC3339), err)
		return nil, err
	}

	entries := make([]*biz.PlanHistoryEntry, len(models))
	for i := range models {
		entries[i] = toHistoryEntry(&models[i])
	}
	return entries, nil
}

type transitionRow struct {
	OldTier string
	NewTier string
	Total   int64
}

// TransitionCounts groups the whole log by (old, new) pair in SQL, most
// frequent pair first.
func (r *historyRepo) TransitionCounts(ctx context.Context) ([]*biz.TransitionCount, error) {
	var rows []transitionRow
	if err := r.data.db.WithContext(ctx).
		Model(&model.PlanHistory{}).
		Select("old_tier, new_tier, COUNT(*) AS total").
		Group("old_tier, new_tier").
		Order("total DESC").
		Scan(&rows).Error; err != nil {
		r.log.Errorf("Failed to get transition counts: %v", err)
		return nil, err
	}

	counts := make([]*biz.TransitionCount, len(rows))
	for i, row := range rows {
		counts[i] = &biz.TransitionCount{
			OldTier: row.OldTier,
			NewTier: row.NewTier,
			Total:   row.Total,
		}
	}
	return counts, nil
}
