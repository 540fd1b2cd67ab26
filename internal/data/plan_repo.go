package data

import (
	"context"
	"errors"
	"time"

	"brightcopy/plan-service/internal/biz"
	"brightcopy/plan-service/internal/constants"
	"brightcopy/plan-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// planRepo persists plan assignments in MySQL.
type planRepo struct {
	data *Data
	log  *log.Helper
}

// NewPlanRepo creates the plan repository.
func NewPlanRepo(data *Data, logger log.Logger) biz.PlanRepo {
	return &planRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func toPlanAssignment(m *model.PlanAssignment) *biz.PlanAssignment {
	return &biz.PlanAssignment{
		UID:          m.UID,
		Tier:         m.Tier,
		ExpiresAt:    m.ExpiresAt,
		PreviousTier: m.PreviousTier,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// GetAssignment returns nil, nil when the user has no plan row.
func (r *planRepo) GetAssignment(ctx context.Context, uid string) (*biz.PlanAssignment, error) {
	var m model.PlanAssignment
	err := r.data.db.WithContext(ctx).Where("uid = ?", uid).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Errorf("Failed to get plan assignment for user %s: %v", uid, err)
		return nil, err
	}
	return toPlanAssignment(&m), nil
}

// SaveAssignment upserts the row keyed by uid in one statement, so
// concurrent writers converge instead of corrupting partial state.
func (r *planRepo) SaveAssignment(ctx context.Context, a *biz.PlanAssignment) error {
	m := &model.PlanAssignment{
		UID:          a.UID,
		Tier:         a.Tier,
		ExpiresAt:    a.ExpiresAt,
		PreviousTier: a.PreviousTier,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	err := r.data.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}},
			DoUpdates: clause.AssignmentColumns([]string{"tier", "expires_at", "previous_tier", "updated_at"}),
		}).
		Create(m).Error
	if err != nil {
		r.log.Errorf("Failed to save plan assignment for user %s: %v", a.UID, err)
		return err
	}
	return nil
}

// ListAssignments returns a page of rows ordered by creation time.
func (r *planRepo) ListAssignments(ctx context.Context, page, pageSize int) ([]*biz.PlanAssignment, int, error) {
	var total int64
	if err := r.data.db.WithContext(ctx).Model(&model.PlanAssignment{}).Count(&total).Error; err != nil {
		r.log.Errorf("Failed to count plan assignments: %v", err)
		return nil, 0, err
	}

	var models []model.PlanAssignment
	offset := (page - 1) * pageSize
	if err := r.data.db.WithContext(ctx).
		Order("created_at ASC, uid ASC").
		Limit(pageSize).
		Offset(offset).
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to list plan assignments: %v", err)
		return nil, 0, err
	}

	assignments := make([]*biz.PlanAssignment, len(models))
	for i := range models {
		assignments[i] = toPlanAssignment(&models[i])
	}
	return assignments, int(total), nil
}

// ListExpired returns paid rows past their expiry. Paid rows with a NULL
// expiry are treated as never expiring and excluded.
func (r *planRepo) ListExpired(ctx context.Context, now time.Time) ([]*biz.PlanAssignment, error) {
	var models []model.PlanAssignment
	if err := r.data.db.WithContext(ctx).
		Where("tier IN ? AND expires_at IS NOT NULL AND expires_at < ?",
			[]string{constants.TierPro, constants.TierMax}, now).
		Order("expires_at ASC").
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to list expired assignments: %v", err)
		return nil, err
	}

	assignments := make([]*biz.PlanAssignment, len(models))
	for i := range models {
		assignments[i] = toPlanAssignment(&models[i])
	}
	return assignments, nil
}

// ListExpiringWithin returns paid rows expiring before now+days, already
// expired rows included.
func (r *planRepo) ListExpiringWithin(ctx context.Context, now time.Time, days int) ([]*biz.PlanAssignment, error) {
	deadline := now.AddDate(0, 0, days)

	var models []model.PlanAssignment
	if err := r.data.db.WithContext(ctx).
		Where("tier IN ? AND expires_at IS NOT NULL AND expires_at < ?",
			[]string{constants.TierPro, constants.TierMax}, deadline).
		Order("expires_at ASC").
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to list expiring assignments: %v", err)
		return nil, err
	}

	assignments := make([]*biz.PlanAssignment, len(models))
	for i := range models {
		assignments[i] = toPlanAssignment(&models[i])
	}
	return assignments, nil
}

type tierCountRow struct {
	Tier  string
	Total int64
}

// CountByTier counts stored tiers in the database.
func (r *planRepo) CountByTier(ctx context.Context) (map[string]int64, error) {
	var rows []tierCountRow
	if err := r.data.db.WithContext(ctx).
		Model(&model.PlanAssignment{}).
		Select("tier, COUNT(*) AS total").
		Group("tier").
		Scan(&rows).Error; err != nil {
		r.log.Errorf("Failed to count assignments by tier: %v", err)
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Tier] = row.Total
	}
	return counts, nil
}

// CountExpiredPaidByTier counts paid rows already past expiry per stored
// tier.
func (r *planRepo) CountExpiredPaidByTier(ctx context.Context, now time.Time) (map[string]int64, error) {
	var rows []tierCountRow
	if err := r.data.db.WithContext(ctx).
		Model(&model.PlanAssignment{}).
		Select("tier, COUNT(*) AS total").
		Where("tier IN ? AND expires_at IS NOT NULL AND expires_at < ?",
			[]string{constants.TierPro, constants.TierMax}, now).
		Group("tier").
		Scan(&rows).Error; err != nil {
		r.log.Errorf("Failed to count expired paid assignments: %v", err)
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Tier] = row.Total
	}
	return counts, nil
}
