package model

import "time"

// PlanHistory is append-only; rows are never updated or deleted.
type PlanHistory struct {
	PlanHistoryID uint64    `gorm:"primaryKey;column:plan_history_id;autoIncrement"`
	UID           string    `gorm:"column:uid;type:varchar(36);not null;index:idx_uid"`
	OldTier       string    `gorm:"column:old_tier;type:varchar(16);not null"`
	NewTier       string    `gorm:"column:new_tier;type:varchar(16);not null"`
	ChangedBy     string    `gorm:"column:changed_by;type:enum('admin','system');not null"`
	ChangedAt     time.Time `gorm:"column:changed_at;not null;index:idx_changed_at"`
}

func (PlanHistory) TableName() string { return "plan_history" }
