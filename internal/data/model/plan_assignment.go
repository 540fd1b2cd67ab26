package model

import "time"

// PlanAssignment is the stored plan row, one per user.
type PlanAssignment struct {
	UID          string     `gorm:"primaryKey;column:uid;type:varchar(36)"`
	Tier         string     `gorm:"column:tier;type:varchar(16);not null;index:idx_tier"`
	ExpiresAt    *time.Time `gorm:"column:expires_at;index:idx_expires_at"`
	PreviousTier string     `gorm:"column:previous_tier;type:varchar(16)"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (PlanAssignment) TableName() string { return "plan_assignment" }
