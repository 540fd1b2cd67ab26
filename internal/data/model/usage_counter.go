package model

import "time"

// UsageCounter is one per (uid, feature, month). count only increases; a
// new month key starts a fresh row.
type UsageCounter struct {
	UsageCounterID uint64    `gorm:"primaryKey;column:usage_counter_id;autoIncrement"`
	UID            string    `gorm:"column:uid;type:varchar(36);not null;uniqueIndex:uk_uid_feature_month;index:idx_uid"`
	Feature        string    `gorm:"column:feature;type:varchar(16);not null;uniqueIndex:uk_uid_feature_month"`
	Month          string    `gorm:"column:month;type:char(7);not null;uniqueIndex:uk_uid_feature_month;index:idx_month"` // YYYY-MM
	Count          int64     `gorm:"column:count;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (UsageCounter) TableName() string { return "usage_counter" }
