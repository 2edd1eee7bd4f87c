package model

import "time"

type Notification struct {
	ID        uint64 `gorm:"primaryKey"`
	AccountID uint64 `gorm:"not null;index:idx_notification_account"`
	Message   string `gorm:"size:225;not null"`
	IsRead    bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}
