package model

import "time"

type Review struct {
	ID         uint64    `gorm:"primaryKey"`
	ReviewerID uint64    `gorm:"not null;uniqueIndex:uk_review;index:idx_review_reviewer_time,priority:1"`
	ReviewedID uint64    `gorm:"not null;uniqueIndex:uk_review;index:idx_review_reviewed"`
	GigID      uint64    `gorm:"not null;uniqueIndex:uk_review;index:idx_review_gig"`
	Rating     int       `gorm:"not null;default:5"`
	Comment    string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"index:idx_review_reviewer_time,priority:2,sort:desc"`
}
