package model

import "time"

type Gig struct {
	ID          uint64    `gorm:"primaryKey"`
	Title       string    `gorm:"size:100;not null"`
	Description string    `gorm:"type:text"`
	Date        time.Time `gorm:"not null"`
	Location    string    `gorm:"size:200"`
	OrganizerID uint64    `gorm:"not null;index:idx_gig_organizer_time,priority:1"`
	IsOpen      bool      `gorm:"not null;default:true"`
	Tags        []Tag     `gorm:"many2many:gig_tags"`
	CreatedAt   time.Time `gorm:"index:idx_gig_organizer_time,priority:2,sort:desc"`
	UpdatedAt   time.Time
}
