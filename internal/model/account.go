package model

import "time"

type Account struct {
	ID             uint64     `gorm:"primaryKey"`
	Username       string     `gorm:"uniqueIndex;size:32;not null"`
	Password       string     `gorm:"size:255;not null" json:"-"`
	Email          string     `gorm:"uniqueIndex;size:64;not null"`
	Bio            string     `gorm:"type:text"`
	ProfileImage   string     `gorm:"size:255"`
	City           string     `gorm:"size:100;index:idx_account_city"`
	Country        string     `gorm:"size:100"`
	Latitude       *float64   `gorm:"default:null"`
	Longitude      *float64   `gorm:"default:null"`
	Website        string     `gorm:"size:255"`
	Instagram      string     `gorm:"size:255"`
	Soundcloud     string     `gorm:"size:255"`
	Youtube        string     `gorm:"size:255"`
	IsAvailable    bool       `gorm:"not null;default:true"`
	Role           string     `gorm:"size:32"` // "musician", "organizer" or empty
	Rating         float64    `gorm:"not null;default:0"`
	TotalReviews   int        `gorm:"not null;default:0"`
	FollowerCount  int64      `gorm:"not null;default:0"`
	FollowingCount int64      `gorm:"not null;default:0"`
	LastActiveAt   *time.Time `gorm:"index:idx_account_last_active"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Account) TableName() string { return "accounts" }

// Tag doubles as an account skill and a gig label.
type Tag struct {
	ID        uint64  `gorm:"primaryKey"`
	Name      string  `gorm:"uniqueIndex;size:50;not null"`
	CreatedBy *uint64 `gorm:"index:idx_tag_created_by"`
	CreatedAt time.Time
}

type AccountSkill struct {
	AccountID uint64 `gorm:"primaryKey;autoIncrement:false"`
	TagID     uint64 `gorm:"primaryKey;autoIncrement:false;index:idx_account_skill_tag"`
}

func (AccountSkill) TableName() string { return "account_skills" }
