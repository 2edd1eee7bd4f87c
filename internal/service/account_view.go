package service

import (
	"time"

	"gigconnect/internal/model"
)

// AccountView is the public shape of an account.
type AccountView struct {
	ID             uint64     `json:"id"`
	Username       string     `json:"username"`
	Bio            string     `json:"bio"`
	ProfileImage   *string    `json:"profile_image"`
	City           string     `json:"city"`
	Country        string     `json:"country"`
	Latitude       *float64   `json:"latitude"`
	Longitude      *float64   `json:"longitude"`
	Website        string     `json:"website"`
	Instagram      string     `json:"instagram"`
	Soundcloud     string     `json:"soundcloud"`
	Youtube        string     `json:"youtube"`
	IsAvailable    bool       `json:"is_available"`
	Role           string     `json:"role,omitempty"`
	Rating         float64    `json:"rating"`
	TotalReviews   int        `json:"total_reviews"`
	FollowerCount  int64      `json:"followers_count"`
	FollowingCount int64      `json:"following_count"`
	LastActiveAt   *time.Time `json:"last_active_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

func NewAccountView(a *model.Account) AccountView {
	return AccountView{
		ID:             a.ID,
		Username:       a.Username,
		Bio:            a.Bio,
		ProfileImage:   imageOrNil(a.ProfileImage),
		City:           a.City,
		Country:        a.Country,
		Latitude:       a.Latitude,
		Longitude:      a.Longitude,
		Website:        a.Website,
		Instagram:      a.Instagram,
		Soundcloud:     a.Soundcloud,
		Youtube:        a.Youtube,
		IsAvailable:    a.IsAvailable,
		Role:           a.Role,
		Rating:         a.Rating,
		TotalReviews:   a.TotalReviews,
		FollowerCount:  a.FollowerCount,
		FollowingCount: a.FollowingCount,
		LastActiveAt:   a.LastActiveAt,
		CreatedAt:      a.CreatedAt,
	}
}
