package mysql

import (
	"context"
	"time"

	"gigconnect/internal/model"

	"gorm.io/gorm"
)

type GigRepository struct {
	DB *gorm.DB
}

// GigFilter narrows List. Zero values disable a filter.
type GigFilter struct {
	OrganizerID uint64
	OpenOnly    bool
	TagIDs      []uint64 // gigs carrying any of these tags
	Recent      bool     // newest first instead of by date
	Offset      int
	Limit       int
}

// GigActivity is a gig as the feed sees it.
type GigActivity struct {
	ID                uint64
	Title             string
	Description       string
	Date              time.Time
	Location          string
	IsOpen            bool
	OrganizerID       uint64
	OrganizerUsername string
	OrganizerImage    string
	CreatedAt         time.Time
	ReviewCount       int
	RecentReviews     int
}

// Create stores gig with the tags named by tagIDs. Unknown ids are ignored.
func (r *GigRepository) Create(ctx context.Context, gig *model.Gig, tagIDs []uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(tagIDs) > 0 {
			if err := tx.Where("id IN ?", tagIDs).Find(&gig.Tags).Error; err != nil {
				return err
			}
		}
		return tx.Create(gig).Error
	})
}

func (r *GigRepository) FindByID(ctx context.Context, id uint64) (*model.Gig, error) {
	var g model.Gig
	if err := r.DB.WithContext(ctx).Preload("Tags").First(&g, id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// Update applies column updates and, when tagIDs is non-nil, replaces the tags.
func (r *GigRepository) Update(ctx context.Context, id uint64, fields map[string]any, tagIDs *[]uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g := model.Gig{ID: id}
		if len(fields) > 0 {
			if err := tx.Model(&g).Updates(fields).Error; err != nil {
				return err
			}
		}
		if tagIDs == nil {
			return nil
		}
		var tags []model.Tag
		if len(*tagIDs) > 0 {
			if err := tx.Where("id IN ?", *tagIDs).Find(&tags).Error; err != nil {
				return err
			}
		}
		return tx.Model(&g).Association("Tags").Replace(tags)
	})
}

// Delete removes the gig, its tag links and its reviews.
func (r *GigRepository) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("gig_id=?", id).Delete(&model.Review{}).Error; err != nil {
			return err
		}
		return tx.Select("Tags").Delete(&model.Gig{ID: id}).Error
	})
}

func (r *GigRepository) List(ctx context.Context, f GigFilter) ([]model.Gig, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Gig{})
	if f.OrganizerID > 0 {
		q = q.Where("organizer_id=?", f.OrganizerID)
	}
	if f.OpenOnly {
		q = q.Where("is_open=?", true)
	}
	if len(f.TagIDs) > 0 {
		q = q.Where("id IN (?)", r.DB.Table("gig_tags").Select("gig_id").Where("tag_id IN ?", f.TagIDs))
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	order := "date ASC, id ASC"
	if f.Recent {
		order = "created_at DESC, id DESC"
	}
	var list []model.Gig
	if err := q.Preload("Tags").Order(order).Offset(f.Offset).Limit(f.Limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// GigActivity loads up to limit gigs by the given organizers, newest first,
// with their total review count and the count since recentSince.
func (r *GigRepository) GigActivity(ctx context.Context, organizerIDs []uint64, openOnly bool, recentSince time.Time, limit int) ([]GigActivity, error) {
	if len(organizerIDs) == 0 {
		return nil, nil
	}
	q := r.DB.WithContext(ctx).Table("gigs AS g").
		Select(`g.id, g.title, g.description, g.date, g.location, g.is_open, g.organizer_id,
			a.username AS organizer_username, a.profile_image AS organizer_image, g.created_at,
			(SELECT COUNT(*) FROM reviews rv WHERE rv.gig_id = g.id) AS review_count,
			(SELECT COUNT(*) FROM reviews rv WHERE rv.gig_id = g.id AND rv.created_at >= ?) AS recent_reviews`, recentSince).
		Joins("JOIN accounts a ON a.id = g.organizer_id").
		Where("g.organizer_id IN ?", organizerIDs)
	if openOnly {
		q = q.Where("g.is_open=?", true)
	}
	var rows []GigActivity
	err := q.Order("g.created_at DESC, g.id DESC").Limit(limit).Scan(&rows).Error
	return rows, err
}
