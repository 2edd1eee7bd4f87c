package mysql

import (
	"context"
	"errors"
	"math"
	"time"

	"gigconnect/internal/model"

	"gorm.io/gorm"
)

var ErrDuplicateReview = errors.New("review already exists for this gig")

type ReviewRepository struct {
	DB *gorm.DB
}

// ReviewFilter narrows List. Zero values disable a filter.
type ReviewFilter struct {
	ReviewerID uint64
	ReviewedID uint64
	GigID      uint64
	Offset     int
	Limit      int
}

// ReviewActivity is a review as the feed sees it.
type ReviewActivity struct {
	ID               uint64
	ReviewerID       uint64
	ReviewerUsername string
	ReviewerImage    string
	ReviewedID       uint64
	ReviewedUsername string
	GigID            uint64
	GigTitle         string
	Rating           int
	Comment          string
	CreatedAt        time.Time
}

// Create stores rv and recomputes the reviewed account's rating.
func (r *ReviewRepository) Create(ctx context.Context, rv *model.Review) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Review{}).
			Where("reviewer_id=? AND reviewed_id=? AND gig_id=?", rv.ReviewerID, rv.ReviewedID, rv.GigID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicateReview
		}
		if err := tx.Create(rv).Error; err != nil {
			return err
		}
		return recomputeRating(tx, rv.ReviewedID)
	})
}

func (r *ReviewRepository) FindByID(ctx context.Context, id uint64) (*model.Review, error) {
	var rv model.Review
	if err := r.DB.WithContext(ctx).First(&rv, id).Error; err != nil {
		return nil, err
	}
	return &rv, nil
}

// Delete removes review id and recomputes the reviewed account's rating.
func (r *ReviewRepository) Delete(ctx context.Context, rv *model.Review) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Review{}, rv.ID).Error; err != nil {
			return err
		}
		return recomputeRating(tx, rv.ReviewedID)
	})
}

func (r *ReviewRepository) List(ctx context.Context, f ReviewFilter) ([]model.Review, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Review{})
	if f.ReviewerID > 0 {
		q = q.Where("reviewer_id=?", f.ReviewerID)
	}
	if f.ReviewedID > 0 {
		q = q.Where("reviewed_id=?", f.ReviewedID)
	}
	if f.GigID > 0 {
		q = q.Where("gig_id=?", f.GigID)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	var list []model.Review
	if err := q.Order("created_at DESC, id DESC").Offset(f.Offset).Limit(f.Limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ReviewActivity loads up to limit reviews written by reviewerIDs, newest first.
func (r *ReviewRepository) ReviewActivity(ctx context.Context, reviewerIDs []uint64, limit int) ([]ReviewActivity, error) {
	if len(reviewerIDs) == 0 {
		return nil, nil
	}
	var rows []ReviewActivity
	err := r.DB.WithContext(ctx).Table("reviews AS rv").
		Select(`rv.id, rv.reviewer_id, ra.username AS reviewer_username, ra.profile_image AS reviewer_image, rv.reviewed_id,
			rd.username AS reviewed_username, rv.gig_id, COALESCE(g.title, '') AS gig_title, rv.rating,
			rv.comment, rv.created_at`).
		Joins("JOIN accounts ra ON ra.id = rv.reviewer_id").
		Joins("JOIN accounts rd ON rd.id = rv.reviewed_id").
		Joins("LEFT JOIN gigs g ON g.id = rv.gig_id").
		Where("rv.reviewer_id IN ?", reviewerIDs).
		Order("rv.created_at DESC, rv.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func recomputeRating(tx *gorm.DB, accountID uint64) error {
	var agg struct {
		Avg float64
		N   int
	}
	if err := tx.Model(&model.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS n").
		Where("reviewed_id=?", accountID).
		Scan(&agg).Error; err != nil {
		return err
	}
	return tx.Model(&model.Account{}).Where("id=?", accountID).
		UpdateColumns(map[string]any{
			"rating":        math.Round(agg.Avg*100) / 100,
			"total_reviews": agg.N,
		}).Error
}
