package mysql

import (
	"context"

	"gigconnect/internal/model"

	"gorm.io/gorm"
)

// Outbox row states.
const (
	OutboxPending int8 = 0
	OutboxSent    int8 = 1
	OutboxFailed  int8 = 2
)

// MaxOutboxRetry stops redelivery of a row that keeps failing.
const MaxOutboxRetry = 5

type OutboxRepository struct {
	DB *gorm.DB
}

type FollowCountReconcilerRepo struct {
	DB *gorm.DB
}

// CountPair is the cached counters of one account.
type CountPair struct {
	ID             uint64
	FollowingCount int64
	FollowerCount  int64
}

// List returns pending rows and failed rows still under the retry limit,
// oldest first.
func (r *OutboxRepository) List(ctx context.Context, batchSize int) ([]model.SocialOutbox, error) {
	var list []model.SocialOutbox
	if err := r.DB.WithContext(ctx).
		Where("status=? OR (status=? AND retry < ?)", OutboxPending, OutboxFailed, MaxOutboxRetry).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.SocialOutbox{}).Where("id=?", id).
		Updates(map[string]any{"status": OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.SocialOutbox{}).Where("id=?", id).
		Update("status", OutboxSent).Error
}

// ReconcileList pages accounts by id. It returns the last id seen, or lastID
// unchanged when the table is exhausted.
func (r *FollowCountReconcilerRepo) ReconcileList(ctx context.Context, batchSize int, lastID uint64) ([]CountPair, uint64, error) {
	var list []CountPair
	if err := r.DB.WithContext(ctx).Model(&model.Account{}).
		Select("id", "following_count", "follower_count").
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, lastID, err
	}
	if len(list) == 0 {
		return nil, lastID, nil
	}
	return list, list[len(list)-1].ID, nil
}

// RealFollowers counts live follow edges pointing at userID.
func (r *FollowCountReconcilerRepo) RealFollowers(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Follow{}).
		Where("followee_id=? AND status=1", userID).
		Count(&n).Error
	return n, err
}

// RealFollowings counts live follow edges leaving userID.
func (r *FollowCountReconcilerRepo) RealFollowings(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_id=? AND status=1", userID).
		Count(&n).Error
	return n, err
}

func (r *FollowCountReconcilerRepo) FixFollowerCount(ctx context.Context, userID uint64, n int64) error {
	return r.DB.WithContext(ctx).Model(&model.Account{}).Where("id=?", userID).
		UpdateColumn("follower_count", n).Error
}

func (r *FollowCountReconcilerRepo) FixFollowingCount(ctx context.Context, userID uint64, n int64) error {
	return r.DB.WithContext(ctx).Model(&model.Account{}).Where("id=?", userID).
		UpdateColumn("following_count", n).Error
}
