package mysql

import (
	"context"
	"time"

	"gigconnect/internal/model"

	"gorm.io/gorm"
)

type AccountRepository struct {
	DB *gorm.DB
}

func (r *AccountRepository) Create(ctx context.Context, a *model.Account) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

// FindByLogin matches either the username or the email.
func (r *AccountRepository) FindByLogin(ctx context.Context, login string) (*model.Account, error) {
	var a model.Account
	err := r.DB.WithContext(ctx).Where("username = ? OR email = ?", login, login).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id uint64) (*model.Account, error) {
	var a model.Account
	if err := r.DB.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// Taken reports whether username or email is already registered.
func (r *AccountRepository) Taken(ctx context.Context, username, email string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Account{}).
		Where("username = ? OR email = ?", username, email).
		Count(&n).Error
	return n > 0, err
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	return r.DB.WithContext(ctx).Model(&model.Account{}).Where("id=?", id).
		Update("password", hash).Error
}

// UpdateProfile applies column updates. Keys must be column names.
func (r *AccountRepository) UpdateProfile(ctx context.Context, id uint64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Model(&model.Account{}).Where("id=?", id).Updates(fields).Error
}

func (r *AccountRepository) TouchLastActive(ctx context.Context, id uint64, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&model.Account{}).Where("id=?", id).
		UpdateColumn("last_active_at", at).Error
}

// SetSkills replaces the account's skill tags.
func (r *AccountRepository) SetSkills(ctx context.Context, id uint64, tagIDs []uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id=?", id).Delete(&model.AccountSkill{}).Error; err != nil {
			return err
		}
		if len(tagIDs) == 0 {
			return nil
		}
		rows := make([]model.AccountSkill, 0, len(tagIDs))
		seen := make(map[uint64]struct{}, len(tagIDs))
		for _, t := range tagIDs {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			rows = append(rows, model.AccountSkill{AccountID: id, TagID: t})
		}
		return tx.Create(&rows).Error
	})
}

func (r *AccountRepository) Skills(ctx context.Context, id uint64) ([]model.Tag, error) {
	var tags []model.Tag
	err := r.DB.WithContext(ctx).
		Where("id IN (?)", r.DB.Model(&model.AccountSkill{}).Select("tag_id").Where("account_id=?", id)).
		Order("name ASC").
		Find(&tags).Error
	return tags, err
}

// List pages accounts by id, skipping exclude.
func (r *AccountRepository) List(ctx context.Context, exclude []uint64, offset, limit int) ([]model.Account, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Account{})
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Account
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Delete removes the account and every row that references it.
func (r *AccountRepository) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var followees, followers []uint64
		if err := tx.Model(&model.Follow{}).Where("follower_id=? AND status=1", id).
			Pluck("followee_id", &followees).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Follow{}).Where("followee_id=? AND status=1", id).
			Pluck("follower_id", &followers).Error; err != nil {
			return err
		}
		if len(followees) > 0 {
			if err := tx.Model(&model.Account{}).Where("id IN ?", followees).
				UpdateColumn("follower_count", clampedAdd("follower_count", -1)).Error; err != nil {
				return err
			}
		}
		if len(followers) > 0 {
			if err := tx.Model(&model.Account{}).Where("id IN ?", followers).
				UpdateColumn("following_count", clampedAdd("following_count", -1)).Error; err != nil {
				return err
			}
		}
		deletes := []struct {
			model any
			where string
		}{
			{&model.Follow{}, "follower_id=? OR followee_id=?"},
			{&model.FollowRequest{}, "from_id=? OR to_id=?"},
			{&model.Block{}, "blocker_id=? OR blocked_id=?"},
		}
		for _, d := range deletes {
			if err := tx.Where(d.where, id, id).Delete(d.model).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("account_id=?", id).Delete(&model.AccountSkill{}).Error; err != nil {
			return err
		}
		if err := tx.Where("account_id=?", id).Delete(&model.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Account{}, id).Error
	})
}
