package mysql

import (
	"context"
	"errors"

	"gigconnect/internal/model"

	"gorm.io/gorm"
)

var ErrTagExists = errors.New("tag already exists")

type TagRepository struct {
	DB *gorm.DB
}

func (r *TagRepository) List(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	err := r.DB.WithContext(ctx).Order("name ASC").Find(&tags).Error
	return tags, err
}

func (r *TagRepository) Create(ctx context.Context, name string, createdBy *uint64) (*model.Tag, error) {
	tag := model.Tag{Name: name, CreatedBy: createdBy}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Tag{}).Where("name=?", name).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrTagExists
		}
		return tx.Create(&tag).Error
	})
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// CountExisting returns how many of ids name a stored tag.
func (r *TagRepository) CountExisting(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Tag{}).Where("id IN ?", ids).Count(&n).Error
	return n, err
}
