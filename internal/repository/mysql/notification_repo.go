package mysql

import (
	"context"

	"gigconnect/internal/model"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	DB *gorm.DB
}

// Create stores the notification and queues it on the outbox.
func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(n).Error; err != nil {
			return err
		}
		return insertOutbox(tx, model.EventNotification, 0, n.AccountID, map[string]any{
			"notification_id": n.ID,
			"message":         n.Message,
		})
	})
}

func (r *NotificationRepository) List(ctx context.Context, accountID uint64, offset, limit int) ([]model.Notification, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Notification{}).Where("account_id=?", accountID).
		Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Notification
	if err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// MarkRead flags one of accountID's notifications. found is false when the
// id does not belong to accountID.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, accountID uint64) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&model.Notification{}).
		Where("id=? AND account_id=?", id, accountID).
		Count(&n).Error; err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	err := r.DB.WithContext(ctx).Model(&model.Notification{}).
		Where("id=? AND account_id=?", id, accountID).
		Update("is_read", true).Error
	return true, err
}

// MarkAllRead returns the number of notifications flipped to read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, accountID uint64) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&model.Notification{}).
		Where("account_id=? AND is_read=?", accountID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, accountID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Notification{}).
		Where("account_id=? AND is_read=?", accountID, false).
		Count(&n).Error
	return n, err
}
