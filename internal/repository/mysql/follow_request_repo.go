package mysql

import (
	"context"
	"errors"
	"time"

	"gigconnect/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrRequestExists     = errors.New("follow request already pending")
	ErrRequestCooldown   = errors.New("follow request was rejected recently")
	ErrAlreadyFollowing  = errors.New("already following")
	ErrRequestNotPending = errors.New("follow request is not pending")
)

type FollowRequestRepository struct {
	DB *gorm.DB
}

// RequestEntry is a request joined with the account on its other side.
type RequestEntry struct {
	RequestID uint64 `json:"request_id"`
	AccountEntry
}

// Send opens a pending request from→to. A rejected request is reopened once
// cooldown has passed since rejected_at.
func (r *FollowRequestRepository) Send(ctx context.Context, fromID, toID uint64, cooldown time.Duration, now time.Time) (*model.FollowRequest, error) {
	var req model.FollowRequest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Follow{}).
			Where("follower_id=? AND followee_id=? AND status=1", fromID, toID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadyFollowing
		}

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("from_id=? AND to_id=?", fromID, toID).
			First(&req).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			req = model.FollowRequest{FromID: fromID, ToID: toID, Status: model.FollowRequestPending}
			return tx.Create(&req).Error
		}
		if err != nil {
			return err
		}
		switch req.Status {
		case model.FollowRequestPending:
			return ErrRequestExists
		case model.FollowRequestAccepted:
			// edge was removed without the request, e.g. by a reconcile; reopen
		case model.FollowRequestRejected:
			if req.RejectedAt != nil && now.Before(req.RejectedAt.Add(cooldown)) {
				return ErrRequestCooldown
			}
		}
		req.Status = model.FollowRequestPending
		req.RejectedAt = nil
		return tx.Model(&req).Updates(map[string]any{
			"status":      model.FollowRequestPending,
			"rejected_at": nil,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *FollowRequestRepository) FindByID(ctx context.Context, id uint64) (*model.FollowRequest, error) {
	var req model.FollowRequest
	if err := r.DB.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// Accept marks a pending request addressed to toID accepted and materializes
// the follow edge. gorm.ErrRecordNotFound means no such request for toID.
func (r *FollowRequestRepository) Accept(ctx context.Context, requestID, toID uint64) (*model.FollowRequest, error) {
	var req model.FollowRequest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id=? AND to_id=?", requestID, toID).
			First(&req).Error; err != nil {
			return err
		}
		if req.Status != model.FollowRequestPending {
			return ErrRequestNotPending
		}
		if err := tx.Model(&req).Update("status", model.FollowRequestAccepted).Error; err != nil {
			return err
		}
		_, err := followTx(tx, req.FromID, req.ToID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Reject answers a pending request addressed to toID. With keep the row
// stays as rejected so a cooldown can apply, otherwise it is deleted.
func (r *FollowRequestRepository) Reject(ctx context.Context, requestID, toID uint64, keep bool, now time.Time) (*model.FollowRequest, error) {
	var req model.FollowRequest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id=? AND to_id=?", requestID, toID).
			First(&req).Error; err != nil {
			return err
		}
		if req.Status != model.FollowRequestPending {
			return ErrRequestNotPending
		}
		if !keep {
			return tx.Delete(&req).Error
		}
		req.Status = model.FollowRequestRejected
		req.RejectedAt = &now
		return tx.Model(&req).Updates(map[string]any{
			"status":      model.FollowRequestRejected,
			"rejected_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Cancel withdraws a pending request. It reports whether one existed.
func (r *FollowRequestRepository) Cancel(ctx context.Context, fromID, toID uint64) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("from_id=? AND to_id=? AND status=?", fromID, toID, model.FollowRequestPending).
		Delete(&model.FollowRequest{})
	return res.RowsAffected > 0, res.Error
}

// Status returns the request from→to, or nil when there is none.
func (r *FollowRequestRepository) Status(ctx context.Context, fromID, toID uint64) (*model.FollowRequest, error) {
	var req model.FollowRequest
	err := r.DB.WithContext(ctx).Where("from_id=? AND to_id=?", fromID, toID).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListPending lists requests waiting on toID with their senders.
func (r *FollowRequestRepository) ListPending(ctx context.Context, toID uint64) ([]RequestEntry, error) {
	return r.list(ctx, "fr.to_id", "fr.from_id", toID)
}

// ListSent lists fromID's pending requests with their recipients.
func (r *FollowRequestRepository) ListSent(ctx context.Context, fromID uint64) ([]RequestEntry, error) {
	return r.list(ctx, "fr.from_id", "fr.to_id", fromID)
}

func (r *FollowRequestRepository) list(ctx context.Context, ownerCol, otherCol string, id uint64) ([]RequestEntry, error) {
	var rows []RequestEntry
	err := r.DB.WithContext(ctx).Table("follow_requests AS fr").
		Select("fr.id AS request_id, a.id, a.username, a.profile_image, fr.created_at").
		Joins("JOIN accounts a ON a.id = "+otherCol).
		Where(ownerCol+"=? AND fr.status=?", id, model.FollowRequestPending).
		Order("fr.created_at DESC, fr.id DESC").
		Scan(&rows).Error
	return rows, err
}
