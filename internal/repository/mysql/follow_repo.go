package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gigconnect/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FollowRepository struct {
	DB *gorm.DB
}

// AccountEntry is one row of a follower, following, request or block list.
type AccountEntry struct {
	EdgeID       uint64    `json:"-"`
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	ProfileImage string    `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
}

// Follow sets the edge to followed (idempotent). changed is true only when
// the edge switched from absent or unfollowed to followed.
func (r *FollowRepository) Follow(ctx context.Context, followerID, followeeID uint64) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		changed, err = followTx(tx, followerID, followeeID)
		return err
	})
	return changed, err
}

// Unfollow soft-deletes the edge and drops the accepted request behind it so
// that a new request can be sent.
func (r *FollowRepository) Unfollow(ctx context.Context, followerID, followeeID uint64) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if changed, err = unfollowTx(tx, followerID, followeeID); err != nil {
			return err
		}
		return tx.Where("from_id=? AND to_id=?", followerID, followeeID).
			Delete(&model.FollowRequest{}).Error
	})
	return changed, err
}

func (r *FollowRepository) IsFollowing(ctx context.Context, followerID, followeeID uint64) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).
		Model(&model.Follow{}).
		Where("follower_id=? AND followee_id=? AND status=1", followerID, followeeID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListFollowings pages the accounts userID follows, newest edge first.
// next is 0 when there is no further page.
func (r *FollowRepository) ListFollowings(ctx context.Context, userID uint64, cursor uint64, limit int) ([]AccountEntry, uint64, error) {
	return r.listEdges(ctx, "f.follower_id", "f.followee_id", userID, cursor, limit)
}

// ListFollowers pages the accounts following userID, newest edge first.
func (r *FollowRepository) ListFollowers(ctx context.Context, userID uint64, cursor uint64, limit int) ([]AccountEntry, uint64, error) {
	return r.listEdges(ctx, "f.followee_id", "f.follower_id", userID, cursor, limit)
}

func (r *FollowRepository) listEdges(ctx context.Context, ownerCol, otherCol string, userID, cursor uint64, limit int) ([]AccountEntry, uint64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := r.DB.WithContext(ctx).Table("follow AS f").
		Select("f.id AS edge_id, a.id, a.username, a.profile_image, f.created_at").
		Joins("JOIN accounts a ON a.id = "+otherCol).
		Where(ownerCol+"=? AND f.status=1", userID)
	if cursor > 0 {
		q = q.Where("f.id < ?", cursor)
	}
	var rows []AccountEntry
	// limit+1 tells us whether another page exists
	if err := q.Order("f.id DESC").Limit(limit + 1).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	var next uint64
	if len(rows) > limit {
		next = rows[limit-1].EdgeID
		rows = rows[:limit]
	}
	return rows, next, nil
}

// MutualFollowers lists accounts that follow both a and b.
func (r *FollowRepository) MutualFollowers(ctx context.Context, a, b uint64) ([]AccountEntry, error) {
	sub := func(id uint64) *gorm.DB {
		return r.DB.Model(&model.Follow{}).Select("follower_id").Where("followee_id=? AND status=1", id)
	}
	var rows []AccountEntry
	err := r.DB.WithContext(ctx).Model(&model.Account{}).
		Select("id, username, profile_image, created_at").
		Where("id IN (?) AND id IN (?)", sub(a), sub(b)).
		Order("username ASC").
		Scan(&rows).Error
	return rows, err
}

func followTx(tx *gorm.DB, followerID, followeeID uint64) (bool, error) {
	var rel model.Follow
	// select for update keeps concurrent follow/unfollow of one pair serial
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("follower_id=? AND followee_id=?", followerID, followeeID).
		First(&rel).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		rel = model.Follow{FollowerID: followerID, FolloweeID: followeeID, Status: 1}
		if err = tx.Create(&rel).Error; err != nil {
			return false, err
		}
	case err != nil:
		return false, err
	case rel.Status == 1:
		return false, nil
	default:
		if err = tx.Model(&model.Follow{}).
			Where("id=? AND status=0", rel.ID).
			Update("status", 1).Error; err != nil {
			return false, err
		}
	}
	if err = adjustCounts(tx, followerID, followeeID, +1); err != nil {
		return false, err
	}
	return true, insertOutbox(tx, model.EventFollow, followerID, followeeID, nil)
}

func unfollowTx(tx *gorm.DB, followerID, followeeID uint64) (bool, error) {
	var rel model.Follow
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("follower_id=? AND followee_id=?", followerID, followeeID).
		First(&rel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if rel.Status == 0 {
		return false, nil
	}
	if err = tx.Model(&model.Follow{}).
		Where("id=? AND status=1", rel.ID).
		Update("status", 0).Error; err != nil {
		return false, err
	}
	if err = adjustCounts(tx, followerID, followeeID, -1); err != nil {
		return false, err
	}
	return true, insertOutbox(tx, model.EventUnfollow, followerID, followeeID, nil)
}

// adjustCounts moves the cached counters, never below zero.
func adjustCounts(tx *gorm.DB, followerID, followeeID uint64, delta int64) error {
	if err := tx.Model(&model.Account{}).
		Where("id=?", followerID).
		UpdateColumn("following_count", clampedAdd("following_count", delta)).Error; err != nil {
		return err
	}
	return tx.Model(&model.Account{}).
		Where("id=?", followeeID).
		UpdateColumn("follower_count", clampedAdd("follower_count", delta)).Error
}

func clampedAdd(col string, delta int64) clause.Expr {
	return gorm.Expr("CASE WHEN "+col+" + ? < 0 THEN 0 ELSE "+col+" + ? END", delta, delta)
}

// insertOutbox records a social event in the same transaction as the change.
func insertOutbox(tx *gorm.DB, event string, actor, target uint64, extra map[string]any) error {
	body := map[string]any{
		"event_id":   uuid.NewString(),
		"event_type": event,
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
		"actor":      actor,
		"target":     target,
	}
	for k, v := range extra {
		body[k] = v
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return tx.Create(&model.SocialOutbox{
		EventType: event,
		ActorID:   actor,
		TargetID:  target,
		Payload:   string(payload),
		Status:    OutboxPending,
	}).Error
}
