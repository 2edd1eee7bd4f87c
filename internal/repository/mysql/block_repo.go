package mysql

import (
	"context"

	"gigconnect/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BlockRepository struct {
	DB *gorm.DB
}

// Block records blocker→blocked and severs every follow edge and request
// between the pair, in both directions. changed is false when the block
// already existed.
func (r *BlockRepository) Block(ctx context.Context, blockerID, blockedID uint64) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "blocker_id"}, {Name: "blocked_id"}},
			DoNothing: true,
		}).Create(&model.Block{BlockerID: blockerID, BlockedID: blockedID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		if _, err := unfollowTx(tx, blockerID, blockedID); err != nil {
			return err
		}
		if _, err := unfollowTx(tx, blockedID, blockerID); err != nil {
			return err
		}
		if err := tx.Where("(from_id=? AND to_id=?) OR (from_id=? AND to_id=?)",
			blockerID, blockedID, blockedID, blockerID).
			Delete(&model.FollowRequest{}).Error; err != nil {
			return err
		}
		return insertOutbox(tx, model.EventBlock, blockerID, blockedID, nil)
	})
	return changed, err
}

// Unblock removes blocker→blocked. Edges severed by Block are not restored.
func (r *BlockRepository) Unblock(ctx context.Context, blockerID, blockedID uint64) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("blocker_id=? AND blocked_id=?", blockerID, blockedID).
		Delete(&model.Block{})
	return res.RowsAffected > 0, res.Error
}

// IsBlockedEither reports whether either account blocks the other.
func (r *BlockRepository) IsBlockedEither(ctx context.Context, a, b uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Block{}).
		Where("(blocker_id=? AND blocked_id=?) OR (blocker_id=? AND blocked_id=?)", a, b, b, a).
		Count(&n).Error
	return n > 0, err
}

// IsBlocking reports whether blocker has blocked target.
func (r *BlockRepository) IsBlocking(ctx context.Context, blockerID, targetID uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Block{}).
		Where("blocker_id=? AND blocked_id=?", blockerID, targetID).
		Count(&n).Error
	return n > 0, err
}

// ListBlocked returns the accounts blockerID blocks, by username.
func (r *BlockRepository) ListBlocked(ctx context.Context, blockerID uint64) ([]AccountEntry, error) {
	var rows []AccountEntry
	err := r.DB.WithContext(ctx).Table("blocks AS b").
		Select("b.id AS edge_id, a.id, a.username, a.profile_image, b.created_at").
		Joins("JOIN accounts a ON a.id = b.blocked_id").
		Where("b.blocker_id=?", blockerID).
		Order("a.username ASC, a.id ASC").
		Scan(&rows).Error
	return rows, err
}
