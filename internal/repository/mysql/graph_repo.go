package mysql

import (
	"context"
	"strings"
	"time"

	"gigconnect/internal/model"

	"gorm.io/gorm"
)

// GraphRepository answers the read-only questions the rankers ask about the
// follow/block/skill graph.
type GraphRepository struct {
	DB *gorm.DB
}

// CandidateQuery narrows the account scan. Zero values disable a filter.
type CandidateQuery struct {
	Exclude     []uint64
	ActiveSince *time.Time
	Query       string // case-insensitive substring of username or bio
	SkillID     uint64
	City        string // case-insensitive exact match
	Country     string
	Limit       int
}

// ownerMember is one (owner, member) row of a grouped id lookup.
type ownerMember struct {
	Owner  uint64
	Member uint64
}

func (r *GraphRepository) GetAccount(ctx context.Context, id uint64) (*model.Account, error) {
	var a model.Account
	if err := r.DB.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FollowingIDs returns the accounts id follows.
func (r *GraphRepository) FollowingIDs(ctx context.Context, id uint64) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_id=? AND status=1", id).
		Pluck("followee_id", &ids).Error
	return ids, err
}

// FollowerIDs returns the accounts following id.
func (r *GraphRepository) FollowerIDs(ctx context.Context, id uint64) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&model.Follow{}).
		Where("followee_id=? AND status=1", id).
		Pluck("follower_id", &ids).Error
	return ids, err
}

// BlockIDs returns the accounts id has blocked.
func (r *GraphRepository) BlockIDs(ctx context.Context, id uint64) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&model.Block{}).
		Where("blocker_id=?", id).
		Pluck("blocked_id", &ids).Error
	return ids, err
}

// BlockedByIDs returns the accounts that have blocked id.
func (r *GraphRepository) BlockedByIDs(ctx context.Context, id uint64) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&model.Block{}).
		Where("blocked_id=?", id).
		Pluck("blocker_id", &ids).Error
	return ids, err
}

func (r *GraphRepository) SkillIDs(ctx context.Context, id uint64) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&model.AccountSkill{}).
		Where("account_id=?", id).
		Pluck("tag_id", &ids).Error
	return ids, err
}

// Candidates scans accounts matching q, ordered by username.
func (r *GraphRepository) Candidates(ctx context.Context, q CandidateQuery) ([]model.Account, error) {
	tx := r.DB.WithContext(ctx).Model(&model.Account{})
	if len(q.Exclude) > 0 {
		tx = tx.Where("id NOT IN ?", q.Exclude)
	}
	if q.ActiveSince != nil {
		tx = tx.Where("last_active_at >= ?", *q.ActiveSince)
	}
	if s := strings.ToLower(strings.TrimSpace(q.Query)); s != "" {
		like := "%" + escapeLike(s) + "%"
		tx = tx.Where("(LOWER(username) LIKE ? ESCAPE '!' OR LOWER(bio) LIKE ? ESCAPE '!')", like, like)
	}
	if q.SkillID > 0 {
		tx = tx.Where("id IN (?)", r.DB.Model(&model.AccountSkill{}).Select("account_id").Where("tag_id=?", q.SkillID))
	}
	if q.City != "" {
		tx = tx.Where("LOWER(city) = ?", strings.ToLower(q.City))
	}
	if q.Country != "" {
		tx = tx.Where("LOWER(country) = ?", strings.ToLower(q.Country))
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	var list []model.Account
	if err := tx.Order("username ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// FollowerIDsOf groups the followers of every id in ids.
func (r *GraphRepository) FollowerIDsOf(ctx context.Context, ids []uint64) (map[uint64][]uint64, error) {
	out := make(map[uint64][]uint64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []ownerMember
	if err := r.DB.WithContext(ctx).Model(&model.Follow{}).
		Select("followee_id AS owner, follower_id AS member").
		Where("followee_id IN ? AND status=1", ids).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.Owner] = append(out[row.Owner], row.Member)
	}
	return out, nil
}

// SkillIDsOf groups the skill tag ids of every id in ids.
func (r *GraphRepository) SkillIDsOf(ctx context.Context, ids []uint64) (map[uint64][]uint64, error) {
	out := make(map[uint64][]uint64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []ownerMember
	if err := r.DB.WithContext(ctx).Model(&model.AccountSkill{}).
		Select("account_id AS owner, tag_id AS member").
		Where("account_id IN ?", ids).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.Owner] = append(out[row.Owner], row.Member)
	}
	return out, nil
}

// ActiveFollowerCounts counts, per id, the followers active since the cutoff.
// ids without active followers are absent from the map.
func (r *GraphRepository) ActiveFollowerCounts(ctx context.Context, ids []uint64, since time.Time) (map[uint64]int, error) {
	out := make(map[uint64]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		Owner uint64
		N     int
	}
	if err := r.DB.WithContext(ctx).Table("follow AS f").
		Select("f.followee_id AS owner, COUNT(*) AS n").
		Joins("JOIN accounts a ON a.id = f.follower_id").
		Where("f.followee_id IN ? AND f.status=1 AND a.last_active_at >= ?", ids, since).
		Group("f.followee_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.Owner] = row.N
	}
	return out, nil
}

// escapeLike uses '!' as the LIKE escape, which MySQL and SQLite read the same way.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
