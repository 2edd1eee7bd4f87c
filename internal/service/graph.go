package service

import (
	"context"
	"time"

	"gigconnect/internal/model"
	"gigconnect/internal/ranking"
	"gigconnect/internal/repository/mysql"

	"golang.org/x/sync/errgroup"
)

// SocialGraph is the read side of the follow/block/skill graph.
type SocialGraph interface {
	GetAccount(ctx context.Context, id uint64) (*model.Account, error)
	FollowerIDs(ctx context.Context, id uint64) ([]uint64, error)
	FollowingIDs(ctx context.Context, id uint64) ([]uint64, error)
	BlockIDs(ctx context.Context, id uint64) ([]uint64, error)
	BlockedByIDs(ctx context.Context, id uint64) ([]uint64, error)
	SkillIDs(ctx context.Context, id uint64) ([]uint64, error)
	Candidates(ctx context.Context, q mysql.CandidateQuery) ([]model.Account, error)
	FollowerIDsOf(ctx context.Context, ids []uint64) (map[uint64][]uint64, error)
	SkillIDsOf(ctx context.Context, ids []uint64) (map[uint64][]uint64, error)
	ActiveFollowerCounts(ctx context.Context, ids []uint64, since time.Time) (map[uint64]int, error)
}

// SuggestionCache holds rendered advanced-suggestion responses per viewer.
type SuggestionCache interface {
	Get(ctx context.Context, viewerID uint64) ([]byte, bool, error)
	Set(ctx context.Context, viewerID uint64, body []byte, ttl time.Duration) error
	Delete(ctx context.Context, viewerIDs ...uint64) error
}

// viewer is everything the rankers need to know about the requesting account.
type viewer struct {
	account   *model.Account
	followers ranking.IDSet
	following ranking.IDSet
	skills    ranking.IDSet
	blocked   ranking.IDSet // both directions
}

func (v *viewer) point() *ranking.Coordinates {
	return ranking.PointOf(v.account.Latitude, v.account.Longitude)
}

// exclusions is self, blocked and, when withFollowing, already-followed ids.
func (v *viewer) exclusions(withFollowing bool) []uint64 {
	ids := ranking.NewIDSet(v.account.ID)
	ids.Add(v.blocked.Slice()...)
	if withFollowing {
		ids.Add(v.following.Slice()...)
	}
	return ids.Slice()
}

// loadViewer fetches the viewer's account and edge sets concurrently.
func loadViewer(ctx context.Context, graph SocialGraph, id uint64) (*viewer, error) {
	acc, err := graph.GetAccount(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrAccountNotFound, "load viewer")
	}

	var followers, following, skills, blocks, blockedBy []uint64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { followers, err = graph.FollowerIDs(gctx, id); return })
	g.Go(func() (err error) { following, err = graph.FollowingIDs(gctx, id); return })
	g.Go(func() (err error) { skills, err = graph.SkillIDs(gctx, id); return })
	g.Go(func() (err error) { blocks, err = graph.BlockIDs(gctx, id); return })
	g.Go(func() (err error) { blockedBy, err = graph.BlockedByIDs(gctx, id); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	blocked := ranking.NewIDSet(blocks...)
	blocked.Add(blockedBy...)
	return &viewer{
		account:   acc,
		followers: ranking.NewIDSet(followers...),
		following: ranking.NewIDSet(following...),
		skills:    ranking.NewIDSet(skills...),
		blocked:   blocked,
	}, nil
}

// candidateSignals loads follower and skill ids for a candidate batch.
func candidateSignals(ctx context.Context, graph SocialGraph, ids []uint64) (map[uint64][]uint64, map[uint64][]uint64, error) {
	var followers, skills map[uint64][]uint64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { followers, err = graph.FollowerIDsOf(gctx, ids); return })
	g.Go(func() (err error) { skills, err = graph.SkillIDsOf(gctx, ids); return })
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return followers, skills, nil
}

func accountIDs(list []model.Account) []uint64 {
	ids := make([]uint64, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	return ids
}

func imageOrNil(url string) *string {
	if url == "" {
		return nil
	}
	return &url
}
