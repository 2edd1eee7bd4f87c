package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"gigconnect/internal/model"
	"gigconnect/internal/repository/mysql"

	"gorm.io/gorm"
)

var ctx = context.Background()

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := testNow.Add(-time.Duration(n) * 24 * time.Hour)
	return &t
}

func ptr[T any](v T) *T { return &v }

type edge struct{ from, to uint64 }

// fakeGraph is an in-memory SocialGraph.
type fakeGraph struct {
	accounts map[uint64]*model.Account
	follows  map[edge]bool
	blocks   map[edge]bool
	skills   map[uint64][]uint64
	err      error
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		accounts: map[uint64]*model.Account{},
		follows:  map[edge]bool{},
		blocks:   map[edge]bool{},
		skills:   map[uint64][]uint64{},
	}
}

func (g *fakeGraph) add(id uint64, username string, opts ...func(*model.Account)) *model.Account {
	a := &model.Account{ID: id, Username: username}
	for _, o := range opts {
		o(a)
	}
	g.accounts[id] = a
	return a
}

func (g *fakeGraph) follow(from uint64, to ...uint64) {
	for _, t := range to {
		g.follows[edge{from, t}] = true
	}
}

func (g *fakeGraph) GetAccount(_ context.Context, id uint64) (*model.Account, error) {
	a, ok := g.accounts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (g *fakeGraph) edges(m map[edge]bool, match func(edge) (uint64, bool)) []uint64 {
	var out []uint64
	for e := range m {
		if id, ok := match(e); ok {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

func (g *fakeGraph) FollowerIDs(_ context.Context, id uint64) ([]uint64, error) {
	return g.edges(g.follows, func(e edge) (uint64, bool) { return e.from, e.to == id }), g.err
}

func (g *fakeGraph) FollowingIDs(_ context.Context, id uint64) ([]uint64, error) {
	return g.edges(g.follows, func(e edge) (uint64, bool) { return e.to, e.from == id }), g.err
}

func (g *fakeGraph) BlockIDs(_ context.Context, id uint64) ([]uint64, error) {
	return g.edges(g.blocks, func(e edge) (uint64, bool) { return e.to, e.from == id }), nil
}

func (g *fakeGraph) BlockedByIDs(_ context.Context, id uint64) ([]uint64, error) {
	return g.edges(g.blocks, func(e edge) (uint64, bool) { return e.from, e.to == id }), nil
}

func (g *fakeGraph) SkillIDs(_ context.Context, id uint64) ([]uint64, error) {
	return g.skills[id], nil
}

func (g *fakeGraph) Candidates(_ context.Context, q mysql.CandidateQuery) ([]model.Account, error) {
	var out []model.Account
	for _, a := range g.accounts {
		if slices.Contains(q.Exclude, a.ID) {
			continue
		}
		if q.ActiveSince != nil && (a.LastActiveAt == nil || a.LastActiveAt.Before(*q.ActiveSince)) {
			continue
		}
		if s := strings.ToLower(q.Query); s != "" &&
			!strings.Contains(strings.ToLower(a.Username), s) && !strings.Contains(strings.ToLower(a.Bio), s) {
			continue
		}
		if q.SkillID > 0 && !slices.Contains(g.skills[a.ID], q.SkillID) {
			continue
		}
		if q.City != "" && !strings.EqualFold(a.City, q.City) {
			continue
		}
		if q.Country != "" && !strings.EqualFold(a.Country, q.Country) {
			continue
		}
		out = append(out, *a)
	}
	slices.SortFunc(out, func(a, b model.Account) int { return strings.Compare(a.Username, b.Username) })
	return out, nil
}

func (g *fakeGraph) FollowerIDsOf(ctx context.Context, ids []uint64) (map[uint64][]uint64, error) {
	out := map[uint64][]uint64{}
	for _, id := range ids {
		out[id], _ = g.FollowerIDs(ctx, id)
	}
	return out, nil
}

func (g *fakeGraph) SkillIDsOf(_ context.Context, ids []uint64) (map[uint64][]uint64, error) {
	out := map[uint64][]uint64{}
	for _, id := range ids {
		out[id] = g.skills[id]
	}
	return out, nil
}

func (g *fakeGraph) ActiveFollowerCounts(ctx context.Context, ids []uint64, since time.Time) (map[uint64]int, error) {
	out := map[uint64]int{}
	for _, id := range ids {
		followers, _ := g.FollowerIDs(ctx, id)
		for _, f := range followers {
			if a := g.accounts[f]; a != nil && a.LastActiveAt != nil && !a.LastActiveAt.Before(since) {
				out[id]++
			}
		}
	}
	return out, nil
}

// fakeCache is an in-memory SuggestionCache.
type fakeCache struct {
	mu      sync.Mutex
	data    map[uint64][]byte
	err     error
	deleted []uint64
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[uint64][]byte{}} }

func (c *fakeCache) Get(_ context.Context, id uint64) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, false, c.err
	}
	b, ok := c.data[id]
	return b, ok, nil
}

func (c *fakeCache) Set(_ context.Context, id uint64, body []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.data[id] = body
	return nil
}

func (c *fakeCache) Delete(_ context.Context, ids ...uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, ids...)
	for _, id := range ids {
		delete(c.data, id)
	}
	return c.err
}

// Invalidate lets the fake stand in for the suggestion service.
func (c *fakeCache) Invalidate(ctx context.Context, ids ...uint64) {
	_ = c.Delete(ctx, ids...)
}

var errCacheDown = errors.New("cache down")

type fakeActivity struct {
	gigs    []mysql.GigActivity
	reviews []mysql.ReviewActivity
	authors []uint64
}

func (f *fakeActivity) GigActivity(_ context.Context, organizerIDs []uint64, _ bool, _ time.Time, limit int) ([]mysql.GigActivity, error) {
	f.authors = organizerIDs
	var out []mysql.GigActivity
	for _, g := range f.gigs {
		if slices.Contains(organizerIDs, g.OrganizerID) && len(out) < limit {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeActivity) ReviewActivity(_ context.Context, reviewerIDs []uint64, limit int) ([]mysql.ReviewActivity, error) {
	var out []mysql.ReviewActivity
	for _, r := range f.reviews {
		if slices.Contains(reviewerIDs, r.ReviewerID) && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}
