package service

import (
	"testing"
	"time"

	"gigconnect/internal/repository/mysql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedFixture() (*fakeGraph, *fakeActivity) {
	g := newFakeGraph()
	g.add(1, "viewer")
	g.add(2, "organizer")
	g.add(3, "critic")
	g.add(4, "blocked")
	g.follow(1, 2, 3, 4)
	g.blocks[edge{1, 4}] = true

	oneDay := *daysAgo(1)
	act := &fakeActivity{
		gigs: []mysql.GigActivity{
			{ID: 10, Title: "Jazz night", OrganizerID: 2, OrganizerUsername: "organizer", CreatedAt: oneDay, ReviewCount: 2, RecentReviews: 1},
			{ID: 11, Title: "Old gig", OrganizerID: 2, OrganizerUsername: "organizer", CreatedAt: *daysAgo(3)},
			{ID: 12, Title: "Hidden", OrganizerID: 4, OrganizerUsername: "blocked", CreatedAt: testNow.Add(-time.Hour)},
		},
		reviews: []mysql.ReviewActivity{
			{ID: 20, ReviewerID: 3, ReviewerUsername: "critic", ReviewedID: 2, ReviewedUsername: "organizer", Rating: 4, Comment: "tight band", CreatedAt: oneDay.Add(time.Hour)},
			{ID: 21, ReviewerID: 1, ReviewerUsername: "viewer", ReviewedID: 2, Rating: 5, CreatedAt: testNow.Add(-2 * time.Hour)},
		},
	}
	return g, act
}

func newTestFeed(g *fakeGraph, act *fakeActivity) *FeedService {
	s := NewFeedService(g, act, act, FeedConfig{GigLimit: 500, ReviewLimit: 200, PageSize: 10, MaxPageSize: 50}, nil)
	s.now = func() time.Time { return testNow }
	return s
}

func feedKeys(items []FeedItem) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.Type+":"+it.Title+it.Username)
	}
	return out
}

func TestFeed_RecentOrderSkipsBlockedAndSelf(t *testing.T) {
	g, act := feedFixture()
	page, err := newTestFeed(g, act).Feed(ctx, FeedQuery{ViewerID: 1})
	require.NoError(t, err)

	require.Len(t, page.Results, 3)
	assert.Equal(t, uint64(20), page.Results[0].ID)
	assert.Equal(t, uint64(10), page.Results[1].ID)
	assert.Equal(t, uint64(11), page.Results[2].ID)
	assert.NotContains(t, act.authors, uint64(4))

	review := page.Results[0]
	assert.Equal(t, FeedTypeReview, review.Type)
	require.NotNil(t, review.Rating)
	assert.Equal(t, 4, *review.Rating)
	assert.Equal(t, "organizer", *review.ReviewedUser)
	assert.Nil(t, review.Date)
}

func TestFeed_TrendingScores(t *testing.T) {
	g, act := feedFixture()
	page, err := newTestFeed(g, act).Feed(ctx, FeedQuery{ViewerID: 1, Sort: "trending"})
	require.NoError(t, err)

	require.Len(t, page.Results, 3)
	assert.Equal(t, uint64(10), page.Results[0].ID)
	assert.Equal(t, 37.0, page.Results[0].Score)
	assert.Equal(t, uint64(20), page.Results[1].ID)
	assert.Equal(t, 14.0, page.Results[1].Score)
	assert.Equal(t, 10.0, page.Results[2].Score) // 30 / 3 days
}

func TestFeed_SinceAndTypeFilters(t *testing.T) {
	g, act := feedFixture()
	s := newTestFeed(g, act)

	page, err := s.Feed(ctx, FeedQuery{ViewerID: 1, Since: "24h"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Count, feedKeys(page.Results))

	page, err = s.Feed(ctx, FeedQuery{ViewerID: 1, Since: "bogus", Type: "gigs"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Count)
	for _, it := range page.Results {
		assert.Equal(t, FeedTypeGig, it.Type)
	}

	page, err = s.Feed(ctx, FeedQuery{ViewerID: 1, Type: "review", IncludeSelf: true})
	require.NoError(t, err)
	require.Equal(t, 2, page.Count)
	assert.Equal(t, uint64(21), page.Results[0].ID)
}

func TestFeed_Paging(t *testing.T) {
	g, act := feedFixture()
	page, err := newTestFeed(g, act).Feed(ctx, FeedQuery{ViewerID: 1, Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Count)
	require.Len(t, page.Results, 1)
	assert.Nil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.Equal(t, 1, *page.Previous)
}

func TestFeed_NoFollowing(t *testing.T) {
	g := newFakeGraph()
	g.add(1, "loner")
	page, err := newTestFeed(g, &fakeActivity{}).Feed(ctx, FeedQuery{ViewerID: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Count)
	assert.Empty(t, page.Results)
}
