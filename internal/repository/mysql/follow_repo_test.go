package mysql

import (
	"encoding/json"
	"testing"

	"gigconnect/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository_FollowUnfollow(t *testing.T) {
	db := newTestDB(t)
	repo := &FollowRepository{DB: db}
	a := seedAccount(t, db, "a")
	b := seedAccount(t, db, "b")

	changed, err := repo.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, changed, "second follow is a no-op")

	assert.EqualValues(t, 1, reload(t, db, a.ID).FollowingCount)
	assert.EqualValues(t, 1, reload(t, db, b.ID).FollowerCount)

	ok, err := repo.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	changed, err = repo.Unfollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = repo.Unfollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	assert.EqualValues(t, 0, reload(t, db, a.ID).FollowingCount)
	assert.EqualValues(t, 0, reload(t, db, b.ID).FollowerCount)

	// refollow reuses the soft-deleted edge
	changed, err = repo.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	var edges int64
	require.NoError(t, db.Model(&model.Follow{}).Count(&edges).Error)
	assert.EqualValues(t, 1, edges)

	var events []model.SocialOutbox
	require.NoError(t, db.Order("id ASC").Find(&events).Error)
	require.Len(t, events, 3)
	assert.Equal(t, model.EventFollow, events[0].EventType)
	assert.Equal(t, model.EventUnfollow, events[1].EventType)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(events[0].Payload), &payload))
	assert.EqualValues(t, a.ID, payload["actor"])
	assert.NotEmpty(t, payload["event_id"])
}

func TestFollowRepository_UnfollowDropsAcceptedRequest(t *testing.T) {
	db := newTestDB(t)
	a := seedAccount(t, db, "a")
	b := seedAccount(t, db, "b")
	reqs := &FollowRequestRepository{DB: db}

	req, err := reqs.Send(ctx, a.ID, b.ID, 0, testNow)
	require.NoError(t, err)
	_, err = reqs.Accept(ctx, req.ID, b.ID)
	require.NoError(t, err)

	_, err = (&FollowRepository{DB: db}).Unfollow(ctx, a.ID, b.ID)
	require.NoError(t, err)

	got, err := reqs.Status(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFollowRepository_Lists(t *testing.T) {
	db := newTestDB(t)
	repo := &FollowRepository{DB: db}
	owner := seedAccount(t, db, "owner")
	var fans []*model.Account
	for _, name := range []string{"f1", "f2", "f3", "f4", "f5", "f6", "f7"} {
		f := seedAccount(t, db, name)
		fans = append(fans, f)
		seedFollow(t, db, f.ID, owner.ID)
	}

	var seen []string
	var cursor uint64
	pages := 0
	for {
		rows, next, err := repo.ListFollowers(ctx, owner.ID, cursor, 3)
		require.NoError(t, err)
		for _, r := range rows {
			seen = append(seen, r.Username)
		}
		pages++
		if next == 0 {
			break
		}
		cursor = next
	}
	assert.Equal(t, 3, pages)
	assert.Equal(t, []string{"f7", "f6", "f5", "f4", "f3", "f2", "f1"}, seen, "newest edge first")

	following, next, err := repo.ListFollowings(ctx, fans[0].ID, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, next)
	require.Len(t, following, 1)
	assert.Equal(t, owner.ID, following[0].ID)
}

func TestFollowRepository_Mutuals(t *testing.T) {
	db := newTestDB(t)
	repo := &FollowRepository{DB: db}
	a := seedAccount(t, db, "a")
	b := seedAccount(t, db, "b")
	x := seedAccount(t, db, "x")
	y := seedAccount(t, db, "y")
	z := seedAccount(t, db, "z")

	// x and y follow both a and b; z only follows a
	for _, f := range []uint64{x.ID, y.ID} {
		seedFollow(t, db, f, a.ID)
		seedFollow(t, db, f, b.ID)
	}
	seedFollow(t, db, z.ID, a.ID)

	mf, err := repo.MutualFollowers(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.Len(t, mf, 2)
	assert.Equal(t, "x", mf[0].Username)
	assert.Equal(t, "y", mf[1].Username)
}
