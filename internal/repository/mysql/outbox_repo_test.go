package mysql

import (
	"testing"

	"gigconnect/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxRepository_RetryWindow(t *testing.T) {
	db := newTestDB(t)
	repo := &OutboxRepository{DB: db}

	rows := []model.SocialOutbox{
		{EventType: model.EventFollow, Payload: "{}", Status: OutboxPending},
		{EventType: model.EventFollow, Payload: "{}", Status: OutboxSent},
		{EventType: model.EventFollow, Payload: "{}", Status: OutboxFailed, Retry: 1},
		{EventType: model.EventFollow, Payload: "{}", Status: OutboxFailed, Retry: MaxOutboxRetry},
	}
	require.NoError(t, db.Create(&rows).Error)

	list, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, rows[0].ID, list[0].ID)
	assert.Equal(t, rows[2].ID, list[1].ID)

	require.NoError(t, repo.MarkSent(ctx, rows[0].ID))
	require.NoError(t, repo.MarkFailed(ctx, rows[2].ID))

	var failed model.SocialOutbox
	require.NoError(t, db.First(&failed, rows[2].ID).Error)
	assert.Equal(t, 2, failed.Retry)

	list, err = repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rows[2].ID, list[0].ID)
}

func TestFollowCountReconcilerRepo(t *testing.T) {
	db := newTestDB(t)
	repo := &FollowCountReconcilerRepo{DB: db}
	a := seedAccount(t, db, "a")
	b := seedAccount(t, db, "b")
	seedFollow(t, db, a.ID, b.ID)

	// drift the cached counters
	require.NoError(t, db.Model(&model.Account{}).Where("id=?", b.ID).
		UpdateColumn("follower_count", 9).Error)

	list, last, err := repo.ReconcileList(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, last)

	list, last, err = repo.ReconcileList(ctx, 10, last)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.EqualValues(t, 9, list[0].FollowerCount)

	n, err := repo.RealFollowers(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = repo.RealFollowings(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, repo.FixFollowerCount(ctx, b.ID, 1))
	assert.EqualValues(t, 1, reload(t, db, b.ID).FollowerCount)

	list, same, err := repo.ReconcileList(ctx, 10, last)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, last, same)
}
