package mysql

import (
	"testing"
	"time"

	"gigconnect/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedGig(t *testing.T, db *gorm.DB, organizer uint64, title string, created time.Time, tagIDs ...uint64) *model.Gig {
	t.Helper()
	g := &model.Gig{Title: title, OrganizerID: organizer, Date: created.Add(72 * time.Hour), IsOpen: true, CreatedAt: created}
	require.NoError(t, (&GigRepository{DB: db}).Create(ctx, g, tagIDs))
	return g
}

func TestGigRepository_CRUD(t *testing.T) {
	db := newTestDB(t)
	repo := &GigRepository{DB: db}
	org := seedAccount(t, db, "org")
	jazz := seedTag(t, db, "jazz")
	rock := seedTag(t, db, "rock")

	g := seedGig(t, db, org.ID, "Late set", testNow, jazz.ID, 9999)
	got, err := repo.FindByID(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1, "unknown tag ids are ignored")
	assert.Equal(t, "jazz", got.Tags[0].Name)

	tags := []uint64{rock.ID}
	require.NoError(t, repo.Update(ctx, g.ID, map[string]any{"title": "Early set", "is_open": false}, &tags))
	got, err = repo.FindByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Early set", got.Title)
	assert.False(t, got.IsOpen)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "rock", got.Tags[0].Name)

	seedGig(t, db, org.ID, "Open mic", testNow, jazz.ID)
	list, total, err := repo.List(ctx, GigFilter{OpenOnly: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Open mic", list[0].Title)

	list, total, err = repo.List(ctx, GigFilter{TagIDs: []uint64{rock.ID}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, g.ID, list[0].ID)

	require.NoError(t, repo.Delete(ctx, g.ID))
	_, total, err = repo.List(ctx, GigFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	var links int64
	require.NoError(t, db.Table("gig_tags").Where("gig_id=?", g.ID).Count(&links).Error)
	assert.Zero(t, links)
}

func TestReviewRepository_RatingAndActivity(t *testing.T) {
	db := newTestDB(t)
	gigs := &GigRepository{DB: db}
	reviews := &ReviewRepository{DB: db}

	org := seedAccount(t, db, "org")
	r1 := seedAccount(t, db, "r1")
	r2 := seedAccount(t, db, "r2")

	old := seedGig(t, db, org.ID, "old gig", testNow.AddDate(0, 0, -40))
	fresh := seedGig(t, db, org.ID, "fresh gig", testNow.Add(-time.Hour))

	rv1 := &model.Review{ReviewerID: r1.ID, ReviewedID: org.ID, GigID: old.ID, Rating: 4, CreatedAt: testNow.AddDate(0, 0, -35)}
	rv2 := &model.Review{ReviewerID: r2.ID, ReviewedID: org.ID, GigID: old.ID, Rating: 5, CreatedAt: testNow.AddDate(0, 0, -2)}
	require.NoError(t, reviews.Create(ctx, rv1))
	require.NoError(t, reviews.Create(ctx, rv2))
	assert.ErrorIs(t, reviews.Create(ctx, &model.Review{ReviewerID: r1.ID, ReviewedID: org.ID, GigID: old.ID, Rating: 1}), ErrDuplicateReview)

	acc := reload(t, db, org.ID)
	assert.Equal(t, 4.5, acc.Rating)
	assert.Equal(t, 2, acc.TotalReviews)

	acts, err := gigs.GigActivity(ctx, []uint64{org.ID}, false, testNow.AddDate(0, 0, -30), 10)
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, fresh.ID, acts[0].ID, "newest first")
	assert.Equal(t, "org", acts[0].OrganizerUsername)
	assert.Equal(t, 0, acts[0].ReviewCount)
	assert.Equal(t, old.ID, acts[1].ID)
	assert.Equal(t, 2, acts[1].ReviewCount)
	assert.Equal(t, 1, acts[1].RecentReviews)

	acts, err = gigs.GigActivity(ctx, []uint64{org.ID}, false, testNow, 1)
	require.NoError(t, err)
	assert.Len(t, acts, 1, "limit bounds the pull")

	ra, err := reviews.ReviewActivity(ctx, []uint64{r1.ID, r2.ID}, 10)
	require.NoError(t, err)
	require.Len(t, ra, 2)
	assert.Equal(t, rv2.ID, ra[0].ID)
	assert.Equal(t, "r2", ra[0].ReviewerUsername)
	assert.Equal(t, "org", ra[0].ReviewedUsername)
	assert.Equal(t, "old gig", ra[0].GigTitle)

	list, total, err := reviews.List(ctx, ReviewFilter{ReviewerID: r1.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, rv1.ID, list[0].ID)

	require.NoError(t, reviews.Delete(ctx, rv2))
	acc = reload(t, db, org.ID)
	assert.Equal(t, 4.0, acc.Rating)
	assert.Equal(t, 1, acc.TotalReviews)
}
