package service

import (
	"testing"
	"time"

	"gigconnect/internal/model"
	"gigconnect/internal/repository/mysql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGigCRUDAndRecommended(t *testing.T) {
	s := newStack(t, 0)
	org, player := s.account(t, "org"), s.account(t, "player")
	jazz, err := s.gigs.CreateTag(ctx, "jazz", org.ID)
	require.NoError(t, err)
	rock, err := s.gigs.CreateTag(ctx, "rock", 0)
	require.NoError(t, err)
	_, err = s.gigs.CreateTag(ctx, " jazz ", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	date := testNow.Add(72 * time.Hour)
	_, err = s.gigs.Create(ctx, org.ID, GigInput{Title: ptr(""), Date: &date})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.gigs.Create(ctx, org.ID, GigInput{Title: ptr("No date")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	g1, err := s.gigs.Create(ctx, org.ID, GigInput{Title: ptr("Jazz night"), Date: &date, Tags: &[]uint64{jazz.ID}})
	require.NoError(t, err)
	require.Len(t, g1.Tags, 1)
	assert.True(t, g1.IsOpen)
	later := date.Add(24 * time.Hour)
	_, err = s.gigs.Create(ctx, org.ID, GigInput{Title: ptr("Rock show"), Date: &later, Tags: &[]uint64{rock.ID}})
	require.NoError(t, err)

	_, err = s.gigs.Update(ctx, g1.ID, player.ID, GigInput{Title: ptr("Mine now")})
	assert.ErrorIs(t, err, ErrNotOwner)
	updated, err := s.gigs.Update(ctx, g1.ID, org.ID, GigInput{IsOpen: ptr(false), Tags: &[]uint64{jazz.ID, rock.ID}})
	require.NoError(t, err)
	assert.False(t, updated.IsOpen)
	assert.Len(t, updated.Tags, 2)

	all, err := s.gigs.List(ctx, GigQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.Count)
	assert.Equal(t, "Jazz night", all.Results[0].Title)

	open, err := s.gigs.List(ctx, GigQuery{OpenOnly: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, open.Count)

	rec, err := s.gigs.List(ctx, GigQuery{ViewerID: player.ID, Recommended: true})
	require.NoError(t, err)
	assert.Empty(t, rec.Results)

	require.NoError(t, s.db.Create(&model.AccountSkill{AccountID: player.ID, TagID: rock.ID}).Error)
	rec, err = s.gigs.List(ctx, GigQuery{ViewerID: player.ID, Recommended: true})
	require.NoError(t, err)
	assert.EqualValues(t, 2, rec.Count)

	tags, err := s.gigs.Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []TagView{{ID: jazz.ID, Name: "jazz"}, {ID: rock.ID, Name: "rock"}}, tags)

	assert.ErrorIs(t, s.gigs.Delete(ctx, g1.ID, player.ID), ErrNotOwner)
	require.NoError(t, s.gigs.Delete(ctx, g1.ID, org.ID))
	_, err = s.gigs.Get(ctx, g1.ID)
	assert.ErrorIs(t, err, ErrGigNotFound)
}

func TestReviews(t *testing.T) {
	s := newStack(t, 0)
	org, player, fan := s.account(t, "org"), s.account(t, "player"), s.account(t, "fan")
	gig, err := s.gigs.Create(ctx, org.ID, GigInput{Title: ptr("Show"), Date: ptr(testNow)})
	require.NoError(t, err)

	_, err = s.reviews.Create(ctx, org.ID, ReviewInput{ReviewedID: player.ID, GigID: gig.ID, Rating: 6})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.reviews.Create(ctx, org.ID, ReviewInput{ReviewedID: org.ID, GigID: gig.ID, Rating: 5})
	assert.ErrorIs(t, err, ErrSelfAction)
	_, err = s.reviews.Create(ctx, org.ID, ReviewInput{ReviewedID: player.ID, GigID: 999, Rating: 5})
	assert.ErrorIs(t, err, ErrGigNotFound)

	r1, err := s.reviews.Create(ctx, org.ID, ReviewInput{ReviewedID: player.ID, GigID: gig.ID, Rating: 5, Comment: "great"})
	require.NoError(t, err)
	_, err = s.reviews.Create(ctx, org.ID, ReviewInput{ReviewedID: player.ID, GigID: gig.ID, Rating: 4})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.reviews.Create(ctx, fan.ID, ReviewInput{ReviewedID: player.ID, GigID: gig.ID, Rating: 2})
	require.NoError(t, err)

	var p model.Account
	require.NoError(t, s.db.First(&p, player.ID).Error)
	assert.Equal(t, 3.5, p.Rating)
	assert.Equal(t, 2, p.TotalReviews)

	page, err := s.reviews.List(ctx, mysql.ReviewFilter{ReviewedID: player.ID}, 1, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Count)

	prof, err := s.users.PublicProfile(ctx, 0, player.ID)
	require.NoError(t, err)
	require.Len(t, prof.RecentReviews, 2)
	assert.ElementsMatch(t, []string{"org", "fan"}, []string{prof.RecentReviews[0].ReviewerUsername, prof.RecentReviews[1].ReviewerUsername})

	orgProf, err := s.users.PublicProfile(ctx, 0, org.ID)
	require.NoError(t, err)
	require.Len(t, orgProf.RecentGigs, 1)
	assert.Equal(t, "Show", orgProf.RecentGigs[0].Title)

	assert.ErrorIs(t, s.reviews.Delete(ctx, r1.ID, fan.ID), ErrNotOwner)
	require.NoError(t, s.reviews.Delete(ctx, r1.ID, org.ID))
	assert.ErrorIs(t, s.reviews.Delete(ctx, r1.ID, org.ID), ErrReviewNotFound)
	require.NoError(t, s.db.First(&p, player.ID).Error)
	assert.Equal(t, 2.0, p.Rating)
}
