package service

import (
	"fmt"
	"testing"

	"gigconnect/internal/model"
	"gigconnect/internal/repository/redis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerInput(name string) RegisterInput {
	return RegisterInput{Username: name, Email: name + "@example.com", Password: "correct horse", Role: RoleMusician, City: "Lagos"}
}

func TestRegisterValidation(t *testing.T) {
	s := newStack(t, 0)

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"short username", func(in *RegisterInput) { in.Username = "ab" }},
		{"bad email", func(in *RegisterInput) { in.Email = "nope" }},
		{"short password", func(in *RegisterInput) { in.Password = "123" }},
		{"unknown role", func(in *RegisterInput) { in.Role = "producer" }},
		{"unknown skill", func(in *RegisterInput) { in.Skills = []uint64{42} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := registerInput("valid_name")
			tt.mutate(&in)
			_, err := s.users.Register(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := s.users.Register(ctx, registerInput("ann"))
	require.NoError(t, err)
	_, err = s.users.Register(ctx, registerInput("ann"))
	assert.ErrorIs(t, err, ErrAccountTaken)
}

func TestLoginSessionLifecycle(t *testing.T) {
	s := newStack(t, 0)
	acc, err := s.users.Register(ctx, registerInput("ann"))
	require.NoError(t, err)

	_, err = s.users.Login(ctx, "ann", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.users.Login(ctx, "ghost", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	first, err := s.users.Login(ctx, "ann@example.com", "correct horse")
	require.NoError(t, err)
	id, err := s.users.Authenticate(ctx, first.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, id)

	var stored model.Account
	require.NoError(t, s.db.First(&stored, acc.ID).Error)
	require.NotNil(t, stored.LastActiveAt)

	// a newer login replaces the session
	second, err := s.users.Login(ctx, "ann", "correct horse")
	require.NoError(t, err)
	_, err = s.users.Authenticate(ctx, first.AccessToken)
	assert.ErrorIs(t, err, ErrSessionRevoked)

	refreshed, err := s.users.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)
	_, err = s.users.Authenticate(ctx, refreshed.AccessToken)
	require.NoError(t, err)
	_, err = s.users.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	require.NoError(t, s.users.ChangePassword(ctx, acc.ID, "correct horse", "battery staple"))
	_, err = s.users.Authenticate(ctx, refreshed.AccessToken)
	assert.ErrorIs(t, err, ErrSessionRevoked)
	_, err = s.users.Login(ctx, "ann", "battery staple")
	require.NoError(t, err)

	assert.ErrorIs(t, s.users.ChangePassword(ctx, acc.ID, "nope", "whatever123"), ErrInvalidInput)

	require.NoError(t, s.users.Logout(ctx, acc.ID))
	assert.False(t, s.mr.Exists(fmt.Sprintf("%s:%d", redis.SessionTokenPrefix, acc.ID)))
}

func TestAuthenticateRedisDown(t *testing.T) {
	s := newStack(t, 0)
	_, err := s.users.Register(ctx, registerInput("ann"))
	require.NoError(t, err)
	pair, err := s.users.Login(ctx, "ann", "correct horse")
	require.NoError(t, err)

	s.mr.SetError("ERR injected failure")
	_, err = s.users.Authenticate(ctx, pair.AccessToken)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}

func TestProfileUpdateAndDelete(t *testing.T) {
	s := newStack(t, 0)
	acc, err := s.users.Register(ctx, registerInput("ann"))
	require.NoError(t, err)
	guitar, err := s.gigs.CreateTag(ctx, "guitar", acc.ID)
	require.NoError(t, err)

	city, available := "Abuja", false
	skills := []uint64{guitar.ID}
	p, err := s.users.UpdateProfile(ctx, acc.ID, ProfileUpdate{City: &city, IsAvailable: &available, Skills: &skills})
	require.NoError(t, err)
	assert.Equal(t, "Abuja", p.City)
	assert.False(t, p.IsAvailable)
	require.Len(t, p.Skills, 1)
	assert.Equal(t, "guitar", p.Skills[0].Name)
	assert.Contains(t, s.cache.deleted, acc.ID)

	bad := "dj"
	_, err = s.users.UpdateProfile(ctx, acc.ID, ProfileUpdate{Role: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, s.users.DeleteAccount(ctx, acc.ID))
	_, err = s.users.Profile(ctx, acc.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestListUsersAndPublicProfile(t *testing.T) {
	s := newStack(t, 0)
	ann, ben, cat, dan := s.account(t, "ann"), s.account(t, "ben"), s.account(t, "cat"), s.account(t, "dan")
	require.NoError(t, s.block.Block(ctx, ann.ID, cat.ID))
	require.NoError(t, s.block.Block(ctx, dan.ID, ann.ID))

	page, err := s.users.ListUsers(ctx, ann.ID, 1, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Count)
	assert.Equal(t, ben.ID, page.Results[0].ID)

	_, err = s.follow.SendRequest(ctx, ann.ID, ben.ID)
	require.NoError(t, err)
	prof, err := s.users.PublicProfile(ctx, ann.ID, ben.ID)
	require.NoError(t, err)
	assert.Equal(t, FollowStatusPending, prof.FollowStatus)
	assert.False(t, prof.IsFollowing)
	assert.False(t, prof.IsOwner)
	assert.Empty(t, prof.RecentReviews)

	anon, err := s.users.PublicProfile(ctx, 0, ben.ID)
	require.NoError(t, err)
	assert.Equal(t, FollowStatusNone, anon.FollowStatus)

	own, err := s.users.PublicProfile(ctx, ben.ID, ben.ID)
	require.NoError(t, err)
	assert.True(t, own.IsOwner)

	_, err = s.users.PublicProfile(ctx, ann.ID, dan.ID)
	assert.ErrorIs(t, err, ErrBlocked)
	_, err = s.users.GetUser(ctx, 999)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
