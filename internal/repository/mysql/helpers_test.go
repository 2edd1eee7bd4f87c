package mysql

import (
	"context"
	"testing"
	"time"

	"gigconnect/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ctx = context.Background()

// testNow is stored and compared in UTC so SQLite's text timestamps order correctly.
var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return testNow },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps every statement on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, AutoMigrate(db))
	return db
}

func seedAccount(t *testing.T, db *gorm.DB, username string, mutate ...func(*model.Account)) *model.Account {
	t.Helper()
	a := &model.Account{
		Username:    username,
		Email:       username + "@example.com",
		Password:    "x",
		IsAvailable: true,
	}
	for _, m := range mutate {
		m(a)
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

func activeAt(ts time.Time) func(*model.Account) {
	return func(a *model.Account) { a.LastActiveAt = &ts }
}

func inCity(city string) func(*model.Account) {
	return func(a *model.Account) { a.City = city }
}

func seedFollow(t *testing.T, db *gorm.DB, follower, followee uint64) {
	t.Helper()
	changed, err := (&FollowRepository{DB: db}).Follow(ctx, follower, followee)
	require.NoError(t, err)
	require.True(t, changed)
}

func seedTag(t *testing.T, db *gorm.DB, name string) *model.Tag {
	t.Helper()
	tag := &model.Tag{Name: name}
	require.NoError(t, db.Create(tag).Error)
	return tag
}

func reload(t *testing.T, db *gorm.DB, id uint64) *model.Account {
	t.Helper()
	var a model.Account
	require.NoError(t, db.First(&a, id).Error)
	return &a
}
