package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("GIG_MYSQL__DSN", "root:root@tcp(127.0.0.1:3306)/gigs")
	t.Setenv("GIG_JWT__ACCESS_SECRET", "a")
	t.Setenv("GIG_JWT__REFRESH_SECRET", "r")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, errs := Load("")
	require.Empty(t, errs)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.Feed.PageSize)
	assert.Equal(t, 500, cfg.Feed.GigLimit)
	assert.Equal(t, 5, cfg.Search.PageSize)
	assert.Equal(t, 600*time.Second, cfg.Ranking.SuggestionCacheTTL)
	assert.True(t, cfg.Ranking.JitterEnabled)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.MailEnabled())
}

func TestLoadFileThenEnv(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
server:
  addr: ":9000"
  env: production
feed:
  page_size: 20
ranking:
  suggestion_cache_ttl: 2m
  jitter_enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("GIG_FEED__PAGE_SIZE", "25")
	t.Setenv("GIG_KAFKA__BROKERS", "k1:9092, k2:9092")

	cfg, errs := Load(path)
	require.Empty(t, errs)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 25, cfg.Feed.PageSize, "env wins over file")
	assert.Equal(t, 2*time.Minute, cfg.Ranking.SuggestionCacheTTL)
	assert.False(t, cfg.Ranking.JitterEnabled)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadMissingFile(t *testing.T) {
	_, errs := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Len(t, errs, 1)
}

func TestValidateCollectsAll(t *testing.T) {
	cfg := defaultConfig()
	cfg.Feed.PageSize = 100
	cfg.Feed.GigLimit = 0

	errs := cfg.Validate()
	assert.ErrorIs(t, errs[0], ErrMissingDSN)
	assert.Contains(t, errs, ErrMissingAccessSecret)
	assert.Contains(t, errs, ErrMissingRefreshSecret)
	assert.Contains(t, errs, ErrInvalidPageSize)
	assert.Contains(t, errs, ErrInvalidFeedLimits)
	assert.NotContains(t, errs, ErrMissingRedisAddr)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "mysql.dsn", envKey("GIG_MYSQL__DSN"))
	assert.Equal(t, "search.rate_per_second", envKey("GIG_SEARCH__RATE_PER_SECOND"))
}
