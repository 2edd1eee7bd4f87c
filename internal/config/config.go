// Package config loads process configuration with koanf: built-in defaults,
// then an optional YAML file, then GIG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables. A double underscore
// separates nesting levels: GIG_MYSQL__DSN sets mysql.dsn.
const EnvPrefix = "GIG_"

type Config struct {
	Server    ServerConfig  `koanf:"server"`
	MySQL     MySQLConfig   `koanf:"mysql"`
	Redis     RedisConfig   `koanf:"redis"`
	JWT       JWTConfig     `koanf:"jwt"`
	Kafka     KafkaConfig   `koanf:"kafka"`
	SMTP      SMTPConfig    `koanf:"smtp"`
	Ranking   RankingConfig `koanf:"ranking"`
	Feed      FeedConfig    `koanf:"feed"`
	Search    SearchConfig  `koanf:"search"`
	Follow    FollowConfig  `koanf:"follow"`
	Outbox    WorkerConfig  `koanf:"outbox"`
	Reconcile WorkerConfig  `koanf:"reconcile"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
	Env  string `koanf:"env"`
}

type MySQLConfig struct {
	DSN     string `koanf:"dsn"`
	MaxOpen int    `koanf:"max_open"`
	MaxIdle int    `koanf:"max_idle"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type JWTConfig struct {
	AccessSecret  string        `koanf:"access_secret"`
	RefreshSecret string        `koanf:"refresh_secret"`
	AccessTTL     time.Duration `koanf:"access_ttl"`
	RefreshTTL    time.Duration `koanf:"refresh_ttl"`
}

type KafkaConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

// SMTPConfig is optional; an empty host disables notification mail.
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

type RankingConfig struct {
	// JitterEnabled adds [0,1) freshness noise to advanced suggestion scores.
	JitterEnabled      bool          `koanf:"jitter_enabled"`
	SuggestionCacheTTL time.Duration `koanf:"suggestion_cache_ttl"`
	SuggestionLimit    int           `koanf:"suggestion_limit"`
	ActiveWindow       time.Duration `koanf:"active_window"`
	TrendingWindow     time.Duration `koanf:"trending_window"`
}

type FeedConfig struct {
	GigLimit    int `koanf:"gig_limit"`
	ReviewLimit int `koanf:"review_limit"`
	PageSize    int `koanf:"page_size"`
	MaxPageSize int `koanf:"max_page_size"`
}

type SearchConfig struct {
	PageSize      int     `koanf:"page_size"`
	MaxPageSize   int     `koanf:"max_page_size"`
	RatePerSecond float64 `koanf:"rate_per_second"`
	Burst         int     `koanf:"burst"`
}

type FollowConfig struct {
	// RequestCooldown > 0 keeps rejected requests and refuses resends until it elapses.
	RequestCooldown time.Duration `koanf:"request_cooldown"`
	ListPageSize    int           `koanf:"list_page_size"`
}

type WorkerConfig struct {
	BatchSize int           `koanf:"batch_size"`
	Interval  time.Duration `koanf:"interval"`
}

var (
	ErrMissingDSN           = errors.New("mysql.dsn is required")
	ErrMissingRedisAddr     = errors.New("redis.addr is required")
	ErrMissingAccessSecret  = errors.New("jwt.access_secret is required")
	ErrMissingRefreshSecret = errors.New("jwt.refresh_secret is required")
	ErrInvalidPageSize      = errors.New("page sizes must be positive and not exceed their max")
	ErrInvalidFeedLimits    = errors.New("feed.gig_limit and feed.review_limit must be positive")
)

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", Env: "development"},
		MySQL:  MySQLConfig{MaxOpen: 20, MaxIdle: 5},
		Redis:  RedisConfig{Addr: "127.0.0.1:6379"},
		JWT:    JWTConfig{AccessTTL: 30 * time.Minute, RefreshTTL: 24 * time.Hour},
		Kafka:  KafkaConfig{Topic: "social-events"},
		SMTP:   SMTPConfig{Port: 587},
		Ranking: RankingConfig{
			JitterEnabled:      true,
			SuggestionCacheTTL: 600 * time.Second,
			SuggestionLimit:    20,
			ActiveWindow:       30 * 24 * time.Hour,
			TrendingWindow:     7 * 24 * time.Hour,
		},
		Feed:      FeedConfig{GigLimit: 500, ReviewLimit: 200, PageSize: 10, MaxPageSize: 50},
		Search:    SearchConfig{PageSize: 5, MaxPageSize: 50, RatePerSecond: 5, Burst: 10},
		Follow:    FollowConfig{ListPageSize: 5},
		Outbox:    WorkerConfig{BatchSize: 200, Interval: time.Second},
		Reconcile: WorkerConfig{BatchSize: 500, Interval: 5 * time.Minute},
	}
}

// Load merges defaults, the YAML file at path (skipped when empty) and the
// environment. The returned slice lists every validation problem found.
func Load(path string) (*Config, []error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, []error{fmt.Errorf("load defaults: %w", err)}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", path, err)}
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, []error{fmt.Errorf("load env: %w", err)}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, []error{fmt.Errorf("unmarshal config: %w", err)}
	}
	// comma separated lists arrive from env as a single string
	cfg.Kafka.Brokers = splitList(strings.Join(cfg.Kafka.Brokers, ","))
	return &cfg, cfg.Validate()
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports all configuration problems at once.
func (c *Config) Validate() []error {
	var errs []error
	if c.MySQL.DSN == "" {
		errs = append(errs, ErrMissingDSN)
	}
	if c.Redis.Addr == "" {
		errs = append(errs, ErrMissingRedisAddr)
	}
	if c.JWT.AccessSecret == "" {
		errs = append(errs, ErrMissingAccessSecret)
	}
	if c.JWT.RefreshSecret == "" {
		errs = append(errs, ErrMissingRefreshSecret)
	}
	if c.Feed.PageSize <= 0 || c.Feed.PageSize > c.Feed.MaxPageSize ||
		c.Search.PageSize <= 0 || c.Search.PageSize > c.Search.MaxPageSize {
		errs = append(errs, ErrInvalidPageSize)
	}
	if c.Feed.GigLimit <= 0 || c.Feed.ReviewLimit <= 0 {
		errs = append(errs, ErrInvalidFeedLimits)
	}
	return errs
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "" || c.Server.Env == "development"
}

// MailEnabled reports whether notification mail can be sent.
func (c *Config) MailEnabled() bool {
	return c.SMTP.Host != ""
}
