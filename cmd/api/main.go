package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gigconnect/internal/config"
	"gigconnect/internal/handler"
	"gigconnect/internal/metrics"
	"gigconnect/internal/middleware"
	"gigconnect/internal/pkg"
	"gigconnect/internal/ranking"
	"gigconnect/internal/repository/mysql"
	"gigconnect/internal/repository/redis"
	"gigconnect/internal/router"
	"gigconnect/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", os.Getenv("GIG_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		boot, _ := zap.NewProduction()
		for _, err := range errs {
			boot.Error("invalid config", zap.Error(err))
		}
		os.Exit(1)
	}

	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if cfg.IsDevelopment() {
		log, err = zap.NewDevelopment()
	} else {
		gin.SetMode(gin.ReleaseMode)
		log, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return log
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := mysql.InitDB(cfg.MySQL.DSN, cfg.MySQL.MaxOpen, cfg.MySQL.MaxIdle)
	if err != nil {
		return err
	}
	if err := mysql.AutoMigrate(db); err != nil {
		return err
	}
	rdb, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New()
	if err := m.Register(reg); err != nil {
		return err
	}

	accounts := &mysql.AccountRepository{DB: db}
	follows := &mysql.FollowRepository{DB: db}
	requests := &mysql.FollowRequestRepository{DB: db}
	blocks := &mysql.BlockRepository{DB: db}
	gigs := &mysql.GigRepository{DB: db}
	reviews := &mysql.ReviewRepository{DB: db}
	tags := &mysql.TagRepository{DB: db}
	graph := &mysql.GraphRepository{DB: db}

	var jitter ranking.Jitter = ranking.NoJitter
	if cfg.Ranking.JitterEnabled {
		jitter = ranking.UniformJitter
	}
	suggestions := service.NewSuggestionService(graph, &redis.SuggestionCacheRepository{Client: rdb}, service.SuggestionConfig{
		Limit:          cfg.Ranking.SuggestionLimit,
		CacheTTL:       cfg.Ranking.SuggestionCacheTTL,
		ActiveWindow:   cfg.Ranking.ActiveWindow,
		TrendingWindow: cfg.Ranking.TrendingWindow,
	}, jitter, log, m)

	var mailer service.Mailer
	if cfg.MailEnabled() {
		mailer = pkg.NewMailer(pkg.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}
	notes := service.NewNotificationService(&mysql.NotificationRepository{DB: db}, accounts, mailer, log)

	users := service.NewUserService(service.UserDeps{
		Accounts: accounts,
		Follows:  follows,
		Requests: requests,
		Blocks:   blocks,
		Tags:     tags,
		Reviews:  reviews,
		Gigs:     gigs,
		Graph:    graph,
		Sessions: &redis.SessionRepository{Client: rdb, TTL: cfg.JWT.AccessTTL},
		Issuer:   pkg.NewIssuer(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL),
		Cache:    suggestions,
	}, log)
	follow := service.NewFollowService(service.FollowDeps{
		Follows:  follows,
		Requests: requests,
		Blocks:   blocks,
		Accounts: accounts,
		Notifier: notes,
		Cache:    suggestions,
	}, cfg.Follow.RequestCooldown, cfg.Follow.ListPageSize, log)
	search := service.NewSearchService(graph, cfg.Search.PageSize, cfg.Search.MaxPageSize, m)
	feed := service.NewFeedService(graph, gigs, reviews, service.FeedConfig{
		GigLimit:    cfg.Feed.GigLimit,
		ReviewLimit: cfg.Feed.ReviewLimit,
		PageSize:    cfg.Feed.PageSize,
		MaxPageSize: cfg.Feed.MaxPageSize,
	}, m)

	engine := router.New(router.Handlers{
		User:         handler.NewUserHandler(users),
		Follow:       handler.NewFollowHandler(follow),
		Block:        handler.NewBlockHandler(service.NewBlockService(blocks, accounts, notes, suggestions)),
		Notification: handler.NewNotificationHandler(notes),
		Ranking:      handler.NewRankingHandler(suggestions, search, feed),
		Gig:          handler.NewGigHandler(service.NewGigService(gigs, tags, accounts), service.NewReviewService(reviews, gigs, accounts)),
	}, router.Options{
		Log:           log,
		Auth:          users,
		Metrics:       m,
		Gatherer:      reg,
		SearchLimiter: middleware.NewIPRateLimiter(cfg.Search.RatePerSecond, cfg.Search.Burst),
	})

	sender := service.LogSender(log)
	if len(cfg.Kafka.Brokers) > 0 {
		producer := pkg.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() { _ = producer.Close() }()
		sender = service.KafkaSender(producer)
	}
	relayer := service.NewOutboxRelayer(&mysql.OutboxRepository{DB: db}, sender,
		cfg.Outbox.BatchSize, cfg.Outbox.Interval, log, m)
	reconciler := service.NewFollowCountReconciler(&mysql.FollowCountReconcilerRepo{DB: db},
		cfg.Reconcile.BatchSize, cfg.Reconcile.Interval, log, m)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		relayer.Run(gctx)
		return nil
	})
	g.Go(func() error {
		reconciler.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
