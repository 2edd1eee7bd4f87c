package service

import (
	"context"
	"strconv"
	"time"

	"gigconnect/internal/metrics"
	"gigconnect/internal/model"
	"gigconnect/internal/pkg"
	"gigconnect/internal/repository/mysql"

	"go.uber.org/zap"
)

// Sender publishes one outbox row.
type Sender func(ctx context.Context, ob *model.SocialOutbox) error

// OutboxRelayer drains social_outbox on a ticker and hands rows to a Sender.
type OutboxRelayer struct {
	repo      *mysql.OutboxRepository
	sender    Sender
	batchSize int
	interval  time.Duration
	log       *zap.Logger
	metrics   *metrics.Metrics
}

func NewOutboxRelayer(repo *mysql.OutboxRepository, sender Sender, batchSize int, interval time.Duration, log *zap.Logger, m *metrics.Metrics) *OutboxRelayer {
	return &OutboxRelayer{repo: repo, sender: sender, batchSize: batchSize, interval: interval, log: log, metrics: m}
}

func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

// drainOnce sends one batch and returns how many rows were delivered.
func (r *OutboxRelayer) drainOnce(ctx context.Context) int {
	rows, err := r.repo.List(ctx, r.batchSize)
	if err != nil {
		r.log.Error("outbox query failed", zap.Error(err))
		return 0
	}
	sent, failed := 0, 0
	for i := range rows {
		ob := rows[i]
		if err := r.sender(ctx, &ob); err != nil {
			failed++
			r.log.Warn("outbox send failed", zap.Uint64("outbox_id", ob.ID), zap.Int("retry", ob.Retry), zap.Error(err))
			if err := r.repo.MarkFailed(ctx, ob.ID); err != nil {
				r.log.Error("outbox mark failed", zap.Uint64("outbox_id", ob.ID), zap.Error(err))
			}
			continue
		}
		if err := r.repo.MarkSent(ctx, ob.ID); err != nil {
			r.log.Error("outbox mark sent", zap.Uint64("outbox_id", ob.ID), zap.Error(err))
			continue
		}
		sent++
	}
	r.metrics.IncOutbox(metrics.StatusSuccess, sent)
	r.metrics.IncOutbox(metrics.StatusFailure, failed)
	return sent
}

// KafkaSender publishes rows keyed by actor so one account's events stay ordered.
func KafkaSender(p *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.SocialOutbox) error {
		return p.Send(ctx, pkg.MakeKeyFromID(ob.ActorID), []byte(ob.Payload), map[string]string{
			"event_type": ob.EventType,
			"outbox_id":  strconv.FormatUint(ob.ID, 10),
		})
	}
}

// LogSender is used when no broker is configured.
func LogSender(log *zap.Logger) Sender {
	return func(_ context.Context, ob *model.SocialOutbox) error {
		log.Info("outbox event",
			zap.String("event_type", ob.EventType),
			zap.Uint64("actor_id", ob.ActorID),
			zap.Uint64("target_id", ob.TargetID),
			zap.String("payload", ob.Payload))
		return nil
	}
}

// FollowCountReconciler rewrites cached follower/following counters that
// drifted from the follow table.
type FollowCountReconciler struct {
	repo      *mysql.FollowCountReconcilerRepo
	batchSize int
	interval  time.Duration
	log       *zap.Logger
	metrics   *metrics.Metrics
	lastID    uint64
}

func NewFollowCountReconciler(repo *mysql.FollowCountReconcilerRepo, batchSize int, interval time.Duration, log *zap.Logger, m *metrics.Metrics) *FollowCountReconciler {
	return &FollowCountReconciler{repo: repo, batchSize: batchSize, interval: interval, log: log, metrics: m}
}

func (r *FollowCountReconciler) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.reconcileOnce(ctx)
		}
	}
}

// reconcileOnce checks the next batch of accounts, wrapping around at the
// end of the table, and returns the number of counters fixed.
func (r *FollowCountReconciler) reconcileOnce(ctx context.Context) int {
	users, last, err := r.repo.ReconcileList(ctx, r.batchSize, r.lastID)
	if err != nil {
		r.log.Error("reconcile list failed", zap.Error(err))
		return 0
	}
	if len(users) < r.batchSize {
		r.lastID = 0
	} else {
		r.lastID = last
	}

	fixed := 0
	for _, u := range users {
		realFollowing, err := r.repo.RealFollowings(ctx, u.ID)
		if err != nil {
			continue
		}
		realFollowers, err := r.repo.RealFollowers(ctx, u.ID)
		if err != nil {
			continue
		}
		if realFollowing != u.FollowingCount {
			if err := r.repo.FixFollowingCount(ctx, u.ID, realFollowing); err == nil {
				fixed++
			}
		}
		if realFollowers != u.FollowerCount {
			if err := r.repo.FixFollowerCount(ctx, u.ID, realFollowers); err == nil {
				fixed++
			}
		}
	}
	if fixed > 0 {
		r.log.Info("follow counters reconciled", zap.Int("fixed", fixed))
	}
	r.metrics.AddCountsFixed(fixed)
	return fixed
}
