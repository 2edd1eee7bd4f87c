package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gigconnect/internal/model"
	"gigconnect/internal/repository/mysql"

	"go.uber.org/zap"
)

// Follow status of a viewer towards another account.
const (
	FollowStatusAccepted = "accepted"
	FollowStatusPending  = "pending"
	FollowStatusIncoming = "incoming"
	FollowStatusNone     = "none"
)

// CacheInvalidator drops per-viewer cached rankings.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, viewerIDs ...uint64)
}

type FollowService struct {
	follows  *mysql.FollowRepository
	requests *mysql.FollowRequestRepository
	blocks   *mysql.BlockRepository
	accounts *mysql.AccountRepository
	notifier Notifier
	cache    CacheInvalidator
	cooldown time.Duration
	pageSize int
	log      *zap.Logger
	now      func() time.Time
}

type FollowDeps struct {
	Follows  *mysql.FollowRepository
	Requests *mysql.FollowRequestRepository
	Blocks   *mysql.BlockRepository
	Accounts *mysql.AccountRepository
	Notifier Notifier
	Cache    CacheInvalidator
}

func NewFollowService(d FollowDeps, cooldown time.Duration, pageSize int, log *zap.Logger) *FollowService {
	return &FollowService{
		follows:  d.Follows,
		requests: d.Requests,
		blocks:   d.Blocks,
		accounts: d.Accounts,
		notifier: d.Notifier,
		cache:    d.Cache,
		cooldown: cooldown,
		pageSize: pageSize,
		log:      log,
		now:      time.Now,
	}
}

type FollowList struct {
	Results []mysql.AccountEntry `json:"results"`
	Next    uint64               `json:"next_cursor,omitempty"`
}

type MutualFollowers struct {
	Count   int                  `json:"count"`
	Results []mysql.AccountEntry `json:"results"`
}

type MutualFollowing struct {
	Mutual       bool `json:"mutual_following"`
	User1Follows bool `json:"user1_follows_user2"`
	User2Follows bool `json:"user2_follows_user1"`
}

// SendRequest opens a follow request from fromID to toID and notifies toID.
func (s *FollowService) SendRequest(ctx context.Context, fromID, toID uint64) (*model.FollowRequest, error) {
	if fromID == toID {
		return nil, ErrSelfAction
	}
	from, to, err := s.pair(ctx, fromID, toID)
	if err != nil {
		return nil, err
	}
	req, err := s.requests.Send(ctx, fromID, toID, s.cooldown, s.now())
	if err != nil {
		return nil, requestErr(err, "send follow request")
	}
	s.notifier.Emit(ctx, to.ID, fmt.Sprintf("%s requested to follow you.", from.Username))
	return req, nil
}

// AcceptRequest lets the recipient accept; the sender starts following.
func (s *FollowService) AcceptRequest(ctx context.Context, requestID, meID uint64) (*model.FollowRequest, error) {
	me, err := s.account(ctx, meID)
	if err != nil {
		return nil, err
	}
	req, err := s.requests.Accept(ctx, requestID, meID)
	if err != nil {
		return nil, requestErr(err, "accept follow request")
	}
	s.cache.Invalidate(ctx, req.FromID, req.ToID)
	s.notifier.Emit(ctx, req.FromID, fmt.Sprintf("%s accepted your follow request.", me.Username))
	return req, nil
}

// RejectRequest lets the recipient decline. With a cooldown configured the
// request is kept as rejected, otherwise it is removed.
func (s *FollowService) RejectRequest(ctx context.Context, requestID, meID uint64) error {
	me, err := s.account(ctx, meID)
	if err != nil {
		return err
	}
	req, err := s.requests.Reject(ctx, requestID, meID, s.cooldown > 0, s.now())
	if err != nil {
		return requestErr(err, "reject follow request")
	}
	s.notifier.Emit(ctx, req.FromID, fmt.Sprintf("%s rejected your follow request.", me.Username))
	return nil
}

// CancelRequest withdraws fromID's pending request to toID.
func (s *FollowService) CancelRequest(ctx context.Context, fromID, toID uint64) error {
	from, to, err := s.pair(ctx, fromID, toID)
	if err != nil && !errors.Is(err, ErrBlocked) {
		return err
	}
	ok, err := s.requests.Cancel(ctx, fromID, toID)
	if err != nil {
		return fmt.Errorf("cancel follow request: %w", err)
	}
	if !ok {
		return ErrRequestNotFound
	}
	s.notifier.Emit(ctx, to.ID, fmt.Sprintf("%s canceled their follow request.", from.Username))
	return nil
}

func (s *FollowService) PendingRequests(ctx context.Context, meID uint64) ([]mysql.RequestEntry, error) {
	list, err := s.requests.ListPending(ctx, meID)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	return list, nil
}

func (s *FollowService) SentRequests(ctx context.Context, meID uint64) ([]mysql.RequestEntry, error) {
	list, err := s.requests.ListSent(ctx, meID)
	if err != nil {
		return nil, fmt.Errorf("list sent requests: %w", err)
	}
	return list, nil
}

func (s *FollowService) Unfollow(ctx context.Context, meID, targetID uint64) error {
	if meID == targetID {
		return ErrSelfAction
	}
	if _, err := s.account(ctx, targetID); err != nil {
		return err
	}
	changed, err := s.follows.Unfollow(ctx, meID, targetID)
	if err != nil {
		return fmt.Errorf("unfollow: %w", err)
	}
	if !changed {
		return ErrNotFollowing
	}
	s.cache.Invalidate(ctx, meID, targetID)
	return nil
}

// RemoveFollower makes followerID stop following meID.
func (s *FollowService) RemoveFollower(ctx context.Context, meID, followerID uint64) error {
	if meID == followerID {
		return ErrSelfAction
	}
	if _, err := s.account(ctx, followerID); err != nil {
		return err
	}
	changed, err := s.follows.Unfollow(ctx, followerID, meID)
	if err != nil {
		return fmt.Errorf("remove follower: %w", err)
	}
	if !changed {
		return ErrNotFollowing
	}
	s.cache.Invalidate(ctx, meID, followerID)
	return nil
}

func (s *FollowService) Followers(ctx context.Context, userID, cursor uint64, limit int) (*FollowList, error) {
	if _, err := s.account(ctx, userID); err != nil {
		return nil, err
	}
	rows, next, err := s.follows.ListFollowers(ctx, userID, cursor, s.limit(limit))
	if err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}
	return &FollowList{Results: nonNil(rows), Next: next}, nil
}

func (s *FollowService) Following(ctx context.Context, userID, cursor uint64, limit int) (*FollowList, error) {
	if _, err := s.account(ctx, userID); err != nil {
		return nil, err
	}
	rows, next, err := s.follows.ListFollowings(ctx, userID, cursor, s.limit(limit))
	if err != nil {
		return nil, fmt.Errorf("list following: %w", err)
	}
	return &FollowList{Results: nonNil(rows), Next: next}, nil
}

// MutualFollowers lists the accounts following both a and b.
func (s *FollowService) MutualFollowers(ctx context.Context, a, b uint64) (*MutualFollowers, error) {
	if _, err := s.account(ctx, a); err != nil {
		return nil, err
	}
	if _, err := s.account(ctx, b); err != nil {
		return nil, err
	}
	rows, err := s.follows.MutualFollowers(ctx, a, b)
	if err != nil {
		return nil, fmt.Errorf("mutual followers: %w", err)
	}
	return &MutualFollowers{Count: len(rows), Results: nonNil(rows)}, nil
}

// MutualFollowing reports whether a and b follow each other.
func (s *FollowService) MutualFollowing(ctx context.Context, a, b uint64) (*MutualFollowing, error) {
	if _, err := s.account(ctx, a); err != nil {
		return nil, err
	}
	if _, err := s.account(ctx, b); err != nil {
		return nil, err
	}
	ab, err := s.follows.IsFollowing(ctx, a, b)
	if err != nil {
		return nil, fmt.Errorf("mutual following: %w", err)
	}
	ba, err := s.follows.IsFollowing(ctx, b, a)
	if err != nil {
		return nil, fmt.Errorf("mutual following: %w", err)
	}
	return &MutualFollowing{Mutual: ab && ba, User1Follows: ab, User2Follows: ba}, nil
}

// Status describes viewerID's relationship to targetID.
func (s *FollowService) Status(ctx context.Context, viewerID, targetID uint64) (string, error) {
	return followStatus(ctx, s.follows, s.requests, viewerID, targetID)
}

func followStatus(ctx context.Context, follows *mysql.FollowRepository, requests *mysql.FollowRequestRepository, viewerID, targetID uint64) (string, error) {
	following, err := follows.IsFollowing(ctx, viewerID, targetID)
	if err != nil {
		return "", err
	}
	if following {
		return FollowStatusAccepted, nil
	}
	out, err := requests.Status(ctx, viewerID, targetID)
	if err != nil {
		return "", err
	}
	if out != nil && out.Status == model.FollowRequestPending {
		return FollowStatusPending, nil
	}
	in, err := requests.Status(ctx, targetID, viewerID)
	if err != nil {
		return "", err
	}
	if in != nil && in.Status == model.FollowRequestPending {
		return FollowStatusIncoming, nil
	}
	return FollowStatusNone, nil
}

// pair loads both accounts and refuses blocked pairs. On ErrBlocked the
// accounts are still returned.
func (s *FollowService) pair(ctx context.Context, aID, bID uint64) (*model.Account, *model.Account, error) {
	a, err := s.account(ctx, aID)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.account(ctx, bID)
	if err != nil {
		return nil, nil, err
	}
	blocked, err := s.blocks.IsBlockedEither(ctx, aID, bID)
	if err != nil {
		return nil, nil, fmt.Errorf("check block: %w", err)
	}
	if blocked {
		return a, b, ErrBlocked
	}
	return a, b, nil
}

func (s *FollowService) account(ctx context.Context, id uint64) (*model.Account, error) {
	a, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrAccountNotFound, "load account")
	}
	return a, nil
}

func (s *FollowService) limit(n int) int {
	if n <= 0 {
		return s.pageSize
	}
	return min(n, 50)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
