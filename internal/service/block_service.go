package service

import (
	"context"
	"fmt"

	"gigconnect/internal/ranking"
	"gigconnect/internal/repository/mysql"
)

type BlockService struct {
	blocks   *mysql.BlockRepository
	accounts *mysql.AccountRepository
	notifier Notifier
	cache    CacheInvalidator
}

func NewBlockService(blocks *mysql.BlockRepository, accounts *mysql.AccountRepository, notifier Notifier, cache CacheInvalidator) *BlockService {
	return &BlockService{blocks: blocks, accounts: accounts, notifier: notifier, cache: cache}
}

// Block severs every edge between the two accounts and records the block.
func (s *BlockService) Block(ctx context.Context, meID, targetID uint64) error {
	if meID == targetID {
		return ErrSelfAction
	}
	me, err := s.accounts.FindByID(ctx, meID)
	if err != nil {
		return notFound(err, ErrAccountNotFound, "load account")
	}
	if _, err := s.accounts.FindByID(ctx, targetID); err != nil {
		return notFound(err, ErrAccountNotFound, "load account")
	}
	changed, err := s.blocks.Block(ctx, meID, targetID)
	if err != nil {
		return fmt.Errorf("block: %w", err)
	}
	if !changed {
		return ErrAlreadyBlocked
	}
	s.cache.Invalidate(ctx, meID, targetID)
	s.notifier.Emit(ctx, targetID, fmt.Sprintf("%s has blocked you.", me.Username))
	return nil
}

// Unblock reports whether a block existed.
func (s *BlockService) Unblock(ctx context.Context, meID, targetID uint64) (bool, error) {
	if meID == targetID {
		return false, ErrSelfAction
	}
	if _, err := s.accounts.FindByID(ctx, targetID); err != nil {
		return false, notFound(err, ErrAccountNotFound, "load account")
	}
	changed, err := s.blocks.Unblock(ctx, meID, targetID)
	if err != nil {
		return false, fmt.Errorf("unblock: %w", err)
	}
	if changed {
		s.cache.Invalidate(ctx, meID, targetID)
	}
	return changed, nil
}

type BlockedPage struct {
	Count    int                  `json:"count"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	Next     *int                 `json:"next"`
	Previous *int                 `json:"previous"`
	Results  []mysql.AccountEntry `json:"results"`
}

// ListBlocked pages the accounts meID blocks, ordered by username.
func (s *BlockService) ListBlocked(ctx context.Context, meID uint64, page, size int) (*BlockedPage, error) {
	list, err := s.blocks.ListBlocked(ctx, meID)
	if err != nil {
		return nil, fmt.Errorf("list blocked: %w", err)
	}
	page, size = ranking.NormalizePage(page, size, 10, 50)
	p := ranking.Paginate(list, page, size)
	return &BlockedPage{
		Count:    p.Count,
		Page:     p.Page,
		PageSize: p.PageSize,
		Next:     pageLink(p.HasNext(), p.Page+1),
		Previous: pageLink(p.HasPrevious(), p.Page-1),
		Results:  nonNil(p.Items),
	}, nil
}
