package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"gigconnect/internal/model"
	"gigconnect/internal/pkg"
	"gigconnect/internal/ranking"
	"gigconnect/internal/repository/mysql"

	"go.uber.org/zap"
)

// MaxNotificationLen is the stored message length in characters.
const MaxNotificationLen = 225

// Notifier receives fire-and-forget notifications.
type Notifier interface {
	Emit(ctx context.Context, recipientID uint64, message string)
}

// Mailer delivers an e-mail copy of a notification.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

type NotificationService struct {
	repo     *mysql.NotificationRepository
	accounts *mysql.AccountRepository
	mailer   Mailer // nil disables mail
	log      *zap.Logger
	pageSize int
}

func NewNotificationService(repo *mysql.NotificationRepository, accounts *mysql.AccountRepository, mailer Mailer, log *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, accounts: accounts, mailer: mailer, log: log, pageSize: 10}
}

type NotificationPage struct {
	Count    int64                `json:"count"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	Next     *int                 `json:"next"`
	Previous *int                 `json:"previous"`
	Results  []model.Notification `json:"results"`
}

// Emit stores a notification for recipientID. Failures are logged and
// never reach the caller.
func (s *NotificationService) Emit(ctx context.Context, recipientID uint64, message string) {
	n := &model.Notification{AccountID: recipientID, Message: truncateRunes(message, MaxNotificationLen)}
	if err := s.repo.Create(ctx, n); err != nil {
		s.log.Error("store notification", zap.Uint64("recipient_id", recipientID), zap.Error(err))
		return
	}
	if s.mailer == nil {
		return
	}
	acc, err := s.accounts.FindByID(ctx, recipientID)
	if err != nil || acc.Email == "" {
		return
	}
	go func(to, username, msg string) {
		if err := s.mailer.Send(to, "New notification", pkg.NotificationHTML(username, msg)); err != nil {
			s.log.Warn("notification mail failed", zap.Uint64("recipient_id", recipientID), zap.Error(err))
		}
	}(acc.Email, acc.Username, n.Message)
}

func (s *NotificationService) List(ctx context.Context, accountID uint64, page, size int) (*NotificationPage, error) {
	page, size = ranking.NormalizePage(page, size, s.pageSize, 50)
	list, total, err := s.repo.List(ctx, accountID, (page-1)*size, size)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return &NotificationPage{
		Count:    total,
		Page:     page,
		PageSize: size,
		Next:     pageLink(int64(page*size) < total, page+1),
		Previous: pageLink(page > 1, page-1),
		Results:  list,
	}, nil
}

// MarkRead flags one notification and returns the remaining unread count.
func (s *NotificationService) MarkRead(ctx context.Context, id, accountID uint64) (int64, error) {
	found, err := s.repo.MarkRead(ctx, id, accountID)
	if err != nil {
		return 0, fmt.Errorf("mark notification read: %w", err)
	}
	if !found {
		return 0, ErrNotificationAbsent
	}
	return s.UnreadCount(ctx, accountID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, accountID uint64) error {
	if _, err := s.repo.MarkAllRead(ctx, accountID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, accountID uint64) (int64, error) {
	n, err := s.repo.UnreadCount(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
