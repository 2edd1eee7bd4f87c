package service

import (
	"errors"
	"fmt"

	"gigconnect/internal/repository/mysql"

	"gorm.io/gorm"
)

// Error kinds. Handlers map these to status codes; specific errors below
// wrap exactly one of them.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrTooSoon         = errors.New("too soon")
)

var (
	ErrSelfAction         = fmt.Errorf("%w: cannot target your own account", ErrInvalidInput)
	ErrAccountTaken       = fmt.Errorf("%w: username or email already registered", ErrInvalidInput)
	ErrNotFollowing       = fmt.Errorf("%w: not following this account", ErrInvalidInput)
	ErrAlreadyBlocked     = fmt.Errorf("%w: account is already blocked", ErrInvalidInput)
	ErrAccountNotFound    = fmt.Errorf("account %w", ErrNotFound)
	ErrRequestNotFound    = fmt.Errorf("follow request %w", ErrNotFound)
	ErrGigNotFound        = fmt.Errorf("gig %w", ErrNotFound)
	ErrReviewNotFound     = fmt.Errorf("review %w", ErrNotFound)
	ErrNotificationAbsent = fmt.Errorf("notification %w", ErrNotFound)
	ErrBlocked            = fmt.Errorf("%w: one of the accounts has blocked the other", ErrForbidden)
	ErrNotOwner           = fmt.Errorf("%w: only the owner may change this", ErrForbidden)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrUnauthenticated)
	ErrSessionRevoked     = fmt.Errorf("%w: session expired or revoked", ErrUnauthenticated)
)

// notFound turns gorm's miss into target and wraps anything else.
func notFound(err error, target error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return fmt.Errorf("%s: %w", op, err)
}

// requestErr classifies follow-request repository errors.
func requestErr(err error, op string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRequestNotFound
	case errors.Is(err, mysql.ErrRequestCooldown):
		return fmt.Errorf("%w: %w", ErrTooSoon, err)
	case errors.Is(err, mysql.ErrRequestExists),
		errors.Is(err, mysql.ErrAlreadyFollowing),
		errors.Is(err, mysql.ErrRequestNotPending):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
