package pkg

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrRefreshExpired = errors.New("refresh expired")
	ErrRefreshInvalid = errors.New("refresh invalid")
)

const (
	subjectAccess  = "access"
	subjectRefresh = "refresh"
)

type Claims struct {
	AccountID uint64 `json:"account_id"`
	jwt.RegisteredClaims
}

type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Issuer signs and verifies HS256 access/refresh pairs.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (i *Issuer) AccessTTL() time.Duration { return i.accessTTL }

func (i *Issuer) GeneratePair(accountID uint64) (*Pair, error) {
	now := i.now()
	access, err := i.sign(accountID, subjectAccess, now, i.accessTTL, i.accessSecret)
	if err != nil {
		return nil, err
	}
	refresh, err := i.sign(accountID, subjectRefresh, now, i.refreshTTL, i.refreshSecret)
	if err != nil {
		return nil, err
	}
	return &Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (i *Issuer) sign(accountID uint64, subject string, now time.Time, ttl time.Duration, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   subject,
		},
	})
	return token.SignedString(secret)
}

// ParseAccess verifies an access token.
func (i *Issuer) ParseAccess(tokenStr string) (*Claims, error) {
	claims, err := i.parse(tokenStr, i.accessSecret, subjectAccess)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Refresh trades a valid refresh token for a new pair.
func (i *Issuer) Refresh(refreshToken string) (*Pair, uint64, error) {
	claims, err := i.parse(refreshToken, i.refreshSecret, subjectRefresh)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, 0, ErrRefreshExpired
	case err != nil:
		return nil, 0, ErrRefreshInvalid
	}
	pair, err := i.GeneratePair(claims.AccountID)
	if err != nil {
		return nil, 0, err
	}
	return pair, claims.AccountID, nil
}

func (i *Issuer) parse(tokenStr string, secret []byte, subject string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(subject),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.AccountID == 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
