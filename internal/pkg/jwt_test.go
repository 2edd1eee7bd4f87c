package pkg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuerRoundTrip(t *testing.T) {
	iss := NewIssuer("access", "refresh", time.Minute, time.Hour)

	pair, err := iss.GeneratePair(42)
	require.NoError(t, err)

	claims, err := iss.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.AccountID)
	assert.NotEmpty(t, claims.ID)

	_, err = iss.ParseAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid, "refresh token is not an access token")

	next, id, err := iss.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
	assert.NotEqual(t, pair.AccessToken, next.AccessToken)

	_, _, err = iss.Refresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestIssuerExpiry(t *testing.T) {
	iss := NewIssuer("access", "refresh", time.Minute, time.Hour)
	start := time.Now()
	iss.now = func() time.Time { return start }

	pair, err := iss.GeneratePair(1)
	require.NoError(t, err)

	iss.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = iss.ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)

	iss.now = func() time.Time { return start.Add(2 * time.Hour) }
	_, _, err = iss.Refresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshExpired)
}

func TestIssuerRejectsForeignSecret(t *testing.T) {
	pair, err := NewIssuer("a", "r", time.Minute, time.Hour).GeneratePair(1)
	require.NoError(t, err)

	_, err = NewIssuer("other", "r", time.Minute, time.Hour).ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestNotificationHTMLEscapes(t *testing.T) {
	out := NotificationHTML("<b>", "a & b")
	assert.Contains(t, out, "&lt;b&gt;")
	assert.Contains(t, out, "a &amp; b")
}
