package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gigconnect/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubAuth map[string]uint64

var errStoreDown = errors.New("redis down")

func (s stubAuth) Authenticate(_ context.Context, token string) (uint64, error) {
	switch token {
	case "revoked":
		return 0, service.ErrSessionRevoked
	case "down":
		return 0, errStoreDown
	}
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, service.ErrUnauthenticated
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.Use(mw...)
	r.GET("/who", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": AccountID(c)})
	})
	return r
}

func do(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := newEngine(Auth(stubAuth{"good": 7}))

	tests := []struct {
		header string
		code   int
	}{
		{"", http.StatusUnauthorized},
		{"Token good", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"Bearer revoked", http.StatusUnauthorized},
		{"Bearer down", http.StatusServiceUnavailable},
		{"Bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			w := do(r, tt.header)
			assert.Equal(t, tt.code, w.Code)
			assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
		})
	}
	assert.JSONEq(t, `{"id":7}`, do(r, "Bearer good").Body.String())
}

func TestOptionalAuth(t *testing.T) {
	r := newEngine(OptionalAuth(stubAuth{"good": 7}))

	w := do(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":0}`, w.Body.String())

	assert.JSONEq(t, `{"id":7}`, do(r, "Bearer good").Body.String())
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer bad").Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	r := newEngine()
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
}

func TestIPRateLimiter(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(1, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"), "buckets are per ip")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("1.1.1.1"))

	now = now.Add(time.Hour)
	l.Allow("3.3.3.3")
	assert.Len(t, l.limiters, 1, "idle buckets are pruned")
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newEngine(RateLimit(NewIPRateLimiter(0.001, 1)))
	assert.Equal(t, http.StatusOK, do(r, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, "").Code)
}
