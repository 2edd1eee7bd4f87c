package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gigconnect/internal/service"

	"github.com/gin-gonic/gin"
)

const ContextAccountIDKey = "account_id"

// Authenticator resolves a bearer token to an account id.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (uint64, error)
}

// Auth rejects requests without a valid, current access token.
func Auth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing authorization header"})
			return
		}
		tokenStr, ok := bearer(authHeader)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid authorization format"})
			return
		}
		id, err := a.Authenticate(c.Request.Context(), tokenStr)
		if err != nil {
			abortAuth(c, err)
			return
		}
		c.Set(ContextAccountIDKey, id)
		c.Next()
	}
}

// OptionalAuth sets the account when a valid token is present and lets
// anonymous requests through. A bad token is still rejected.
func OptionalAuth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}
		tokenStr, ok := bearer(authHeader)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid authorization format"})
			return
		}
		id, err := a.Authenticate(c.Request.Context(), tokenStr)
		if err != nil {
			abortAuth(c, err)
			return
		}
		c.Set(ContextAccountIDKey, id)
		c.Next()
	}
}

// AccountID returns the authenticated account, or 0.
func AccountID(c *gin.Context) uint64 {
	if v, ok := c.Get(ContextAccountIDKey); ok {
		if id, ok2 := v.(uint64); ok2 {
			return id
		}
	}
	return 0
}

func bearer(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func abortAuth(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionRevoked):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "account has been logged in elsewhere or logged out"})
	case errors.Is(err, service.ErrUnauthenticated):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid or expired token"})
	default:
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"msg": "session store unavailable"})
	}
}
