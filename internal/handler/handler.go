package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gigconnect/internal/middleware"
	"gigconnect/internal/service"

	"github.com/gin-gonic/gin"
)

// writeError maps a service error kind to its status code. Unclassified
// errors are attached to the context for the request logger and hidden.
func writeError(c *gin.Context, err error) {
	var code int
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		code = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, service.ErrUnauthenticated):
		code = http.StatusUnauthorized
	case errors.Is(err, service.ErrTooSoon):
		code = http.StatusTooManyRequests
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "internal error"})
		return
	}
	c.JSON(code, gin.H{"msg": err.Error()})
}

func badParams(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
}

// pathID parses a positive id path parameter, answering 400 when it is not.
func pathID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid " + name})
		return 0, false
	}
	return id, true
}

// queryInt returns 0 for a missing or malformed value.
func queryInt(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}

func queryUint(c *gin.Context, key string) uint64 {
	n, _ := strconv.ParseUint(c.Query(key), 10, 64)
	return n
}

// queryBool is def when key is absent; otherwise only "true", in any case,
// counts as true.
func queryBool(c *gin.Context, key string, def bool) bool {
	v, ok := c.GetQuery(key)
	if !ok {
		return def
	}
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

func accountID(c *gin.Context) uint64 {
	return middleware.AccountID(c)
}
