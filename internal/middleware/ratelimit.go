package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/caseintake/pkg/errors"
	"github.com/charlesng35/caseintake/pkg/logger"
	"github.com/charlesng35/caseintake/pkg/response"
)

// RateLimit limits requests per (clientIP, route) within a fixed window using store.
// A nil store falls back to a process-local one.
func RateLimit(store RateStore, maxRequests int, window time.Duration) gin.HandlerFunc {
	if store == nil {
		store = NewMemoryRateStore()
	}

	return func(c *gin.Context) {
		if maxRequests <= 0 || window <= 0 {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := c.ClientIP() + "|" + c.Request.Method + "|" + route

		count, resetIn, err := store.Increment(c.Request.Context(), key, window)
		if err != nil {
			// Fail open.
			logger.WithModule("ratelimit").Warn("rate store unavailable", zap.Error(err))
			c.Next()
			return
		}

		remaining := maxRequests - count
		if remaining < 0 {
			remaining = 0
		}
		resetSeconds := int(resetIn.Round(time.Second).Seconds())

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSeconds))

		if count > maxRequests {
			c.Header("Retry-After", strconv.Itoa(resetSeconds))
			response.Error(c, errors.ErrRateLimit)
			c.Abort()
			return
		}

		c.Next()
	}
}
