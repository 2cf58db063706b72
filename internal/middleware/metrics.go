package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/caseintake/pkg/metrics"
)

// unmatchedRoute labels requests that hit no registered route, keeping
// scanner traffic from minting a series per path.
const unmatchedRoute = "unmatched"

// Metrics observes caseintake_api_latency_seconds for every request except
// the paths in skip, typically the scrape endpoint itself.
func Metrics(skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, path := range skip {
		skipped[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skipped[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		status := strconv.Itoa(c.Writer.Status())
		metrics.APILatency.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
	}
}
