package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/caseintake/pkg/metrics"
)

func TestMetricsLabelsUnmatchedRoutesOnce(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics("/metrics"))
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.CollectAndCount(metrics.APILatency)
	for _, path := range []string{"/wp-login.php", "/.env", "/metrics"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	// Both scanner paths share one series and the scrape path records none.
	require.Equal(t, before+1, testutil.CollectAndCount(metrics.APILatency))
}
