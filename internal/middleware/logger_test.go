package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/charlesng35/caseintake/pkg/logger"
)

func TestLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	require.NoError(t, logger.Init("debug", "console"))

	r := gin.New()
	r.Use(Logger())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "pong", w.Body.String())
}

func TestLoggerRecordsRouteTemplateAndUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zap.DebugLevel)

	r := gin.New()
	r.Use(Logger(WithAccessLogger(zap.New(core)), WithSkipPrefixes("/static/")))
	r.GET("/api/leads/:id", func(c *gin.Context) {
		c.Set(CtxUserIDKey, "admin-1")
		c.Status(http.StatusNotFound)
	})
	r.GET("/static/app.css", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, path := range []string{"/api/leads/lead-42", "/static/app.css", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := recorded.All()
	require.Len(t, entries, 2)

	lead := entries[0]
	require.Equal(t, zapcore.WarnLevel, lead.Level)
	fields := lead.ContextMap()
	require.Equal(t, "/api/leads/:id", fields["route"])
	require.Equal(t, "admin-1", fields["user_id"])
	require.EqualValues(t, http.StatusNotFound, fields["status"])

	require.Equal(t, unmatchedRoute, entries[1].ContextMap()["route"])
}

func TestAccessLevel(t *testing.T) {
	require.Equal(t, zapcore.InfoLevel, accessLevel(http.StatusSeeOther))
	require.Equal(t, zapcore.WarnLevel, accessLevel(http.StatusTooManyRequests))
	require.Equal(t, zapcore.ErrorLevel, accessLevel(http.StatusServiceUnavailable))
}
