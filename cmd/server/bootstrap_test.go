package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/caseintake/internal/app"
	"github.com/charlesng35/caseintake/internal/models"
	"github.com/charlesng35/caseintake/internal/storage"
)

func bootstrapConfig() *app.Config {
	return &app.Config{
		Server: app.ServerConfig{Environment: "test"},
		Database: app.DatabaseConfig{
			Driver: "sqlite",
			DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		},
		Auth: app.AuthConfig{
			JWT:   app.JWTSettings{Secret: "bootstrap-secret-with-enough-bytes!!", TTL: time.Hour},
			Admin: app.AdminSettings{Email: "Owner@Example.com", Password: "owner-password"},
		},
		Storage:     app.StorageConfig{Driver: storage.BackendDatabase},
		Metrics:     app.MetricsConfig{Enabled: true},
		Maintenance: app.MaintenanceConfig{Enabled: true, Schedule: "@every 1h", StaleAfter: time.Hour},
	}
}

func TestBootstrapRuntimeServesHealth(t *testing.T) {
	stack, err := bootstrapRuntime(t.Context(), bootstrapConfig(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(t.Context(), zap.NewNop()) })

	require.NotNil(t, stack.Reporter)
	require.NotNil(t, stack.RateStore)
	require.Equal(t, storage.BackendDatabase, stack.Store.Backend())

	var admin models.User
	require.NoError(t, stack.DB.First(&admin, "email = ?", "owner@example.com").Error)

	w := httptest.NewRecorder()
	stack.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestBootstrapRuntimeSharesRateCountersInDatabase(t *testing.T) {
	cfg := bootstrapConfig()
	cfg.Server.RateLimit = app.RateLimitConfig{Requests: 1, Window: time.Minute, Backend: "database"}

	stack, err := bootstrapRuntime(t.Context(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(t.Context(), zap.NewNop()) })

	login := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"x@example.com","password":"nope"}`))
		req.Header.Set("Content-Type", "application/json")
		stack.Router.ServeHTTP(w, req)
		return w.Code
	}
	require.Equal(t, http.StatusUnauthorized, login())
	require.Equal(t, http.StatusTooManyRequests, login())

	var counters int64
	require.NoError(t, stack.DB.Model(&models.RateCounter{}).Count(&counters).Error)
	require.EqualValues(t, 1, counters)
}

func TestBootstrapRuntimeSkipsReporterWhenDisabled(t *testing.T) {
	cfg := bootstrapConfig()
	cfg.Maintenance.Enabled = false

	stack, err := bootstrapRuntime(t.Context(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(t.Context(), zap.NewNop()) })
	require.Nil(t, stack.Reporter)
}

func TestBootstrapRuntimeRejectsIncompleteAdminSeed(t *testing.T) {
	cfg := bootstrapConfig()
	cfg.Auth.Admin.Password = ""

	_, err := bootstrapRuntime(t.Context(), cfg, zap.NewNop())
	require.ErrorContains(t, err, "admin seed requires both email and password")
}

func TestRuntimeStackShutdownIsIdempotent(t *testing.T) {
	stack, err := bootstrapRuntime(t.Context(), bootstrapConfig(), zap.NewNop())
	require.NoError(t, err)

	stack.Shutdown(t.Context(), zap.NewNop())
	stack.Shutdown(t.Context(), zap.NewNop())
	require.Nil(t, stack.DB)

	var nilStack *runtimeStack
	nilStack.Shutdown(t.Context(), zap.NewNop())
}

func TestLoadEnvFile(t *testing.T) {
	require.NoError(t, loadEnvFile(""))
	require.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CASEINTAKE_TEST_DOTENV=from-file\n"), 0o600))
	t.Setenv("CASEINTAKE_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("CASEINTAKE_TEST_DOTENV"))

	require.NoError(t, loadEnvFile(path))
	require.Equal(t, "from-file", os.Getenv("CASEINTAKE_TEST_DOTENV"))
}

func TestLoadApplicationConfig(t *testing.T) {
	_, err := loadApplicationConfig(filepath.Join(t.TempDir(), "nope"))
	require.ErrorContains(t, err, "does not exist")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: 9191\n"), 0o600))

	cfg, err := loadApplicationConfig(dir)
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.Server.Port)

	cfg, err = loadApplicationConfig(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.Server.Port)
}

func TestRunHelp(t *testing.T) {
	err := run(t.Context(), []string{"--help"})
	require.ErrorIs(t, err, pflag.ErrHelp)
}
