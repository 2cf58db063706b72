package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/caseintake/internal/app"
	iauth "github.com/charlesng35/caseintake/internal/auth"
	"github.com/charlesng35/caseintake/internal/auth/providers"
	"github.com/charlesng35/caseintake/internal/handlers"
	"github.com/charlesng35/caseintake/internal/middleware"
	"github.com/charlesng35/caseintake/internal/monitoring"
	"github.com/charlesng35/caseintake/internal/monitoring/checks"
	"github.com/charlesng35/caseintake/internal/services"
	"github.com/charlesng35/caseintake/internal/storage"
	"github.com/charlesng35/caseintake/web"
)

// Dependencies are the long-lived collaborators the router wires into handlers.
type Dependencies struct {
	Config *app.Config
	DB     *gorm.DB
	Store  storage.BlobStore
	// RateStore backs the intake rate limiter. Nil uses a process-local store.
	RateStore middleware.RateStore
}

// NewRouter builds the Gin engine, wires middleware and registers the API,
// page and health routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	cfg := deps.Config
	switch {
	case cfg == nil:
		return nil, errors.New("config must be provided")
	case deps.DB == nil:
		return nil, errors.New("database handle must be provided")
	case deps.Store == nil:
		return nil, errors.New("blob store must be provided")
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("jwt service: %w", err)
	}
	sessions, err := iauth.NewSessionService(deps.DB, jwtSvc, cfg.SessionServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("session service: %w", err)
	}
	provider, err := providers.NewLocalProvider(deps.DB, cfg.Auth.LocalProviderConfig())
	if err != nil {
		return nil, fmt.Errorf("local provider: %w", err)
	}

	leadSvc, err := services.NewLeadService(deps.DB)
	if err != nil {
		return nil, err
	}
	fileSvc, err := services.NewFileService(deps.DB, deps.Store, cfg.Storage.FileServiceConfig())
	if err != nil {
		return nil, err
	}
	submissions, err := services.NewSubmissionService(leadSvc, fileSvc)
	if err != nil {
		return nil, err
	}

	authHandler, err := handlers.NewAuthHandler(provider, sessions)
	if err != nil {
		return nil, err
	}
	leadHandler, err := handlers.NewLeadHandler(leadSvc)
	if err != nil {
		return nil, err
	}
	fileHandler, err := handlers.NewFileHandler(fileSvc)
	if err != nil {
		return nil, err
	}
	pageHandler, err := handlers.NewPageHandler(handlers.PageDeps{
		Submitter:      submissions,
		Leads:          leadSvc,
		Auth:           authHandler,
		MaxUploadBytes: fileSvc.MaxBytes(),
	})
	if err != nil {
		return nil, err
	}

	templates, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	assets, err := web.Static()
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger(middleware.WithSkipPrefixes("/static/", "/health", "/api/health")))
	r.Use(middleware.Metrics("/metrics"))
	r.Use(middleware.SecurityHeaders(cfg.Server.IsProduction()))

	r.SetHTMLTemplate(templates)
	r.StaticFS("/static", http.FS(assets))

	rateStore := deps.RateStore
	if rateStore == nil {
		rateStore = middleware.NewMemoryRateStore()
	}
	// Public writes share one limiter keyed by client, method and route.
	intake := middleware.RateLimit(rateStore, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window)

	health := monitoring.NewManager(0)
	health.Register(checks.Database(deps.DB), checks.BlobStore(deps.Store))
	registerHealthRoutes(r, health)

	registerAPIRoutes(r, apiRouteDeps{
		Sessions:    sessions,
		Intake:      intake,
		AuthHandler: authHandler,
		LeadHandler: leadHandler,
		FileHandler: fileHandler,
	})
	registerPageRoutes(r, pageRouteDeps{
		Sessions:    sessions,
		Intake:      intake,
		PageHandler: pageHandler,
	})

	if cfg.Metrics.Enabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
