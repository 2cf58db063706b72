package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/caseintake/internal/api"
	"github.com/charlesng35/caseintake/internal/app"
	"github.com/charlesng35/caseintake/internal/app/maintenance"
	"github.com/charlesng35/caseintake/internal/cache"
	"github.com/charlesng35/caseintake/internal/database"
	"github.com/charlesng35/caseintake/internal/middleware"
	"github.com/charlesng35/caseintake/internal/security"
	"github.com/charlesng35/caseintake/internal/services"
	"github.com/charlesng35/caseintake/internal/storage"
	"github.com/charlesng35/caseintake/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Store     storage.BlobStore
	Reporter  *maintenance.Reporter
	RateStore middleware.RateStore
	Router    *gin.Engine
}

// bootstrapRuntime opens the database and blob store, starts the reporter and
// builds the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	stack.Store, err = storage.New(ctx, cfg.Storage.BlobStoreConfig(), stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise blob store: %w", err)
	}
	log.Info("blob store ready", zap.String("backend", stack.Store.Backend()))

	logSecurityAudit(ctx, security.NewAuditService(stack.DB, cfg), log)

	var counters cache.Counter
	if cfg.Server.RateLimit.UsesDatabase() {
		dbCounters, err := cache.NewDatabaseStore(stack.DB)
		if err != nil {
			return nil, fmt.Errorf("initialise rate counters: %w", err)
		}
		counters = dbCounters
		stack.RateStore = middleware.NewCounterRateStore(dbCounters)
	} else {
		stack.RateStore = middleware.NewMemoryRateStore()
	}

	if cfg.Maintenance.Enabled {
		leads, err := services.NewLeadService(stack.DB)
		if err != nil {
			return nil, err
		}
		stack.Reporter, err = maintenance.NewReporter(stack.DB, leads,
			maintenance.WithSchedule(cfg.Maintenance.Schedule),
			maintenance.WithStaleAfter(cfg.Maintenance.StaleAfter),
			maintenance.WithRateCounters(counters))
		if err != nil {
			return nil, fmt.Errorf("initialise maintenance reporter: %w", err)
		}
		if err := stack.Reporter.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.Router, err = api.NewRouter(api.Dependencies{
		Config:    cfg,
		DB:        stack.DB,
		Store:     stack.Store,
		RateStore: stack.RateStore,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

func logSecurityAudit(ctx context.Context, audit *security.AuditService, log *zap.Logger) {
	result := audit.Run(ctx)
	for _, check := range result.Failed() {
		log.Warn("security audit",
			zap.String("check", check.ID),
			zap.String("status", string(check.Status)),
			zap.String("message", check.Message),
			zap.String("remediation", check.Remediation))
	}
}

// Shutdown stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Reporter != nil {
		if stopCtx := s.Reporter.Stop(); stopCtx != nil {
			<-stopCtx.Done()
		}
		if err := s.Reporter.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown run failed", zap.Error(err))
		}
		s.Reporter = nil
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
		s.DB = nil
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db, cfg.Auth.AdminSeed()); err != nil {
		closeDatabase(db, logger.WithModule("database"))
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
