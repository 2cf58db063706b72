// Package maintenance runs periodic housekeeping next to the HTTP server.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/caseintake/internal/cache"
	"github.com/charlesng35/caseintake/internal/models"
	"github.com/charlesng35/caseintake/internal/services"
	"github.com/charlesng35/caseintake/pkg/logger"
	"github.com/charlesng35/caseintake/pkg/metrics"
)

const (
	defaultSchedule   = "@every 5m"
	defaultStaleAfter = 72 * time.Hour
)

// Reporter refreshes lead gauges, releases expired admin lockouts and purges
// expired rate counters on a cron schedule.
type Reporter struct {
	db         *gorm.DB
	leads      *services.LeadService
	cron       *cron.Cron
	now        func() time.Time
	log        *zap.Logger
	schedule   string
	staleAfter time.Duration
	counters   cache.Counter
}

// Option customises the Reporter.
type Option func(*Reporter)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(r *Reporter) {
		if c != nil {
			r.cron = c
		}
	}
}

// WithNow overrides the clock used for staleness and lockout comparisons.
func WithNow(now func() time.Time) Option {
	return func(r *Reporter) {
		if now != nil {
			r.now = now
		}
	}
}

// WithSchedule overrides the cron specification.
func WithSchedule(spec string) Option {
	return func(r *Reporter) {
		if spec != "" {
			r.schedule = spec
		}
	}
}

// WithStaleAfter sets how long a lead may stay pending before it counts as stale.
func WithStaleAfter(d time.Duration) Option {
	return func(r *Reporter) {
		if d > 0 {
			r.staleAfter = d
		}
	}
}

// WithRateCounters purges expired shared rate-limit counters on every run.
func WithRateCounters(c cache.Counter) Option {
	return func(r *Reporter) {
		r.counters = c
	}
}

// NewReporter constructs a Reporter.
func NewReporter(db *gorm.DB, leads *services.LeadService, opts ...Option) (*Reporter, error) {
	if db == nil {
		return nil, errors.New("maintenance: db is required")
	}
	if leads == nil {
		return nil, errors.New("maintenance: lead service is required")
	}

	r := &Reporter{
		db:         db,
		leads:      leads,
		now:        time.Now,
		log:        logger.WithModule("maintenance"),
		schedule:   defaultSchedule,
		staleAfter: defaultStaleAfter,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cron == nil {
		r.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return r, nil
}

// Start registers the job and launches the scheduler.
func (r *Reporter) Start() error {
	if _, err := r.cron.AddFunc(r.schedule, func() {
		if err := r.RunOnce(context.Background()); err != nil {
			r.log.Warn("maintenance run failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("maintenance: schedule %q: %w", r.schedule, err)
	}
	r.cron.Start()
	return nil
}

// Stop halts the scheduler. The returned context is done once running jobs finish.
func (r *Reporter) Stop() context.Context {
	return r.cron.Stop()
}

// Snapshot is the outcome of one run.
type Snapshot struct {
	ByStatus         map[models.LeadStatus]int64
	StalePending     int64
	ReleasedLockouts int64
	PurgedCounters   int64
}

// Run refreshes the gauges and releases lockouts, returning what it saw.
// Every step runs even when an earlier one fails.
func (r *Reporter) Run(ctx context.Context) (Snapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	now := r.now()

	var (
		snap Snapshot
		errs error
	)

	counts, err := r.leads.CountByStatus(ctx)
	if err != nil {
		errs = multierr.Append(errs, err)
	} else {
		snap.ByStatus = counts
		for status, total := range counts {
			metrics.LeadsByStatus.WithLabelValues(string(status)).Set(float64(total))
		}
	}

	stale, err := r.leads.CountStalePending(ctx, now.Add(-r.staleAfter))
	if err != nil {
		errs = multierr.Append(errs, err)
	} else {
		snap.StalePending = stale
		metrics.StalePendingLeads.Set(float64(stale))
	}

	released, err := ReleaseExpiredLockouts(ctx, r.db, now)
	if err != nil {
		errs = multierr.Append(errs, err)
	} else {
		snap.ReleasedLockouts = released
	}

	if r.counters != nil {
		purged, err := r.counters.PurgeExpired(ctx, now)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("purge rate counters: %w", err))
		} else {
			snap.PurgedCounters = purged
		}
	}

	if errs == nil {
		r.log.Debug("maintenance run complete",
			zap.Int64("stale_pending", snap.StalePending),
			zap.Int64("released_lockouts", snap.ReleasedLockouts),
			zap.Int64("purged_counters", snap.PurgedCounters))
	}
	return snap, errs
}

// RunOnce is Run without the snapshot.
func (r *Reporter) RunOnce(ctx context.Context) error {
	_, err := r.Run(ctx)
	return err
}

// ReleaseExpiredLockouts resets the failure counter of users whose lock has
// lapsed and returns how many were reset.
func ReleaseExpiredLockouts(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("release lockouts: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result := db.WithContext(ctx).
		Model(&models.User{}).
		Where("locked_until IS NOT NULL AND locked_until <= ?", now).
		Updates(map[string]any{
			"failed_attempts": 0,
			"locked_until":    nil,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("release lockouts: %w", result.Error)
	}
	return result.RowsAffected, nil
}
