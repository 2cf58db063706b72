package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/caseintake/internal/models"
	"github.com/charlesng35/caseintake/pkg/crypto"
)

var (
	// ErrInvalidCredentials is returned when the supplied email/password pair is invalid.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrAccountLocked signals that the user has exceeded the permitted failed attempts.
	ErrAccountLocked = errors.New("auth: account locked")
)

// LocalConfig defines tunable behaviour for the local provider.
type LocalConfig struct {
	LockoutThreshold int
	LockoutDuration  time.Duration
	Clock            func() time.Time
}

// LocalProvider implements email/password authentication with account lockout controls.
type LocalProvider struct {
	db        *gorm.DB
	clock     func() time.Time
	threshold int
	duration  time.Duration
}

// NewLocalProvider builds a provider with sane defaults.
func NewLocalProvider(db *gorm.DB, cfg LocalConfig) (*LocalProvider, error) {
	if db == nil {
		return nil, errors.New("local provider: db is required")
	}

	threshold := cfg.LockoutThreshold
	if threshold <= 0 {
		threshold = 5
	}

	duration := cfg.LockoutDuration
	if duration <= 0 {
		duration = 15 * time.Minute
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &LocalProvider{
		db:        db,
		clock:     clock,
		threshold: threshold,
		duration:  duration,
	}, nil
}

// Authenticate verifies the supplied credentials and returns the matching user.
func (p *LocalProvider) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	db := p.db.WithContext(ctx)

	var user models.User
	err := db.Where("LOWER(email) = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("local provider: query user: %w", err)
	}

	now := p.clock()
	if user.IsLocked(now) {
		return nil, ErrAccountLocked
	}

	if !crypto.VerifyPassword(user.Password, password) {
		return nil, p.recordFailure(db, &user, now)
	}

	user.FailedAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now

	if err := db.Model(&user).Updates(map[string]any{
		"failed_attempts": 0,
		"locked_until":    nil,
		"last_login_at":   now,
	}).Error; err != nil {
		return nil, fmt.Errorf("local provider: update user: %w", err)
	}

	return &user, nil
}

// recordFailure counts a bad password. An expired lock restarts the count.
func (p *LocalProvider) recordFailure(db *gorm.DB, user *models.User, now time.Time) error {
	if user.LockedUntil != nil {
		user.FailedAttempts = 0
		user.LockedUntil = nil
	}
	user.FailedAttempts++

	updates := map[string]any{
		"failed_attempts": user.FailedAttempts,
		"locked_until":    nil,
	}

	locked := user.FailedAttempts >= p.threshold
	if locked {
		lockUntil := now.Add(p.duration)
		user.LockedUntil = &lockUntil
		updates["locked_until"] = lockUntil
	}

	if err := db.Model(user).Updates(updates).Error; err != nil {
		return fmt.Errorf("local provider: update failed attempts: %w", err)
	}

	if locked {
		return ErrAccountLocked
	}
	return ErrInvalidCredentials
}
