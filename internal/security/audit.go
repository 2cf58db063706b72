// Package security audits the deployment's security posture at start-up.
package security

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/caseintake/internal/app"
	"github.com/charlesng35/caseintake/internal/models"
)

// CheckStatus captures the outcome of a security audit check.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusWarn CheckStatus = "warn"
	StatusFail CheckStatus = "fail"
)

// Check contains the result of a single audit verification.
type Check struct {
	ID          string      `json:"id"`
	Status      CheckStatus `json:"status"`
	Message     string      `json:"message"`
	Remediation string      `json:"remediation,omitempty"`
	Details     any         `json:"details,omitempty"`
}

// Result aggregates all checks with a simple status summary.
type Result struct {
	CheckedAt time.Time      `json:"checked_at"`
	Checks    []Check        `json:"checks"`
	Summary   map[string]int `json:"summary"`
}

// Failed returns the checks that did not pass.
func (r Result) Failed() []Check {
	var out []Check
	for _, c := range r.Checks {
		if c.Status != StatusPass {
			out = append(out, c)
		}
	}
	return out
}

const (
	minSecretBytes         = 32
	recommendedSecretBytes = 48
	maxRecommendedTTL      = 30 * 24 * time.Hour
)

// AuditService evaluates core security controls and configuration.
type AuditService struct {
	db  *gorm.DB
	cfg *app.Config
	now func() time.Time
}

// NewAuditService constructs the audit service. Missing inputs degrade the
// affected checks to warnings.
func NewAuditService(db *gorm.DB, cfg *app.Config) *AuditService {
	return &AuditService{db: db, cfg: cfg, now: time.Now}
}

// WithClock overrides the clock used in results.
func (s *AuditService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Run executes all audit checks and returns their outcome.
func (s *AuditService) Run(ctx context.Context) Result {
	if ctx == nil {
		ctx = context.Background()
	}

	checks := []Check{
		s.checkAdminAccount(ctx),
		s.checkJWTSecret(),
		s.checkSessionTTL(),
		s.checkSessionCookie(),
		s.checkUploadInspection(),
	}

	summary := map[string]int{
		string(StatusPass): 0,
		string(StatusWarn): 0,
		string(StatusFail): 0,
	}
	for _, check := range checks {
		summary[string(check.Status)]++
	}

	return Result{
		CheckedAt: s.now().UTC(),
		Checks:    checks,
		Summary:   summary,
	}
}

func configMissing(id string) Check {
	return Check{
		ID:          id,
		Status:      StatusWarn,
		Message:     "Configuration not loaded.",
		Remediation: "Load configuration before running the security audit.",
	}
}

func (s *AuditService) checkAdminAccount(ctx context.Context) Check {
	const id = "admin_account_present"
	if s.db == nil {
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     "Database unavailable, unable to confirm an admin account exists.",
			Remediation: "Ensure database connectivity before running the audit.",
		}
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Could not count admin accounts: %v", err),
			Remediation: "Retry after resolving database errors.",
		}
	}

	if count == 0 {
		return Check{
			ID:          id,
			Status:      StatusFail,
			Message:     "No admin account exists, nobody can review leads.",
			Remediation: "Set CASEINTAKE_AUTH_ADMIN_EMAIL and CASEINTAKE_AUTH_ADMIN_PASSWORD and restart.",
		}
	}

	return Check{
		ID:      id,
		Status:  StatusPass,
		Message: "Admin account present.",
		Details: map[string]any{"count": count},
	}
}

func (s *AuditService) checkJWTSecret() Check {
	const id = "jwt_secret_strength"
	if s.cfg == nil {
		return configMissing(id)
	}

	length := len(strings.TrimSpace(s.cfg.Auth.JWT.Secret))
	switch {
	case length == 0:
		return Check{
			ID:          id,
			Status:      StatusFail,
			Message:     "Missing JWT signing secret.",
			Remediation: "Provide a cryptographically secure signing secret (>= 32 bytes).",
		}
	case length < minSecretBytes:
		return Check{
			ID:          id,
			Status:      StatusFail,
			Message:     fmt.Sprintf("JWT signing secret is too short (%d bytes).", length),
			Remediation: "Use a randomly generated secret of at least 32 bytes.",
			Details:     map[string]any{"length": length},
		}
	case length < recommendedSecretBytes:
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     fmt.Sprintf("JWT signing secret is %d bytes. Consider increasing to 48+ bytes.", length),
			Remediation: "Increase the length of CASEINTAKE_AUTH_JWT_SECRET to at least 48 bytes.",
			Details:     map[string]any{"length": length},
		}
	default:
		return Check{
			ID:      id,
			Status:  StatusPass,
			Message: fmt.Sprintf("JWT signing secret length is %d bytes.", length),
			Details: map[string]any{"length": length},
		}
	}
}

func (s *AuditService) checkSessionTTL() Check {
	const id = "session_ttl"
	if s.cfg == nil {
		return configMissing(id)
	}

	ttl := s.cfg.Auth.JWT.TTL
	if ttl <= 0 {
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     "Session lifetime is not configured; using default duration.",
			Remediation: "Set CASEINTAKE_AUTH_JWT_TTL to control session lifetime.",
		}
	}
	if ttl > maxRecommendedTTL {
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Session lifetime (%s) exceeds recommended maximum (%s).", ttl, maxRecommendedTTL),
			Remediation: "Reduce the session lifetime to 30 days or lower; expiry is the only way a session ends.",
			Details:     map[string]any{"ttl": ttl.String()},
		}
	}

	return Check{
		ID:      id,
		Status:  StatusPass,
		Message: fmt.Sprintf("Session lifetime is %s.", ttl),
		Details: map[string]any{"ttl": ttl.String()},
	}
}

func (s *AuditService) checkSessionCookie() Check {
	const id = "session_cookie_secure"
	if s.cfg == nil {
		return configMissing(id)
	}

	if !s.cfg.SessionServiceConfig().Secure {
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     "Session cookie is also sent over plain HTTP.",
			Remediation: "Serve over HTTPS and set CASEINTAKE_AUTH_SESSION_SECURE=true or CASEINTAKE_SERVER_ENVIRONMENT=production.",
		}
	}

	return Check{
		ID:      id,
		Status:  StatusPass,
		Message: "Session cookie is restricted to HTTPS.",
	}
}

func (s *AuditService) checkUploadInspection() Check {
	const id = "upload_inspection"
	if s.cfg == nil {
		return configMissing(id)
	}

	if !s.cfg.Storage.InspectDocuments {
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     "Uploaded resumes are stored without being parsed.",
			Remediation: "Set CASEINTAKE_STORAGE_INSPECT_DOCUMENTS=true to reject files that do not match their extension.",
		}
	}

	return Check{
		ID:      id,
		Status:  StatusPass,
		Message: "Uploaded resumes are parsed before storage.",
	}
}
