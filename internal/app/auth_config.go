package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/charlesng35/caseintake/internal/auth"
	"github.com/charlesng35/caseintake/internal/auth/providers"
	"github.com/charlesng35/caseintake/internal/database"
)

const (
	defaultLockoutThreshold = 5
	defaultLockoutDuration  = 15 * time.Minute
	defaultIssuer           = "caseintake"
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultSessionTTL
	}

	issuer := strings.TrimSpace(c.JWT.Issuer)
	if issuer == "" {
		issuer = defaultIssuer
	}

	return auth.JWTConfig{
		Secret: c.JWT.Secret,
		Issuer: issuer,
		TTL:    ttl,
	}
}

// SessionServiceConfig converts the session settings into SessionService
// parameters. Production servers always mark the cookie Secure.
func (c Config) SessionServiceConfig() auth.SessionConfig {
	name := strings.TrimSpace(c.Auth.Session.CookieName)
	if name == "" {
		name = auth.DefaultCookieName
	}

	return auth.SessionConfig{
		CookieName: name,
		Secure:     c.Auth.Session.Secure || c.Server.IsProduction(),
		SameSite:   parseSameSite(c.Auth.Session.SameSite),
		Domain:     strings.TrimSpace(c.Auth.Session.Domain),
	}
}

// LocalProviderConfig converts AuthConfig into LocalProvider parameters.
func (c AuthConfig) LocalProviderConfig() providers.LocalConfig {
	duration := c.Local.LockoutDuration
	if duration <= 0 {
		duration = defaultLockoutDuration
	}

	threshold := c.Local.LockoutThreshold
	if threshold <= 0 {
		threshold = defaultLockoutThreshold
	}

	return providers.LocalConfig{
		LockoutThreshold: threshold,
		LockoutDuration:  duration,
	}
}

// AdminSeed returns the admin account created on first start.
func (c AuthConfig) AdminSeed() database.AdminSeed {
	return database.AdminSeed{
		Email:    strings.TrimSpace(c.Admin.Email),
		Password: c.Admin.Password,
		Name:     strings.TrimSpace(c.Admin.Name),
	}
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
