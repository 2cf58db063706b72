package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/caseintake/internal/models"
)

// DefaultCookieName is the cookie carrying the admin session token.
const DefaultCookieName = "token"

var (
	// ErrSessionMissing indicates the request carried no session token.
	ErrSessionMissing = errors.New("session: missing")
	// ErrSessionInvalid is returned for malformed, expired or forged tokens.
	ErrSessionInvalid = errors.New("session: invalid token")
	// ErrSessionUserGone signals a valid token whose user no longer exists.
	ErrSessionUserGone = errors.New("session: user not found")
)

// SessionConfig describes the session cookie.
type SessionConfig struct {
	CookieName string
	Secure     bool
	SameSite   http.SameSite
	Domain     string
	Clock      func() time.Time
}

// Session is an issued admin session.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// SessionService issues, resolves and clears cookie-held admin sessions.
// Sessions are stateless: the signed token is the whole session and expiry is
// the only way one ends server-side.
type SessionService struct {
	db       *gorm.DB
	jwt      *JWTService
	name     string
	secure   bool
	sameSite http.SameSite
	domain   string
	now      func() time.Time
}

// NewSessionService constructs a session manager backed by the provided database and JWT service.
func NewSessionService(db *gorm.DB, jwtService *JWTService, cfg SessionConfig) (*SessionService, error) {
	if db == nil {
		return nil, errors.New("session service: db is required")
	}
	if jwtService == nil {
		return nil, errors.New("session service: jwt service is required")
	}

	name := strings.TrimSpace(cfg.CookieName)
	if name == "" {
		name = DefaultCookieName
	}

	sameSite := cfg.SameSite
	if sameSite == 0 {
		sameSite = http.SameSiteLaxMode
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &SessionService{
		db:       db,
		jwt:      jwtService,
		name:     name,
		secure:   cfg.Secure,
		sameSite: sameSite,
		domain:   cfg.Domain,
		now:      clock,
	}, nil
}

// CookieName returns the name of the session cookie.
func (s *SessionService) CookieName() string {
	return s.name
}

// Start issues a session for an authenticated user.
func (s *SessionService) Start(user *models.User) (*Session, error) {
	if user == nil || strings.TrimSpace(user.ID) == "" {
		return nil, errors.New("session service: user is required")
	}

	token, expiresAt, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("session service: issue token: %w", err)
	}

	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Resolve validates the token and loads the user it belongs to.
func (s *SessionService) Resolve(ctx context.Context, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrSessionMissing
	}

	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionInvalid, err)
	}

	var user models.User
	err = s.db.WithContext(ctx).Take(&user, "id = ?", claims.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionUserGone
	}
	if err != nil {
		return nil, fmt.Errorf("session service: load user: %w", err)
	}

	return &user, nil
}

// Cookie builds the Set-Cookie value for a freshly started session.
func (s *SessionService) Cookie(session *Session) *http.Cookie {
	maxAge := int(session.ExpiresAt.Sub(s.now()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	return &http.Cookie{
		Name:     s.name,
		Value:    session.Token,
		Path:     "/",
		Domain:   s.domain,
		Expires:  session.ExpiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: s.sameSite,
	}
}

// ClearCookie builds a Set-Cookie value that removes the session cookie.
func (s *SessionService) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		Domain:   s.domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: s.sameSite,
	}
}
