package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/caseintake/internal/database/testutil"
	"github.com/charlesng35/caseintake/internal/models"
)

type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time { return c.current }

func (c *fakeClock) Advance(d time.Duration) { c.current = c.current.Add(d) }

func TestStartAndResolveSession(t *testing.T) {
	db, svc, _ := setupSessionService(t, SessionConfig{})
	user := createTestUser(t, db, "admin@example.com")

	session, err := svc.Start(user)
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)

	resolved, err := svc.Resolve(context.Background(), session.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, resolved.ID)
	require.Equal(t, "admin@example.com", resolved.Email)
}

func TestResolveRejectsMissingAndForgedTokens(t *testing.T) {
	_, svc, _ := setupSessionService(t, SessionConfig{})

	_, err := svc.Resolve(context.Background(), "  ")
	require.True(t, errors.Is(err, ErrSessionMissing))

	_, err = svc.Resolve(context.Background(), "not-a-jwt")
	require.True(t, errors.Is(err, ErrSessionInvalid))
}

func TestResolveExpiredSession(t *testing.T) {
	db, svc, clock := setupSessionService(t, SessionConfig{})
	user := createTestUser(t, db, "admin@example.com")

	session, err := svc.Start(user)
	require.NoError(t, err)

	clock.Advance(DefaultSessionTTL + time.Second)

	_, err = svc.Resolve(context.Background(), session.Token)
	require.True(t, errors.Is(err, ErrSessionInvalid))
}

func TestResolveDeletedUser(t *testing.T) {
	db, svc, _ := setupSessionService(t, SessionConfig{})
	user := createTestUser(t, db, "admin@example.com")

	session, err := svc.Start(user)
	require.NoError(t, err)

	require.NoError(t, db.Delete(&models.User{}, "id = ?", user.ID).Error)

	_, err = svc.Resolve(context.Background(), session.Token)
	require.True(t, errors.Is(err, ErrSessionUserGone))
}

func TestSessionCookieAttributes(t *testing.T) {
	db, svc, clock := setupSessionService(t, SessionConfig{Secure: true})
	user := createTestUser(t, db, "admin@example.com")

	session, err := svc.Start(user)
	require.NoError(t, err)

	cookie := svc.Cookie(session)
	require.Equal(t, DefaultCookieName, cookie.Name)
	require.Equal(t, session.Token, cookie.Value)
	require.Equal(t, "/", cookie.Path)
	require.True(t, cookie.HttpOnly)
	require.True(t, cookie.Secure)
	require.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	require.Equal(t, int(DefaultSessionTTL.Seconds()), cookie.MaxAge)
	require.True(t, cookie.Expires.Equal(clock.Now().Add(DefaultSessionTTL)))

	cleared := svc.ClearCookie()
	require.Equal(t, DefaultCookieName, cleared.Name)
	require.Empty(t, cleared.Value)
	require.Equal(t, "/", cleared.Path)
	require.Equal(t, -1, cleared.MaxAge)
	require.True(t, cleared.Expires.Equal(time.Unix(0, 0)))
}

func TestStartRequiresUser(t *testing.T) {
	_, svc, _ := setupSessionService(t, SessionConfig{CookieName: "admin_session"})
	require.Equal(t, "admin_session", svc.CookieName())

	_, err := svc.Start(nil)
	require.Error(t, err)
}

func setupSessionService(t *testing.T, cfg SessionConfig) (*gorm.DB, *SessionService, *fakeClock) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	clock := &fakeClock{current: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}

	jwtSvc, err := NewJWTService(JWTConfig{Secret: "session-secret", Issuer: "caseintake", Clock: clock.Now})
	require.NoError(t, err)

	cfg.Clock = clock.Now
	svc, err := NewSessionService(db, jwtSvc, cfg)
	require.NoError(t, err)

	return db, svc, clock
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{Email: email, Name: "Admin User", Password: "hash"}
	require.NoError(t, db.Create(user).Error)
	return user
}
