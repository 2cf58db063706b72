package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/caseintake/internal/models"
	"github.com/charlesng35/caseintake/pkg/errors"
	"github.com/charlesng35/caseintake/pkg/response"
)

const (
	CtxUserKey   = "currentUser"
	CtxUserIDKey = "userID"
)

// SessionResolver turns a session cookie value into the signed-in admin.
type SessionResolver interface {
	CookieName() string
	Resolve(ctx context.Context, token string) (*models.User, error)
}

// RequireSession rejects API requests without a valid session with a 401 JSON body.
func RequireSession(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !attachUser(c, sessions) {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireSessionPage redirects page requests without a valid session to loginPath.
func RequireSessionPage(sessions SessionResolver, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !attachUser(c, sessions) {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalSession attaches the admin when a valid session is present and
// never rejects the request.
func OptionalSession(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		attachUser(c, sessions)
		c.Next()
	}
}

// CurrentUser returns the admin attached by one of the session middlewares.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, ok := c.Get(CtxUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

func attachUser(c *gin.Context, sessions SessionResolver) bool {
	token, err := c.Cookie(sessions.CookieName())
	if err != nil || token == "" {
		return false
	}
	user, err := sessions.Resolve(c.Request.Context(), token)
	if err != nil {
		return false
	}
	c.Set(CtxUserKey, user)
	c.Set(CtxUserIDKey, user.ID)
	return true
}
