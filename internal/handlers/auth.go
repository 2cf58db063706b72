package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/charlesng35/caseintake/internal/auth"
	"github.com/charlesng35/caseintake/internal/auth/providers"
	"github.com/charlesng35/caseintake/internal/models"
	appErrors "github.com/charlesng35/caseintake/pkg/errors"
	"github.com/charlesng35/caseintake/pkg/logger"
	"github.com/charlesng35/caseintake/pkg/metrics"
	"github.com/charlesng35/caseintake/pkg/response"
)

// ErrCredentialsRequired is returned when either login field is blank.
var ErrCredentialsRequired = appErrors.NewBadRequest("Email and password are required")

// Authenticator verifies an email and password pair.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// AuthHandler manages the admin session lifecycle (login/logout/me).
type AuthHandler struct {
	provider Authenticator
	sessions *iauth.SessionService
	log      *zap.Logger
}

func NewAuthHandler(provider Authenticator, sessions *iauth.SessionService) (*AuthHandler, error) {
	if provider == nil {
		return nil, errors.New("auth handler: authenticator is required")
	}
	if sessions == nil {
		return nil, errors.New("auth handler: session service is required")
	}
	return &AuthHandler{provider: provider, sessions: sessions, log: logger.WithModule("auth")}, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, ErrCredentialsRequired)
		return
	}

	user, err := h.signIn(c, req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": toUserDTO(user)})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	http.SetCookie(c.Writer, h.sessions.ClearCookie())
	response.Success(c, http.StatusOK, nil)
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user := sessionUser(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": toUserDTO(user)})
}

// signIn authenticates the pair, issues the session cookie and records the
// attempt. Returned errors are AppErrors ready for rendering.
func (h *AuthHandler) signIn(c *gin.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	user, err := h.provider.Authenticate(requestContext(c), email, password)
	switch {
	case errors.Is(err, providers.ErrAccountLocked):
		metrics.AuthAttempts.WithLabelValues("locked").Inc()
		h.log.Warn("login refused for locked account", zap.String("ip", c.ClientIP()))
		return nil, appErrors.ErrAccountLocked
	case errors.Is(err, providers.ErrInvalidCredentials):
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, appErrors.ErrInvalidCredentials
	case err != nil:
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		h.log.Error("authentication failed", zap.Error(err))
		return nil, appErrors.ErrInternalServer.WithInternal(err)
	}

	session, err := h.sessions.Start(user)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		h.log.Error("issue session", zap.Error(err))
		return nil, appErrors.ErrInternalServer.WithInternal(err)
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	http.SetCookie(c.Writer, h.sessions.Cookie(session))
	h.log.Info("admin signed in", zap.String("user_id", user.ID))
	return user, nil
}
