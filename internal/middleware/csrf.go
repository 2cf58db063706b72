package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/caseintake/pkg/crypto"
	"github.com/charlesng35/caseintake/pkg/errors"
	"github.com/charlesng35/caseintake/pkg/logger"
	"github.com/charlesng35/caseintake/pkg/response"
)

const (
	// CSRFCookieName is the cookie used to transport the CSRF token to clients.
	CSRFCookieName = "caseintake_csrf"
	// CSRFHeaderName is the header clients may present for unsafe HTTP methods.
	CSRFHeaderName = "X-CSRF-Token"
	// CSRFFormField is the form field HTML forms echo the token in.
	CSRFFormField = "csrf_token"
	// CtxCSRFTokenKey exposes the current token to page handlers.
	CtxCSRFTokenKey = "csrfToken"

	csrfTokenLength  = 48
	csrfCookieMaxAge = 12 * 60 * 60
	csrfLoggerModule = "csrf"
)

var unsafeMethods = map[string]struct{}{
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

// CSRF implements the double-submit-cookie pattern for the server-rendered forms.
// Safe methods receive a token via cookie and header. Mutating requests must echo
// it in the X-CSRF-Token header or the csrf_token form field.
func CSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method == http.MethodOptions {
			c.Next()
			return
		}

		token, issued, err := ensureCSRFCookie(c)
		if err != nil {
			response.Error(c, errors.ErrInternalServer)
			c.Abort()
			return
		}

		c.Set(CtxCSRFTokenKey, token)

		if isUnsafeMethod(method) {
			submitted := strings.TrimSpace(c.GetHeader(CSRFHeaderName))
			if submitted == "" {
				submitted = strings.TrimSpace(c.PostForm(CSRFFormField))
			}
			if submitted == "" || !constantTimeEqual(token, submitted) {
				logger.WithModule(csrfLoggerModule).Warn("csrf validation failed",
					// Avoid logging token contents
					zap.String("method", method),
					zap.String("path", c.FullPath()),
					zap.Bool("cookie_issued", issued),
				)
				response.Error(c, errors.ErrCSRFInvalid)
				c.Abort()
				return
			}
		} else {
			c.Header(CSRFHeaderName, token)
		}

		c.Next()
	}
}

func ensureCSRFCookie(c *gin.Context) (token string, issued bool, err error) {
	if existing, err := c.Cookie(CSRFCookieName); err == nil && len(existing) > 0 {
		setCSRFCookie(c, existing)
		return existing, false, nil
	}

	token, err = crypto.GenerateToken(csrfTokenLength)
	if err != nil {
		return "", false, err
	}
	setCSRFCookie(c, token)
	return token, true, nil
}

func setCSRFCookie(c *gin.Context, token string) {
	secure := isSecureRequest(c.Request)
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		Secure:   secure,
		HttpOnly: false,
		MaxAge:   csrfCookieMaxAge,
		SameSite: http.SameSiteLaxMode,
	})
}

func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	return strings.EqualFold(scheme, "https")
}

func isUnsafeMethod(method string) bool {
	_, ok := unsafeMethods[method]
	return ok
}

func constantTimeEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// CSRFToken returns the token CSRF attached to the request, if any.
func CSRFToken(c *gin.Context) string {
	return c.GetString(CtxCSRFTokenKey)
}
