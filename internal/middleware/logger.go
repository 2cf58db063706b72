package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/charlesng35/caseintake/pkg/logger"
)

// LoggerOption adjusts the access logger.
type LoggerOption func(*accessLog)

type accessLog struct {
	log  *zap.Logger
	skip []string
}

// WithAccessLogger writes to log instead of the shared "http" module logger.
func WithAccessLogger(log *zap.Logger) LoggerOption {
	return func(a *accessLog) {
		if log != nil {
			a.log = log
		}
	}
}

// WithSkipPrefixes suppresses successful requests under any of the prefixes.
func WithSkipPrefixes(prefixes ...string) LoggerOption {
	return func(a *accessLog) {
		a.skip = append(a.skip, prefixes...)
	}
}

// Logger writes one structured access line per request. Lines are keyed by
// route template so lead and file ids do not leak into the path field.
func Logger(opts ...LoggerOption) gin.HandlerFunc {
	a := &accessLog{}
	for _, opt := range opts {
		opt(a)
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if status < 400 && a.skipped(c.Request.URL.Path) {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if userID := c.GetString(CtxUserIDKey); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			fields = append(fields, zap.String("errors", errs.String()))
		}

		log := a.log
		if log == nil {
			log = logger.WithModule("http")
		}
		if ce := log.Check(accessLevel(status), "request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

func (a *accessLog) skipped(path string) bool {
	for _, prefix := range a.skip {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func accessLevel(status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
