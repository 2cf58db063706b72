package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/caseintake/internal/middleware"
	"github.com/charlesng35/caseintake/internal/models"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil || c.Request == nil {
		return context.Background()
	}
	return c.Request.Context()
}

// sessionUser returns the admin attached by the session middleware.
func sessionUser(c *gin.Context) *models.User {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return nil
	}
	return user
}
