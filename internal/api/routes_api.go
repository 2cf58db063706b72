package api

import (
	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/caseintake/internal/auth"
	"github.com/charlesng35/caseintake/internal/handlers"
	"github.com/charlesng35/caseintake/internal/middleware"
)

type apiRouteDeps struct {
	Sessions    *iauth.SessionService
	Intake      gin.HandlerFunc
	AuthHandler *handlers.AuthHandler
	LeadHandler *handlers.LeadHandler
	FileHandler *handlers.FileHandler
}

func registerAPIRoutes(engine *gin.Engine, deps apiRouteDeps) {
	requireSession := middleware.RequireSession(deps.Sessions)

	api := engine.Group("/api")

	// Public intake
	api.POST("/leads", deps.Intake, deps.LeadHandler.Create)
	api.POST("/upload", deps.Intake, deps.FileHandler.Upload)
	api.GET("/files/:id", deps.FileHandler.Download)

	auth := api.Group("/auth")
	{
		auth.POST("/login", deps.Intake, deps.AuthHandler.Login)
		auth.POST("/logout", deps.AuthHandler.Logout)
		auth.GET("/me", requireSession, deps.AuthHandler.Me)
	}

	leads := api.Group("/leads", requireSession)
	{
		leads.GET("", deps.LeadHandler.List)
		leads.GET("/:id", deps.LeadHandler.Get)
		leads.PATCH("/:id", deps.LeadHandler.UpdateStatus)
	}
}
