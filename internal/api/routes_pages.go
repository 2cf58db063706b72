package api

import (
	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/caseintake/internal/auth"
	"github.com/charlesng35/caseintake/internal/handlers"
	"github.com/charlesng35/caseintake/internal/middleware"
)

type pageRouteDeps struct {
	Sessions    *iauth.SessionService
	Intake      gin.HandlerFunc
	PageHandler *handlers.PageHandler
}

func registerPageRoutes(engine *gin.Engine, deps pageRouteDeps) {
	h := deps.PageHandler

	pages := engine.Group("/", middleware.CSRF())
	pages.GET("/", h.AssessmentForm)
	pages.GET("/assessment", h.AssessmentForm)
	pages.POST("/assessment", deps.Intake, h.SubmitAssessment)

	pages.GET(handlers.AdminLoginPath, middleware.OptionalSession(deps.Sessions), h.AdminLogin)
	pages.POST(handlers.AdminLoginPath, deps.Intake, h.AdminLoginSubmit)
	pages.POST("/admin/logout", h.AdminLogout)

	admin := pages.Group(handlers.AdminLeadsPath, middleware.RequireSessionPage(deps.Sessions, handlers.AdminLoginPath))
	{
		admin.GET("", h.AdminLeads)
		admin.GET("/:id", h.AdminLead)
		admin.POST("/:id/status", h.UpdateLeadStatus)
	}
}
