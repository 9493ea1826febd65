// Package api wires the HTTP routes.
//
// @title Haven API
// @version 1.0
// @description Multi-tenant case management for supported housing providers.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/havenhq/haven/internal/api/handlers"
	"github.com/havenhq/haven/internal/api/middleware"
	"github.com/havenhq/haven/internal/auth"
	"github.com/havenhq/haven/internal/billing"
	"github.com/havenhq/haven/internal/config"
	"github.com/havenhq/haven/internal/metrics"
	"github.com/havenhq/haven/internal/reports"
	"github.com/havenhq/haven/internal/service"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	p "github.com/havenhq/haven/internal/permissions"
)

// Services are the domain services behind the routes.
type Services struct {
	Organizations *service.OrganizationService
	Members       *service.MemberService
	Residents     *service.ResidentService
	Properties    *service.PropertyService
	Incidents     *service.IncidentService
	Activity      *service.ActivityService
	Search        *service.SearchService
	Dashboard     *service.DashboardService
	Reports       *reports.Service
	Billing       *billing.Service
	Webhooks      *billing.Processor
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *gorm.DB, authn *auth.Authenticator, enf middleware.Enforcer, svc Services, logger *slog.Logger) *gin.Engine {
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers.RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(metrics.GinMiddleware())
	router.Use(corsMiddleware(cfg.Server.BaseURL))

	opts := handlers.Options{Logger: logger, Production: cfg.Server.IsProduction()}
	apiLimit := middleware.NewRateLimiter(cfg.RateLimit.APIPerMinute).Middleware()
	webhookLimit := middleware.NewRateLimiter(cfg.RateLimit.WebhookPerMinute).Middleware()

	system := handlers.NewSystemHandler(db)
	perms := handlers.NewPermissionsHandler(svc.Members, opts)
	orgs := handlers.NewOrganizationHandler(svc.Organizations, opts)
	members := handlers.NewMemberHandler(svc.Members, opts)
	residents := handlers.NewResidentHandler(svc.Residents, svc.Incidents, opts)
	properties := handlers.NewPropertyHandler(svc.Properties, opts)
	incidents := handlers.NewIncidentHandler(svc.Incidents, opts)
	activityLog := handlers.NewActivityHandler(svc.Activity, opts)
	insights := handlers.NewInsightsHandler(svc.Search, svc.Dashboard, opts)
	reportsH := handlers.NewReportHandler(svc.Reports, opts)
	billingH := handlers.NewBillingHandler(svc.Billing, opts)
	webhooks := handlers.NewWebhookHandler(svc.Webhooks, opts)

	can := func(perm p.Permission) gin.HandlerFunc {
		return middleware.RequirePermission(enf, perm)
	}

	// Public routes
	router.GET("/api/v1/health", system.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.POST("/api/webhooks/stripe", webhookLimit, webhooks.Stripe)

	// Authenticated, no organization required
	authed := router.Group("/api/v1", apiLimit, authn.Middleware())
	{
		authed.GET("/permissions/me", middleware.ResolveOrganization(db, true), perms.Me)
		authed.POST("/invitations/accept", members.Accept)

		platform := authed.Group("/platform", middleware.RequirePlatformAdmin(enf))
		platform.GET("/organizations", orgs.ListAll)
		platform.POST("/organizations", orgs.Create)
	}

	// Tenant routes
	v1 := router.Group("/api/v1", apiLimit, authn.Middleware(), middleware.ResolveOrganization(db, false))
	{
		v1.GET("/organization", orgs.Get)
		v1.PATCH("/organization", can(p.UpdateSettings), orgs.Update)

		v1.GET("/members", can(p.ReadDashboard), members.List)
		v1.POST("/members/invite", can(p.InviteMembers), members.Invite)
		v1.PATCH("/members/:user_id", can(p.ManageMembers), members.UpdateRole)
		v1.DELETE("/members/:user_id", can(p.ManageMembers), members.Remove)

		v1.GET("/residents", can(p.ReadResidents), residents.List)
		v1.POST("/residents", can(p.CreateResidents), residents.Create)
		v1.GET("/residents/:id", can(p.ReadResidents), residents.Get)
		v1.PATCH("/residents/:id", can(p.UpdateResidents), residents.Update)
		v1.DELETE("/residents/:id", can(p.DeleteResidents), residents.Delete)
		v1.POST("/residents/:id/assign", can(p.AssignProperties), residents.AssignProperty)
		v1.POST("/residents/:id/move-out", can(p.AssignProperties), residents.MoveOut)
		v1.GET("/residents/:id/notes", can(p.ReadCaseNotes), residents.ListNotes)
		v1.POST("/residents/:id/notes", can(p.CreateCaseNotes), residents.CreateNote)

		v1.GET("/me/profile", can(p.ReadOwnProfile), residents.MyProfile)
		v1.PATCH("/me/profile", can(p.UpdateOwnProfile), residents.UpdateMyProfile)
		v1.GET("/me/incidents", can(p.ReadOwnIncidents), residents.MyIncidents)

		v1.GET("/properties", can(p.ReadProperties), properties.List)
		v1.POST("/properties", can(p.CreateProperties), properties.Create)
		v1.GET("/properties/:id", can(p.ReadProperties), properties.Get)
		v1.GET("/properties/:id/residents", can(p.ReadProperties), properties.Residents)
		v1.PATCH("/properties/:id", can(p.UpdateProperties), properties.Update)
		v1.DELETE("/properties/:id", can(p.DeleteProperties), properties.Delete)

		v1.GET("/incidents", can(p.ReadIncidents), incidents.List)
		v1.POST("/incidents", can(p.CreateIncidents), incidents.Create)
		v1.GET("/incidents/:id", can(p.ReadIncidents), incidents.Get)
		v1.PATCH("/incidents/:id", can(p.UpdateIncidents), incidents.Update)
		v1.POST("/incidents/:id/close", can(p.CloseIncidents), incidents.Close)
		v1.DELETE("/incidents/:id", can(p.DeleteIncidents), incidents.Delete)

		v1.GET("/activity", can(p.ReadActivity), activityLog.List)

		v1.GET("/reports/occupancy", can(p.ReadReports), reportsH.Occupancy)
		v1.GET("/reports/incidents", can(p.ReadReports), reportsH.Incidents)
		v1.GET("/reports/financial", can(p.ReadFinancials), reportsH.Financial)
		v1.GET("/reports/:kind/export", can(p.ExportReports), reportsH.Export)

		v1.GET("/search", can(p.ReadSearch), insights.Search)
		v1.GET("/dashboard", can(p.ReadDashboard), insights.Dashboard)
	}

	// Billing
	bill := router.Group("/api/billing", apiLimit, authn.Middleware(), middleware.ResolveOrganization(db, false), can(p.ManageBilling))
	{
		bill.GET("", billingH.Status)
		bill.POST("/checkout", billingH.Checkout)
		bill.POST("/portal", billingH.Portal)
		bill.GET("/invoices", billingH.Invoices)
	}

	// Swagger documentation
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	logger.Info("API router initialized", "mode", cfg.Server.Mode)
	return router
}

// corsMiddleware allows the web app origin to call the API
func corsMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+middleware.OrganizationHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
