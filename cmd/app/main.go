package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cnichols1734/belvieu-digital/cmd/fx/account_fx"
	"github.com/cnichols1734/belvieu-digital/cmd/fx/admin_fx"
	"github.com/cnichols1734/belvieu-digital/cmd/fx/billing_fx"
	"github.com/cnichols1734/belvieu-digital/cmd/fx/config_fx"
	"github.com/cnichols1734/belvieu-digital/cmd/fx/db_fx"
	"github.com/cnichols1734/belvieu-digital/cmd/fx/formrelay_fx"
	"github.com/cnichols1734/belvieu-digital/cmd/fx/mail_fx"
	"github.com/cnichols1734/belvieu-digital/cmd/fx/tenant_fx"
	"github.com/cnichols1734/belvieu-digital/cmd/fx/ticket_fx"
	"github.com/cnichols1734/belvieu-digital/internal/api/controllers"
	"github.com/cnichols1734/belvieu-digital/internal/repositories"
	"github.com/cnichols1734/belvieu-digital/internal/services"
	"github.com/cnichols1734/belvieu-digital/pkg/logger"
	"github.com/cnichols1734/belvieu-digital/pkg/middleware"
)

func main() {
	_ = godotenv.Load()

	logger.InitLogger(logger.LogConfig{
		Level:       os.Getenv("LOG_LEVEL"),
		Environment: os.Getenv("ENVIRONMENT"),
		ServiceName: "belvieu-portal",
	})

	app := fx.New(
		config_fx.Module,
		db_fx.Module,
		mail_fx.Module,
		account_fx.Module,
		tenant_fx.Module,
		billing_fx.Module,
		ticket_fx.Module,
		admin_fx.Module,
		formrelay_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			port := os.Getenv("PORT")
			if port == "" {
				port = "8080"
			}
			go func() {
				zap.L().Info("starting HTTP server", zap.String("port", port))
				if err := engine.Run(":" + port); err != nil {
					zap.L().Fatal("failed to start server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			zap.L().Info("stopping HTTP server")
			return nil
		},
	})
}

func ProvideRouter(
	appCfg services.AppConfig,
	authController *controllers.AuthController,
	billingController *controllers.BillingController,
	webhookController *controllers.WebhookController,
	ticketController *controllers.TicketController,
	adminController *controllers.AdminController,
	formRelayController *controllers.FormRelayController,
	entitlementService services.EntitlementServiceInterface,
	workspaceRepo repositories.WorkspaceRepository,
) *gin.Engine {
	if appCfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())
	r.Use(logger.Middleware())
	r.Use(middleware.MetricsMiddleware(appCfg.ServiceName))
	r.Use(middleware.CORSMiddleware())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	RegisterRoutes(r, authController, billingController, webhookController,
		ticketController, adminController, formRelayController,
		entitlementService, workspaceRepo)

	return r
}

func RegisterRoutes(
	r *gin.Engine,
	authController *controllers.AuthController,
	billingController *controllers.BillingController,
	webhookController *controllers.WebhookController,
	ticketController *controllers.TicketController,
	adminController *controllers.AdminController,
	formRelayController *controllers.FormRelayController,
	entitlementService services.EntitlementServiceInterface,
	workspaceRepo repositories.WorkspaceRepository,
) {
	authGroup := r.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(rate.Limit(1), 10))
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/invites/:token", authController.CheckInvite)

	// Signature verification happens inside the handler, no auth middleware.
	r.POST("/stripe/webhooks", webhookController.HandleStripeWebhook)

	formsGroup := r.Group("/api/forms")
	formsGroup.Use(middleware.RateLimitMiddleware(rate.Limit(0.5), 5))
	formsGroup.POST("/:accessKey", formRelayController.Submit)

	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.JWTAuthMiddleware(), middleware.AdminRequiredMiddleware())
	adminGroup.POST("/prospects", adminController.CreateProspect)
	adminGroup.GET("/prospects", adminController.ListProspects)
	adminGroup.GET("/prospects/:prospectID", adminController.GetProspect)
	adminGroup.PUT("/prospects/:prospectID", adminController.UpdateProspect)
	adminGroup.POST("/prospects/:prospectID/status", adminController.UpdateProspectStatus)
	adminGroup.POST("/prospects/:prospectID/activities", adminController.AddProspectActivity)
	adminGroup.POST("/prospects/:prospectID/convert", adminController.ConvertProspect)
	adminGroup.POST("/invites", adminController.GenerateInvite)
	adminGroup.GET("/tickets", adminController.ListAllTickets)
	adminGroup.GET("/tickets/:ticketID", adminController.GetTicketThread)
	adminGroup.POST("/tickets/:ticketID/messages", adminController.AddTicketMessage)
	adminGroup.POST("/tickets/:ticketID/status", adminController.UpdateTicketStatus)
	adminGroup.POST("/tickets/:ticketID/assign", adminController.AssignTicket)
	adminGroup.POST("/tickets/:ticketID/category", adminController.UpdateTicketCategory)
	adminGroup.GET("/usage", adminController.UsageDashboard)

	// Per-client workspace routes, scoped by site slug. Membership is
	// checked for every route; access level gates vary per endpoint.
	tenantGroup := r.Group("/sites/:siteSlug")
	tenantGroup.Use(
		middleware.JWTAuthMiddleware(),
		middleware.TenantMiddleware(entitlementService),
		middleware.MembershipRequiredMiddleware(workspaceRepo),
	)

	// Billing stays reachable at every access level so lapsed and
	// not-yet-subscribed workspaces can fix themselves.
	tenantGroup.GET("/billing/status", billingController.Status)
	tenantGroup.POST("/billing/checkout", billingController.CreateCheckout)
	tenantGroup.POST("/billing/portal", billingController.CreatePortal)
	tenantGroup.POST("/billing/sync", billingController.SyncCheckout)

	readGroup := tenantGroup.Group("")
	readGroup.Use(middleware.ReadAccessRequiredMiddleware())
	readGroup.GET("/tickets", ticketController.List)
	readGroup.GET("/tickets/:ticketID", ticketController.GetThread)
	readGroup.GET("/usage", ticketController.Usage)

	writeGroup := tenantGroup.Group("")
	writeGroup.Use(middleware.WriteAccessRequiredMiddleware())
	writeGroup.POST("/tickets", ticketController.Create)
	writeGroup.POST("/tickets/:ticketID/messages", ticketController.AddMessage)
	writeGroup.POST("/tickets/:ticketID/status", ticketController.UpdateStatus)
}
