package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/telvia/crm-api/internal/handler"
	"github.com/telvia/crm-api/internal/middleware"
	"github.com/telvia/crm-api/internal/models"
	"github.com/telvia/crm-api/internal/service"
	"github.com/telvia/crm-api/pkg/config"
	"github.com/telvia/crm-api/pkg/logger"
	corsmiddleware "github.com/telvia/crm-api/pkg/middleware/cors"
	reqidmiddleware "github.com/telvia/crm-api/pkg/middleware/requestid"
)

// Dependencies collects everything the router wires together.
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	AuthService    *service.AuthService
	MetricsService *service.MetricsService
	AuditService   *service.AuditService
	RateCounter    middleware.RequestCounter

	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	Clients   *handler.ClientHandler
	Calls     *handler.CallHandler
	Tasks     *handler.TaskHandler
	Reference *handler.ReferenceHandler
	Documents *handler.DocumentHandler
	Dashboard *handler.DashboardHandler
	Audit     *handler.AuditHandler
}

// New builds the gin engine with the full middleware chain. Every request
// passes rate limiting first; protected routes then go through JWT parsing,
// the account-state guard, and finally per-group role checks.
func New(deps Dependencies) *gin.Engine {
	cfg := deps.Config

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	var rlMetrics middleware.RateLimiterMetrics
	if deps.MetricsService != nil {
		r.Use(middleware.Metrics(deps.MetricsService))
		rlMetrics = deps.MetricsService
	}
	r.Use(middleware.RateLimit(deps.RateCounter, cfg.RateLimit.Requests, cfg.RateLimit.Window, rlMetrics, deps.Logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	if deps.MetricsService != nil {
		r.GET("/metrics", gin.WrapH(deps.MetricsService.Handler()))
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Share links carry their own signed authorization.
	r.GET("/shared/:token", deps.Documents.DownloadShared)

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/login", deps.Auth.Login)
	auth.POST("/refresh", deps.Auth.Refresh)

	protected := api.Group("")
	protected.Use(middleware.JWT(deps.AuthService))
	protected.Use(middleware.AccountState())

	protected.POST("/auth/logout", deps.Auth.Logout)
	protected.POST("/auth/change-password", deps.Auth.ChangePassword)

	protected.GET("/users/me", deps.Users.Me)

	users := protected.Group("/users")
	users.Use(middleware.RequireRoles(models.RoleAdmin))
	users.GET("", deps.Users.List)
	users.POST("", deps.Users.Create)
	users.GET("/:id", deps.Users.Get)
	users.PUT("/:id", deps.Users.Update)
	users.DELETE("/:id", deps.Users.Delete)
	users.POST("/:id/reset-password", deps.Users.ResetPassword)

	registerReferenceRoutes(protected, deps)

	senior := middleware.RequireRoles(models.RoleChiefManager, models.RoleAdmin)

	clients := protected.Group("/clients")
	clients.GET("", deps.Clients.List)
	clients.GET("/export", deps.Clients.ExportCSV)
	clients.GET("/:id", deps.Clients.Get)
	clients.GET("/:id/summary.pdf", deps.Clients.ExportPDF)
	clients.POST("", middleware.Audit(deps.AuditService, "client.create", "clients"), deps.Clients.Create)
	clients.PUT("/:id", middleware.Audit(deps.AuditService, "client.update", "clients"), deps.Clients.Update)
	clients.DELETE("/:id", senior, middleware.Audit(deps.AuditService, "client.delete", "clients"), deps.Clients.Delete)

	documents := protected.Group("/documents")
	documents.POST("/upload/:clientId", deps.Documents.Upload)
	documents.GET("/client/:clientId", deps.Documents.ListByClient)
	documents.GET("/:id/download", deps.Documents.Download)
	documents.DELETE("/:id", senior, deps.Documents.Delete)
	documents.POST("/:id/share", deps.Documents.Share)

	calls := protected.Group("/calls")
	calls.GET("", deps.Calls.List)
	calls.GET("/client/:clientId", deps.Calls.ListByClient)
	calls.POST("", middleware.Audit(deps.AuditService, "call.create", "calls"), deps.Calls.Create)

	tasks := protected.Group("/tasks")
	tasks.GET("", deps.Tasks.List)
	tasks.GET("/:id", deps.Tasks.Get)
	tasks.POST("", middleware.Audit(deps.AuditService, "task.create", "tasks"), deps.Tasks.Create)
	tasks.PUT("/:id", middleware.Audit(deps.AuditService, "task.update", "tasks"), deps.Tasks.Update)
	tasks.DELETE("/:id", senior, middleware.Audit(deps.AuditService, "task.delete", "tasks"), deps.Tasks.Delete)

	protected.GET("/dashboard", deps.Dashboard.Overview)

	audit := protected.Group("/audit")
	audit.Use(middleware.RequireRoles(models.RoleAdmin))
	audit.GET("/logs", deps.Audit.List)

	return r
}

// registerReferenceRoutes mounts the three lookup tables. Reads are open to
// every authenticated role; writes require chief manager or admin.
// Reads are open to every authenticated role, create and update require
// chief manager or admin, delete is admin only.
func registerReferenceRoutes(protected *gin.RouterGroup, deps Dependencies) {
	write := middleware.RequireRoles(models.RoleChiefManager, models.RoleAdmin)
	admin := middleware.RequireRoles(models.RoleAdmin)

	statuses := protected.Group("/client-statuses")
	statuses.GET("", deps.Reference.ListStatuses)
	statuses.POST("", write, middleware.Audit(deps.AuditService, "status.create", "client_statuses"), deps.Reference.CreateStatus)
	statuses.PUT("/:id", write, middleware.Audit(deps.AuditService, "status.update", "client_statuses"), deps.Reference.UpdateStatus)
	statuses.DELETE("/:id", admin, middleware.Audit(deps.AuditService, "status.delete", "client_statuses"), deps.Reference.DeleteStatus)

	categories := protected.Group("/categories")
	categories.GET("", deps.Reference.ListCategories)
	categories.POST("", write, middleware.Audit(deps.AuditService, "category.create", "categories"), deps.Reference.CreateCategory)
	categories.PUT("/:id", write, middleware.Audit(deps.AuditService, "category.update", "categories"), deps.Reference.UpdateCategory)
	categories.DELETE("/:id", admin, middleware.Audit(deps.AuditService, "category.delete", "categories"), deps.Reference.DeleteCategory)

	cities := protected.Group("/cities")
	cities.GET("", deps.Reference.ListCities)
	cities.POST("", write, middleware.Audit(deps.AuditService, "city.create", "cities"), deps.Reference.CreateCity)
	cities.PUT("/:id", write, middleware.Audit(deps.AuditService, "city.update", "cities"), deps.Reference.UpdateCity)
	cities.DELETE("/:id", admin, middleware.Audit(deps.AuditService, "city.delete", "cities"), deps.Reference.DeleteCity)
}
