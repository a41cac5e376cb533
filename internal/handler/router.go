package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/wisdom-gateway/internal/middleware"
	"github.com/noah-isme/wisdom-gateway/internal/service"
	"github.com/noah-isme/wisdom-gateway/pkg/logger"
	corsmiddleware "github.com/noah-isme/wisdom-gateway/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/wisdom-gateway/pkg/middleware/requestid"
	"github.com/noah-isme/wisdom-gateway/pkg/response"
)

// RouterDeps carries everything NewRouter mounts.
type RouterDeps struct {
	Logger         *zap.Logger
	Metrics        *service.MetricsService
	Sessions       middleware.SessionResolver
	CookieName     string
	AllowedOrigins []string
	APIPrefix      string
	EnableDocs     bool
	Limiter        *middleware.LimiterStore

	Auth       *AuthHandler
	Catalog    *CatalogHandler
	Dashboard  *DashboardHandler
	Lessons    *LessonHandler
	Favorites  *FavoriteHandler
	Profile    *ProfileHandler
	Payment    *PaymentHandler
	Moderation *ModerationHandler
	Users      *UserAdminHandler
	Reports    *ReportHandler
	Ops        *MetricsHandler
}

// NewRouter builds the gin engine with the public, session and admin groups.
func NewRouter(deps RouterDeps) *gin.Engine {
	logr := deps.Logger
	if logr == nil {
		logr = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(deps.AllowedOrigins))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}

	if deps.Ops != nil {
		r.GET("/health", deps.Ops.Health)
		r.GET("/ready", deps.Ops.Ready)
		r.GET("/metrics", deps.Ops.Prometheus)
	}
	if deps.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	limited := func(c *gin.Context) { c.Next() }
	if deps.Limiter != nil {
		limited = middleware.RateLimit(deps.Limiter, middleware.KeyBySessionOrIP)
	}

	api := r.Group(deps.APIPrefix)
	api.Use(middleware.WithViewMeta())
	api.Use(middleware.Session(deps.Sessions, deps.CookieName, logr))

	requireSession := middleware.RequireSession(deps.Metrics)

	public := api.Group("")
	{
		public.GET("/lessons/featured", deps.Catalog.Featured)
		public.GET("/contributors/top", deps.Catalog.TopContributors)
		public.POST("/auth/register", limited, deps.Auth.Register)
		public.POST("/auth/login", limited, deps.Auth.Login)
		public.GET("/payment/success", requireSession, deps.Payment.Success)
	}

	member := api.Group("")
	member.Use(requireSession)
	{
		member.GET("/me", deps.Auth.Me)
		member.POST("/auth/logout", deps.Auth.Logout)
		member.PATCH("/me/profile", limited, deps.Profile.Update)
		member.GET("/dashboard", deps.Dashboard.User)
		member.GET("/dashboard/lessons", deps.Lessons.Mine)
		member.PATCH("/dashboard/lessons/:id", limited, deps.Lessons.Edit)
		member.DELETE("/dashboard/lessons/:id", limited, deps.Lessons.Delete)
		member.GET("/dashboard/favorites", deps.Favorites.Mine)
		member.DELETE("/dashboard/favorites/:id", limited, deps.Favorites.Remove)
		member.GET("/dashboard/profile", deps.Profile.Show)
		member.POST("/payment/checkout", limited, deps.Payment.Checkout)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.RequireAdmin(deps.Metrics), middleware.Audit(logr))
	{
		admin.GET("/dashboard", deps.Dashboard.Admin)

		admin.GET("/lessons", deps.Moderation.Queue)
		admin.PATCH("/lessons/:id/status", limited, deps.Moderation.UpdateStatus)
		admin.PATCH("/lessons/:id/featured", limited, deps.Moderation.UpdateFeatured)
		admin.DELETE("/lessons/:id", limited, deps.Moderation.Delete)

		admin.GET("/users", deps.Users.Directory)
		admin.GET("/users/export.csv", deps.Users.Export)
		admin.PATCH("/users/:id/role", limited, deps.Users.ToggleRole)
		admin.DELETE("/users/:id", limited, deps.Users.Delete)

		admin.GET("/reports", deps.Reports.Cases)
		admin.GET("/reports/:postId/case-file.pdf", deps.Reports.CaseFile)
		admin.DELETE("/reports/:postId", limited, deps.Reports.Dismiss)
		admin.DELETE("/reports/:postId/lesson", limited, deps.Reports.DeleteLesson)
	}

	r.NoRoute(func(c *gin.Context) {
		response.View(c, http.StatusNotFound, response.FallbackView{
			Name:       response.ViewNotFound,
			Title:      "Page not found",
			Message:    "The page you are looking for does not exist.",
			ActionText: "Back to home",
			ActionHref: "/",
		})
	})

	return r
}
