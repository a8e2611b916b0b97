package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/breakretail/backoffice-api/internal/config"
	"github.com/breakretail/backoffice-api/internal/domain/entity"
	"github.com/breakretail/backoffice-api/internal/presentation/http/handler"
	"github.com/breakretail/backoffice-api/internal/presentation/http/middleware"
	"github.com/breakretail/backoffice-api/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth       *handler.AuthHandler
	Product    *handler.ProductHandler
	Offer      *handler.OfferHandler
	SalesOrder *handler.SalesOrderHandler
	Location   *handler.LocationHandler
	Provider   *handler.ProviderHandler
	User       *handler.UserHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager *utils.JWTManager
	Cfg        *config.Config
	Logger     zerolog.Logger
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public routes (no authentication required)
		registerAuthRoutes(v1, h)

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))

		// Per-user rate limiter
		rateLimiter := middleware.NewUserRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(deps.Cfg.RateLimit.Duration),
			BurstSize:         deps.Cfg.RateLimit.Requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
		protected.Use(rateLimiter.Middleware())

		registerProtectedRoutes(protected, h)
	}

	return router
}

func registerAuthRoutes(v1 *gin.RouterGroup, h *Handlers) {
	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
		// Google OAuth routes
		auth.GET("/google", h.Auth.GoogleAuth)
		auth.GET("/google/callback", h.Auth.GoogleCallback)
	}
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers) {
	// Auth/Profile routes
	protected.POST("/auth/logout", h.Auth.Logout)
	protected.GET("/profile", h.Auth.GetProfile)
	protected.PUT("/profile/password", h.Auth.ChangePassword)

	registerProductRoutes(protected, h)
	registerOfferRoutes(protected, h)
	registerSalesOrderRoutes(protected, h)
	registerLocationRoutes(protected, h)
	registerProviderRoutes(protected, h)
	registerUserRoutes(protected, h)
}

func registerProductRoutes(protected *gin.RouterGroup, h *Handlers) {
	products := protected.Group("/products")
	{
		// Registers need read access for barcode lookups
		products.GET("", h.Product.List)
		products.GET("/low-stock", h.Product.GetLowStock)
		products.GET("/barcode/:barcode", h.Product.GetByBarcode)
		products.GET("/:id", h.Product.Get)

		manage := products.Group("")
		manage.Use(middleware.RequireRole(entity.RoleAdmin, entity.RoleManager))
		{
			manage.POST("", h.Product.Create)
			manage.PUT("/:id", h.Product.Update)
			manage.DELETE("/:id", h.Product.Delete)
		}
	}
}

func registerOfferRoutes(protected *gin.RouterGroup, h *Handlers) {
	offers := protected.Group("/offers")
	{
		offers.GET("", h.Offer.List)
		offers.GET("/active", h.Offer.ListActive)
		offers.GET("/:id", h.Offer.Get)

		manage := offers.Group("")
		manage.Use(middleware.RequireRole(entity.RoleAdmin, entity.RoleManager))
		{
			manage.POST("", h.Offer.Create)
			manage.PUT("/:id", h.Offer.Update)
			manage.PUT("/:id/active", h.Offer.SetActive)
			manage.DELETE("/:id", h.Offer.Delete)
		}
	}
}

func registerSalesOrderRoutes(protected *gin.RouterGroup, h *Handlers) {
	orders := protected.Group("/orders")
	{
		orders.GET("", h.SalesOrder.List)
		orders.POST("", h.SalesOrder.Create)
		orders.GET("/number/:number", h.SalesOrder.GetByNumber)
		orders.GET("/:id", h.SalesOrder.Get)
	}
}

func registerLocationRoutes(protected *gin.RouterGroup, h *Handlers) {
	locations := protected.Group("/locations")
	{
		locations.GET("", h.Location.List)
		locations.GET("/:id", h.Location.Get)
		locations.GET("/:id/stock", h.Location.ListStock)
		locations.GET("/:id/stock/low", h.Location.GetLowStock)

		manage := locations.Group("")
		manage.Use(middleware.RequireRole(entity.RoleAdmin, entity.RoleManager))
		{
			manage.POST("", h.Location.Create)
			manage.PUT("/:id", h.Location.Update)
			manage.DELETE("/:id", h.Location.Delete)
			manage.POST("/:id/stock/adjust", h.Location.AdjustStock)
		}
	}
}

func registerProviderRoutes(protected *gin.RouterGroup, h *Handlers) {
	// Supplier records are a purchasing concern, closed to cashiers
	providers := protected.Group("/providers")
	providers.Use(middleware.RequireRole(entity.RoleAdmin, entity.RoleManager))
	{
		providers.GET("", h.Provider.List)
		providers.POST("", h.Provider.Create)
		providers.GET("/:id", h.Provider.Get)
		providers.PUT("/:id", h.Provider.Update)
		providers.DELETE("/:id", h.Provider.Delete)
	}
}

func registerUserRoutes(protected *gin.RouterGroup, h *Handlers) {
	users := protected.Group("/users")
	users.Use(middleware.RequireRole(entity.RoleAdmin))
	{
		users.GET("", h.User.List)
		users.POST("", h.User.Create)
		users.GET("/:id", h.User.Get)
		users.PUT("/:id", h.User.Update)
		users.DELETE("/:id", h.User.Delete)
	}
}
