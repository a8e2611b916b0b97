package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/breakretail/backoffice-api/internal/application/service"
	"github.com/breakretail/backoffice-api/internal/config"
	"github.com/breakretail/backoffice-api/internal/infrastructure/cache"
	"github.com/breakretail/backoffice-api/internal/infrastructure/database"
	"github.com/breakretail/backoffice-api/internal/infrastructure/events"
	"github.com/breakretail/backoffice-api/internal/infrastructure/fiscal"
	"github.com/breakretail/backoffice-api/internal/infrastructure/repository"
	"github.com/breakretail/backoffice-api/internal/presentation/http/handler"
	"github.com/breakretail/backoffice-api/internal/presentation/http/routes"
	"github.com/breakretail/backoffice-api/pkg/oauth"
	"github.com/breakretail/backoffice-api/pkg/utils"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Structured logger
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", cfg.App.Name).
		Logger()
	if cfg.App.Debug {
		logger = logger.Level(zerolog.DebugLevel).Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Seed default data
	if err := database.SeedDefaultData(db); err != nil {
		logger.Warn().Err(err).Msg("failed to seed default data")
	}

	// Redis backs the offer cache and the stock event stream
	offerCache := cache.NewRedisOfferCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer offerCache.Close()
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := offerCache.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, offer cache and stock events degraded")
		}
		cancel()
	}
	publisher := events.NewRedisPublisher(offerCache.Client(), logger)

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	orderRepo := repository.NewSalesOrderRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	stockRepo := repository.NewLocationStockRepository(db)
	providerRepo := repository.NewProviderRepository(db)

	// Initialize Google OAuth service
	googleOAuthService := oauth.NewGoogleOAuthService(oauth.GoogleOAuthConfig{
		ClientID:           cfg.OAuth.GoogleClientID,
		ClientSecret:       cfg.OAuth.GoogleClientSecret,
		RedirectURL:        cfg.OAuth.GoogleRedirectURL,
		FrontendSuccessURL: cfg.OAuth.FrontendSuccessURL,
		FrontendErrorURL:   cfg.OAuth.FrontendErrorURL,
	})

	// Electronic invoicing client
	fiscalService := newFiscalService(cfg, logger)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager, googleOAuthService)
	userService := service.NewUserService(userRepo)
	productService := service.NewProductService(productRepo)
	offerService := service.NewOfferService(offerRepo, productRepo, offerCache, logger)
	locationService := service.NewLocationService(locationRepo, stockRepo, productRepo, publisher, logger)
	providerService := service.NewProviderService(providerRepo)
	orderService := service.NewSalesOrderService(orderRepo, productRepo, stockRepo, offerService, fiscalService, publisher, logger)

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:       handler.NewAuthHandler(authService, &cfg.OAuth),
		Product:    handler.NewProductHandler(productService),
		Offer:      handler.NewOfferHandler(offerService),
		SalesOrder: handler.NewSalesOrderHandler(orderService, authService),
		Location:   handler.NewLocationHandler(locationService),
		Provider:   handler.NewProviderHandler(providerService),
		User:       handler.NewUserHandler(userService),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager: jwtManager,
		Cfg:        cfg,
		Logger:     logger,
	})

	// Get port from environment or use default
	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	logger.Info().
		Str("port", port).
		Str("env", cfg.App.Env).
		Msg("starting server")

	if err := router.Run(":" + port); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}

// newFiscalService loads the invoicing credentials and builds the authority
// client. A missing certificate is fatal; card payments cannot be accepted
// without it.
func newFiscalService(cfg *config.Config, logger zerolog.Logger) *fiscal.Service {
	settings := &fiscal.Settings{
		CUIT:                cfg.Fiscal.CUIT,
		PointOfSale:         cfg.Fiscal.PointOfSale,
		InvoiceType:         cfg.Fiscal.InvoiceType,
		DocumentType:        cfg.Fiscal.DocumentType,
		DocumentNumber:      cfg.Fiscal.DocumentNumber,
		BuyerTaxConditionID: cfg.Fiscal.BuyerTaxConditionID,
		CertificatePath:     cfg.Fiscal.CertificatePath,
		PrivateKeyPath:      cfg.Fiscal.PrivateKeyPath,
		Environment:         cfg.Fiscal.Environment,
	}

	signer, err := fiscal.NewFileSigner(settings.CertificatePath, settings.PrivateKeyPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load fiscal credentials")
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	return fiscal.NewService(httpClient, settings, signer, logger)
}
