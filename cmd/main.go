package main

import (
	"strings"

	"menu-service/internal/handler"
	mid "menu-service/internal/middleware"
	"menu-service/internal/upload"
	"menu-service/pkg/config"
	"menu-service/pkg/database"
	"menu-service/pkg/jwtutil"
	"menu-service/pkg/logger"
	"menu-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting menu service...", cfg.LogConfig()...)

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Initialize upload storage
	if err := upload.Initialize(&cfg.Upload); err != nil {
		log.Fatal("Failed to initialize upload storage", zap.Error(err))
	}
	log.Info("Upload storage initialized",
		zap.String("path", cfg.Upload.Path),
		zap.Int64("max_file_size", cfg.Upload.MaxFileSize))

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(mid.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public service routes
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Static serving of the raw upload tree, with the usdz content-type fix
	e.Static("/uploads", cfg.Upload.Path)
	e.Pre(usdzContentType)

	// Authentication routes
	auth := e.Group("/api/auth")
	auth.POST("/register", handler.Register)
	auth.POST("/login", handler.Login)
	auth.GET("/profile", handler.GetProfile, mid.AuthMiddleware)

	// Restaurant routes
	restaurants := e.Group("/api/restaurants")
	restaurants.GET("", handler.GetRestaurant, mid.AuthMiddleware)
	restaurants.POST("", handler.CreateRestaurant, mid.AuthMiddleware)
	restaurants.PUT("/:id", handler.UpdateRestaurant, mid.AuthMiddleware)
	restaurants.GET("/slug/:slug", handler.GetRestaurantBySlug)
	restaurants.GET("/:id/dishes", handler.GetRestaurantDishes)

	// Dish routes. Creation is deliberately open: the restaurant id comes from
	// the request body (see dish handler).
	dishes := e.Group("/api/dishes")
	dishes.GET("", handler.GetDishes, mid.AuthMiddleware)
	dishes.GET("/:id", handler.GetDish, mid.AuthMiddleware)
	dishes.POST("", handler.CreateDish)
	dishes.PUT("/:id", handler.UpdateDish, mid.AuthMiddleware)
	dishes.DELETE("/:id", handler.DeleteDish, mid.AuthMiddleware)
	dishes.PUT("/:id/toggle-visibility", handler.ToggleVisibility, mid.AuthMiddleware)

	// Upload routes
	uploads := e.Group("/api/upload")
	uploads.POST("/image", handler.UploadImage, mid.AuthMiddleware)
	uploads.POST("/model", handler.UploadModel, mid.AuthMiddleware)
	uploads.GET("/images/:restaurantId/:name", handler.GetImage)
	uploads.GET("/models/:restaurantId/:name", handler.GetModel)

	// Start server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	log.Info("Starting server", zap.String("addr", addr))
	if err := e.Start(addr); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}

// usdzContentType pre-sets the content type for .usdz files so static serving
// does not fall back to a generic type for the zip-based container
func usdzContentType(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if strings.HasSuffix(strings.ToLower(c.Request().URL.Path), ".usdz") {
			c.Response().Header().Set(echo.HeaderContentType, handler.ContentTypeUSDZ)
		}
		return next(c)
	}
}
