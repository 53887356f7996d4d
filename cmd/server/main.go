package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kigaliroutes/traffic-backend/internal/config"
	"github.com/kigaliroutes/traffic-backend/internal/database"
	"github.com/kigaliroutes/traffic-backend/internal/handlers"
	"github.com/kigaliroutes/traffic-backend/internal/middleware"
	"github.com/kigaliroutes/traffic-backend/internal/services"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting traffic route annotation backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection. The matching core only reads the
	// in-memory store, so the service still runs (without durability) when
	// no database is configured.
	var db database.DB
	var reportRepo services.ReportPersister
	if cfg.Database.URL != "" {
		logger.Info("Connecting to database...")
		db, err = database.NewConnection(cfg.Database)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		logger.Info("Database connection established")

		reportRepo = database.NewReportRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set - running with in-memory report store only")
	}

	// Initialize the report store and matching services
	logger.Info("Initializing services...")
	store := services.NewReportStore(reportRepo, logger, cfg.Matching)
	if err := store.Load(); err != nil {
		logger.Fatalf("Failed to load traffic reports: %v", err)
	}

	matcher := services.NewSegmentMatcher(store, cfg.Matching)
	historical := services.NewHistoricalInferencer(store)
	annotator := services.NewRouteAnnotator(matcher, historical, logger, cfg.Matching)
	diversity := services.NewRouteDiversity(cfg.Routing)

	// Initialize handlers
	reportHandler := handlers.NewReportHandler(store, logger, cfg.Matching.ProximityRadiusMeters)
	routeHandler := handlers.NewRouteHandler(annotator, diversity, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	if cfg.Server.EnableRequestLog {
		router.Use(middleware.RequestLogger(logger))
	}

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db, store))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		reports := v1.Group("/reports")
		{
			reports.POST("", reportHandler.SubmitReport)
			reports.GET("", reportHandler.ListReports)
			reports.GET("/flagged-roads", reportHandler.FlaggedRoads)
			reports.GET("/:id", reportHandler.GetReport)
		}

		routes := v1.Group("/routes")
		{
			routes.POST("/annotate", routeHandler.AnnotateRoutes)
			routes.POST("/waypoints", routeHandler.DiversityWaypoints)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB, store *services.ReportStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "not configured"
		if db != nil {
			dbStatus = "healthy"
			if err := db.Ping(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":   "unhealthy",
					"database": "unhealthy",
					"error":    err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  dbStatus,
			"reports":   store.Size(),
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
