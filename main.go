package main

import (
	"fmt"
	"time"

	"circleup-api/config"
	"circleup-api/database"
	"circleup-api/jobs"
	"circleup-api/logger"
	"circleup-api/middleware"
	"circleup-api/repositories"
	"circleup-api/routes"
	"circleup-api/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()
	log := logger.Get()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Wire the relationship engine
	repo := repositories.NewRelationshipRepository(db)
	projector := services.NewGraphProjector(db, repo, log)
	blocks := services.NewBlockEnforcer(repo, projector, log)
	gate := services.NewPrivacyGate()

	var emailService *services.EmailService
	if cfg.EmailEnabled {
		emailService = services.NewEmailService(cfg)
	}
	dispatcher := services.NewStoreDispatcher(db, repo, emailService, log)
	defer dispatcher.Shutdown()

	relationships := services.NewRelationshipService(repo, gate, blocks, projector, dispatcher, log)

	// Background repair: recompute membership sets from edges on a schedule
	if cfg.ReconcileIntervalMinutes > 0 {
		reconcileJob := jobs.NewReconcileJob(db, projector,
			time.Duration(cfg.ReconcileIntervalMinutes)*time.Minute, cfg.ReconcileSweepBatchSize, log)
		reconcileJob.Start()
		defer reconcileJob.Stop()
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SetupCORS())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, cfg.RateLimitBurst))

	routes.SetupRoutes(router, db, cfg, relationships, blocks, projector)

	log.Info("Starting CircleUp API server", zap.String("port", cfg.Port))

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
