package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"learnhub/backend/assets"
	"learnhub/backend/catalog"
	"learnhub/backend/config"
	"learnhub/backend/middleware"
	"learnhub/backend/routes"
	"learnhub/backend/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(cfg.LogMode)
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize document store
	docs, closeStore, err := utils.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("document store init failed", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Shared catalog snapshot is optional
	var snapshot catalog.Snapshot
	if cfg.RedisAddr != "" {
		rs, err := catalog.NewRedisSnapshot(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, catalog cached per instance", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer rs.Close()
			snapshot = rs
		}
	}

	var uploader assets.Uploader = assets.NewMemoryUploader("http://localhost:" + cfg.ServerPort + "/assets")
	if cfg.AssetBucket != "" {
		gcs, err := assets.NewGCSUploader(ctx, cfg.AssetBucket, cfg.AssetPublicBase, logger)
		if err != nil {
			logger.Error("asset bucket init failed", "bucket", cfg.AssetBucket, "error", err)
			os.Exit(1)
		}
		defer gcs.Close()
		uploader = gcs
	} else {
		logger.Warn("ASSET_BUCKET not set, uploads are kept in memory")
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:   "learnhub",
		BodyLimit: assets.MaxAssetBytes + 1<<20,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Accept-Language, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Setup routes
	services := routes.NewServices(docs, snapshot, uploader, cfg, logger)
	routes.SetupRoutes(app, services, cfg)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Warn("shutdown", "error", err)
		}
	}()

	// Start server
	logger.Info("listening", "port", cfg.ServerPort, "driver", cfg.DBDriver)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Error("server stopped", "error", err)
	}
}
