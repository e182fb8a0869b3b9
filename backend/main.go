package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learnhub/backend/cache"
	"learnhub/backend/config"
	"learnhub/backend/middleware"
	"learnhub/backend/routes"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := utils.InitDB(cfg, logger)
	if err != nil {
		logger.Fatal("database init failed", "error", err)
	}

	var leaderboardCache services.LeaderboardCache
	redisCache, err := cache.NewLeaderboardCache(context.Background(), cfg)
	if err != nil {
		logger.Warn("redis unavailable, leaderboard cache disabled", "error", err)
	} else if redisCache != nil {
		leaderboardCache = redisCache
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "learnhub",
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ErrorHandler: utils.FiberErrorHandler(cfg, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	// Middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(middleware.LoggingMiddleware(logger))
	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.IsDevelopment()}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(compress.New())
	app.Use(etag.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
	}))
	app.Use(middleware.Timeout(cfg.RequestTimeout))

	// Setup routes
	routes.SetupRoutes(app, db, cfg, logger, leaderboardCache)

	go func() {
		if err := app.Listen(":" + cfg.ServerPort); err != nil {
			logger.Error("server stopped", "error", err)
		}
	}()
	logger.Info("server started", "port", cfg.ServerPort, "env", cfg.AppEnv)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			logger.Warn("redis close failed", "error", err)
		}
	}
	if err := utils.CloseDB(db); err != nil {
		logger.Error("database close failed", "error", err)
	}
}
