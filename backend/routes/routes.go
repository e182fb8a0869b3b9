package routes

import (
	"context"
	"time"

	"learnhub/backend/config"
	"learnhub/backend/controllers"
	"learnhub/backend/middleware"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupRoutes builds the services on top of db and registers every route.
// cache may be nil.
func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, log *utils.Logger, cache services.LeaderboardCache) {
	notificationService := services.NewNotificationService(db, log)
	stageService := services.NewStageProgressService(db, log, notificationService, cache)
	progressService := services.NewMaterialProgressService(db, log, cfg, notificationService, cache)
	pointsService := services.NewPointsService(db, log, cache)
	leaderboardService := services.NewLeaderboardService(db, log, cfg, cache)
	userService := services.NewUserService(db)
	voteService := services.NewVoteService(db, log)

	app.Get("/health", healthHandler(db))

	// Auth routes
	authController := controllers.NewAuthController(db, cfg, log)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware()
	ownerOrAdmin := middleware.OwnerOrAdmin("userId")

	api := app.Group("/api", authMiddleware)

	// User routes
	userController := controllers.NewUserController(userService, cfg)
	api.Get("/user/profile", userController.GetProfile)
	api.Get("/users/:userId/level", userController.GetLevel)

	// Progress routes
	progressController := controllers.NewProgressController(progressService, cfg)
	api.Get("/progress/material/:userId/:materialId", ownerOrAdmin, progressController.GetMaterialProgress)
	api.Post("/progress/material/:userId/:materialId", ownerOrAdmin, progressController.UpdateMaterialProgress)

	stageController := controllers.NewStageProgressController(stageService, cfg)
	api.Get("/stage-progress/material/:userId/:materialId", ownerOrAdmin, stageController.GetStageProgress)
	api.Post("/stage-progress/material/:userId/:materialId/complete", ownerOrAdmin, stageController.CompleteStage)

	// Points routes
	pointsController := controllers.NewPointsController(pointsService, leaderboardService, cfg)
	points := api.Group("/points")
	points.Post("/", pointsController.CreatePoint)
	points.Get("/user/:userId", pointsController.GetUserPoints)
	points.Get("/material/:materialId", pointsController.GetMaterialPoints)
	points.Get("/leaderboard/:timeframe/:scope?", pointsController.GetLeaderboard)
	points.Get("/schools/rankings", pointsController.GetSchoolRankings)
	points.Get("/recalculate", adminMiddleware, pointsController.RecalculatePoints)

	// Notification routes
	notificationController := controllers.NewNotificationController(notificationService, cfg)
	api.Get("/notifications", notificationController.ListNotifications)
	api.Put("/notifications/:id/read", notificationController.MarkRead)

	voteController := controllers.NewVoteController(voteService, cfg)
	api.Post("/votes", voteController.CastVote)
}

func healthHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := utils.PingDB(ctx, db); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
