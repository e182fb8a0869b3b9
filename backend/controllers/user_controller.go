package controllers

import (
	"learnhub/backend/config"
	"learnhub/backend/middleware"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type UserController struct {
	Users *services.UserService
	Cfg   *config.Config
}

func NewUserController(users *services.UserService, cfg *config.Config) *UserController {
	return &UserController{Users: users, Cfg: cfg}
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns authenticated user's profile data
// @Tags users
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	claims, _ := middleware.Claims(c)

	user, err := uc.Users.Profile(c.UserContext(), claims.UserID)
	if err != nil {
		return utils.HandleError(c, err, uc.Cfg)
	}
	return utils.OK(c, user)
}

// GetLevel godoc
// @Summary Get user level
// @Description Returns level, rank and XP needed for the next level
// @Tags users
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{userId}/level [get]
func (uc *UserController) GetLevel(c *fiber.Ctx) error {
	userID, err := utils.ParseUintParam(c, "userId")
	if err != nil {
		return utils.HandleError(c, err, uc.Cfg)
	}

	level, err := uc.Users.Level(c.UserContext(), userID)
	if err != nil {
		return utils.HandleError(c, err, uc.Cfg)
	}
	return utils.OK(c, level)
}
