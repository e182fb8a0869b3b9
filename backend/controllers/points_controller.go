package controllers

import (
	"net/url"

	"learnhub/backend/config"
	"learnhub/backend/middleware"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type PointsController struct {
	Points      *services.PointsService
	Leaderboard *services.LeaderboardService
	Cfg         *config.Config
}

func NewPointsController(points *services.PointsService, leaderboard *services.LeaderboardService, cfg *config.Config) *PointsController {
	return &PointsController{Points: points, Leaderboard: leaderboard, Cfg: cfg}
}

type CreatePointRequest struct {
	UserID     uint `json:"userId" validate:"required"`
	MaterialID uint `json:"materialId" validate:"required"`
	Value      *int `json:"value" validate:"required,min=0"`
	StageIndex int  `json:"stageIndex" validate:"min=-1"`
}

// CreatePoint godoc
// @Summary Award points
// @Description Awards points for a (user, material, stage) once
// @Tags points
// @Accept json
// @Produce json
// @Param request body CreatePointRequest true "Point"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /points [post]
func (pc *PointsController) CreatePoint(c *fiber.Ctx) error {
	var input CreatePointRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ValidationError(c, err)
	}

	claims, _ := middleware.Claims(c)
	if input.UserID != claims.UserID && !claims.IsAdmin() {
		return utils.Forbidden(c, "You can only award points to yourself")
	}

	point, err := pc.Points.CreatePoint(c.UserContext(), services.CreatePointInput{
		UserID:     input.UserID,
		MaterialID: input.MaterialID,
		Value:      *input.Value,
		StageIndex: input.StageIndex,
	})
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}
	return utils.Created(c, point)
}

func (pc *PointsController) GetUserPoints(c *fiber.Ctx) error {
	userID, err := utils.ParseUintParam(c, "userId")
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}
	summary, err := pc.Points.UserPoints(c.UserContext(), userID)
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}
	return utils.OK(c, summary)
}

func (pc *PointsController) GetMaterialPoints(c *fiber.Ctx) error {
	materialID, err := utils.ParseUintParam(c, "materialId")
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}
	summary, err := pc.Points.MaterialPoints(c.UserContext(), materialID)
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}
	return utils.OK(c, summary)
}

// GetLeaderboard godoc
// @Summary Leaderboard
// @Description Top users by all-time points or by points earned since Sunday, optionally per province
// @Tags points
// @Produce json
// @Param timeframe path string true "all or weekly"
// @Param scope path string false "Province name or all"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /points/leaderboard/{timeframe}/{scope} [get]
func (pc *PointsController) GetLeaderboard(c *fiber.Ctx) error {
	scope, err := url.PathUnescape(c.Params("scope"))
	if err != nil {
		return utils.BadRequest(c, "Invalid scope")
	}

	entries, err := pc.Leaderboard.Leaderboard(c.UserContext(), c.Params("timeframe"), scope)
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}
	return utils.OK(c, entries)
}

func (pc *PointsController) GetSchoolRankings(c *fiber.Ctx) error {
	rankings, err := pc.Leaderboard.SchoolRankings(c.UserContext(), c.Query("province"))
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}
	return utils.OK(c, rankings)
}

// RecalculatePoints rebuilds every user's total from the point rows. Admin only.
func (pc *PointsController) RecalculatePoints(c *fiber.Ctx) error {
	updated, err := pc.Points.RecalculateAll(c.UserContext())
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}
	return utils.OK(c, fiber.Map{"updatedUsers": updated})
}
