package controllers

import (
	"learnhub/backend/config"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// ProgressController serves the coarse material progress routes.
type ProgressController struct {
	Progress *services.MaterialProgressService
	Cfg      *config.Config
}

func NewProgressController(progress *services.MaterialProgressService, cfg *config.Config) *ProgressController {
	return &ProgressController{Progress: progress, Cfg: cfg}
}

type UpdateProgressRequest struct {
	Progress  *float64 `json:"progress" validate:"required,min=0,max=100"`
	Completed bool     `json:"completed"`
}

func userAndMaterial(c *fiber.Ctx) (userID, materialID uint, err error) {
	if userID, err = utils.ParseUintParam(c, "userId"); err != nil {
		return 0, 0, err
	}
	if materialID, err = utils.ParseUintParam(c, "materialId"); err != nil {
		return 0, 0, err
	}
	return userID, materialID, nil
}

// GetMaterialProgress godoc
// @Summary Get material progress
// @Description Returns the user's progress on a material, creating an empty record on first access
// @Tags progress
// @Produce json
// @Param userId path int true "User ID"
// @Param materialId path int true "Material ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/material/{userId}/{materialId} [get]
func (pc *ProgressController) GetMaterialProgress(c *fiber.Ctx) error {
	userID, materialID, err := userAndMaterial(c)
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}

	progress, err := pc.Progress.GetOrCreate(c.UserContext(), userID, materialID)
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}
	return utils.OK(c, progress)
}

// UpdateMaterialProgress godoc
// @Summary Update material progress
// @Description Stores overall progress; the first completion credits XP, streak and study time
// @Tags progress
// @Accept json
// @Produce json
// @Param userId path int true "User ID"
// @Param materialId path int true "Material ID"
// @Param request body UpdateProgressRequest true "Progress"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/material/{userId}/{materialId} [post]
func (pc *ProgressController) UpdateMaterialProgress(c *fiber.Ctx) error {
	userID, materialID, err := userAndMaterial(c)
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}

	var input UpdateProgressRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ValidationError(c, err)
	}

	result, err := pc.Progress.UpdateProgress(c.UserContext(), userID, materialID, services.UpdateProgressInput{
		Progress:  *input.Progress,
		Completed: input.Completed,
	})
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}
	return utils.OK(c, result)
}
