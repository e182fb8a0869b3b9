package controllers

import (
	"learnhub/backend/config"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type StageProgressController struct {
	Stages *services.StageProgressService
	Cfg    *config.Config
}

func NewStageProgressController(stages *services.StageProgressService, cfg *config.Config) *StageProgressController {
	return &StageProgressController{Stages: stages, Cfg: cfg}
}

type CompleteStageRequest struct {
	StageIndex       *int     `json:"stageIndex" validate:"required,min=0"`
	ContentIndex     *int     `json:"contentIndex" validate:"omitempty,min=0"`
	ContentProgress  *float64 `json:"contentProgress" validate:"omitempty,min=0,max=100"`
	CompletedStages  []int    `json:"completedStages" validate:"omitempty,dive,min=0"`
	IsStageCompleted bool     `json:"isStageCompleted"`
}

// GetStageProgress godoc
// @Summary Get stage progress
// @Description Returns stage-level progress together with the material's stages and their status
// @Tags stage-progress
// @Produce json
// @Param userId path int true "User ID"
// @Param materialId path int true "Material ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /stage-progress/material/{userId}/{materialId} [get]
func (sc *StageProgressController) GetStageProgress(c *fiber.Ctx) error {
	userID, materialID, err := userAndMaterial(c)
	if err != nil {
		return utils.HandleError(c, err, sc.Cfg)
	}

	view, err := sc.Stages.GetProgressWithStages(c.UserContext(), userID, materialID)
	if err != nil {
		return utils.HandleError(c, err, sc.Cfg)
	}
	return utils.OK(c, view)
}

// CompleteStage godoc
// @Summary Complete or update a stage
// @Description Records content or stage completion and awards stage XP once per stage
// @Tags stage-progress
// @Accept json
// @Produce json
// @Param userId path int true "User ID"
// @Param materialId path int true "Material ID"
// @Param request body CompleteStageRequest true "Stage update"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /stage-progress/material/{userId}/{materialId}/complete [post]
func (sc *StageProgressController) CompleteStage(c *fiber.Ctx) error {
	userID, materialID, err := userAndMaterial(c)
	if err != nil {
		return utils.HandleError(c, err, sc.Cfg)
	}

	var input CompleteStageRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ValidationError(c, err)
	}

	result, err := sc.Stages.CompleteStage(c.UserContext(), userID, materialID, services.CompleteStageInput{
		StageIndex:       *input.StageIndex,
		ContentIndex:     input.ContentIndex,
		ContentProgress:  input.ContentProgress,
		CompletedStages:  input.CompletedStages,
		IsStageCompleted: input.IsStageCompleted,
	})
	if err != nil {
		return utils.HandleError(c, err, sc.Cfg)
	}
	return utils.OK(c, result)
}
