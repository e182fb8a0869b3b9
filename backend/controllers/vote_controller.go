package controllers

import (
	"learnhub/backend/config"
	"learnhub/backend/middleware"
	"learnhub/backend/models"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type VoteController struct {
	Votes *services.VoteService
	Cfg   *config.Config
}

func NewVoteController(votes *services.VoteService, cfg *config.Config) *VoteController {
	return &VoteController{Votes: votes, Cfg: cfg}
}

type CastVoteRequest struct {
	TargetType string `json:"targetType" validate:"required,oneof=post answer comment"`
	TargetID   uint   `json:"targetId" validate:"required"`
	Value      int    `json:"value" validate:"required,oneof=1 -1"`
}

// CastVote godoc
// @Summary Vote on a post, answer or comment
// @Tags votes
// @Accept json
// @Produce json
// @Param request body CastVoteRequest true "Vote"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /votes [post]
func (vc *VoteController) CastVote(c *fiber.Ctx) error {
	var input CastVoteRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ValidationError(c, err)
	}

	kind, err := models.ParseVoteTargetKind(input.TargetType)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	claims, _ := middleware.Claims(c)

	result, err := vc.Votes.Cast(c.UserContext(), claims.UserID, models.VoteTarget{Kind: kind, ID: input.TargetID}, input.Value)
	if err != nil {
		return utils.HandleError(c, err, vc.Cfg)
	}
	return utils.OK(c, result)
}
