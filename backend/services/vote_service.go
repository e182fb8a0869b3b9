package services

import (
	"context"

	"learnhub/backend/models"
	"learnhub/backend/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VoteService struct {
	db  *gorm.DB
	log *utils.Logger
}

func NewVoteService(db *gorm.DB, log *utils.Logger) *VoteService {
	return &VoteService{db: db, log: log.With("service", "votes")}
}

type VoteResult struct {
	Vote  models.Vote `json:"vote"`
	Score int         `json:"score"`
}

// Cast records userID's vote on target, replacing an earlier vote by the
// same user, and returns the target's new score.
func (s *VoteService) Cast(ctx context.Context, userID uint, target models.VoteTarget, value int) (*VoteResult, error) {
	if value != 1 && value != -1 {
		return nil, utils.ErrBadRequest("value must be 1 or -1")
	}
	table := target.Table()
	if table == "" {
		return nil, utils.ErrBadRequest("unknown vote target")
	}

	result := &VoteResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Forum tables are owned elsewhere and may not exist in every
		// deployment; only check the target when they do.
		if tx.Migrator().HasTable(table) {
			var n int64
			if err := tx.Table(table).Where("id = ?", target.ID).Count(&n).Error; err != nil {
				return utils.ErrInternal(err)
			}
			if n == 0 {
				return utils.ErrNotFound("Vote target not found")
			}
		}

		vote := models.Vote{UserID: userID, TargetKind: target.Kind, TargetID: target.ID, Value: value}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "target_kind"}, {Name: "target_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&vote).Error
		if err != nil {
			return utils.ErrInternal(err)
		}

		if err := tx.Where("user_id = ? AND target_kind = ? AND target_id = ?", userID, target.Kind, target.ID).
			First(&result.Vote).Error; err != nil {
			return utils.ErrInternal(err)
		}
		return tx.Model(&models.Vote{}).
			Where("target_kind = ? AND target_id = ?", target.Kind, target.ID).
			Select("COALESCE(SUM(value), 0)").
			Scan(&result.Score).Error
	})
	if err != nil {
		return nil, utils.AsAppError(err)
	}

	s.log.Debug("vote cast", "user_id", userID, "target", target.String(), "value", value)
	return result, nil
}
