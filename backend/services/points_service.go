package services

import (
	"context"

	"learnhub/backend/models"
	"learnhub/backend/utils"

	"gorm.io/gorm"
)

type PointsService struct {
	db    *gorm.DB
	log   *utils.Logger
	cache LeaderboardCache
}

func NewPointsService(db *gorm.DB, log *utils.Logger, cache LeaderboardCache) *PointsService {
	return &PointsService{db: db, log: log.With("service", "points"), cache: orNoopCache(cache)}
}

type CreatePointInput struct {
	UserID     uint
	MaterialID uint
	Value      int
	StageIndex int
}

const alreadyAwardedMessage = "Points already awarded for this stage"

// CreatePoint grants value points for (user, material, stage) once. A second
// grant for the same triple fails with an already-awarded error and leaves
// the user's total untouched.
func (s *PointsService) CreatePoint(ctx context.Context, in CreatePointInput) (*models.Point, error) {
	if in.Value < 0 {
		return nil, utils.ErrBadRequest("value must not be negative")
	}
	if in.StageIndex < models.MaterialCompletionStage {
		return nil, utils.ErrBadRequest("stageIndex is out of range")
	}

	db := s.db.WithContext(ctx)

	var existing int64
	err := db.Model(&models.Point{}).
		Where("user_id = ? AND material_id = ? AND stage_index = ?", in.UserID, in.MaterialID, in.StageIndex).
		Count(&existing).Error
	if err != nil {
		return nil, utils.ErrInternal(err)
	}
	if existing > 0 {
		return nil, utils.ErrAlreadyAwarded(alreadyAwardedMessage)
	}

	material, err := findMaterial(db, in.MaterialID)
	if err != nil {
		return nil, err
	}

	point := &models.Point{
		UserID:        in.UserID,
		MaterialID:    in.MaterialID,
		StageIndex:    in.StageIndex,
		CategoryID:    material.CategoryID,
		SubcategoryID: material.SubcategoryID,
		Value:         in.Value,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if _, err := lockUser(tx, in.UserID); err != nil {
			return err
		}
		// The pre-check above can race with a concurrent grant; the unique
		// index settles it here.
		inserted, err := insertPointOnce(tx, point)
		if err != nil {
			return err
		}
		if !inserted {
			return utils.ErrAlreadyAwarded(alreadyAwardedMessage)
		}
		err = tx.Model(&models.User{}).
			Where("id = ?", in.UserID).
			Update("total_points", gorm.Expr("total_points + ?", in.Value)).Error
		if err != nil {
			return utils.ErrInternal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateLeaderboard(ctx, s.cache, s.log)
	return point, nil
}

type PointsSummary struct {
	Points []models.Point `json:"points"`
	Total  int            `json:"total"`
}

func (s *PointsService) UserPoints(ctx context.Context, userID uint) (*PointsSummary, error) {
	return s.summary(ctx, "user_id = ?", userID)
}

func (s *PointsService) MaterialPoints(ctx context.Context, materialID uint) (*PointsSummary, error) {
	return s.summary(ctx, "material_id = ?", materialID)
}

func (s *PointsService) summary(ctx context.Context, cond string, id uint) (*PointsSummary, error) {
	db := s.db.WithContext(ctx)

	points := []models.Point{}
	if err := db.Where(cond, id).Order("created_at DESC, id DESC").Find(&points).Error; err != nil {
		return nil, utils.ErrInternal(err)
	}

	var total int
	err := db.Model(&models.Point{}).Where(cond, id).Select("COALESCE(SUM(value), 0)").Scan(&total).Error
	if err != nil {
		return nil, utils.ErrInternal(err)
	}
	return &PointsSummary{Points: points, Total: total}, nil
}

// RecalculateAll rewrites total_points of every regular user from their
// point rows and returns how many users were updated.
func (s *PointsService) RecalculateAll(ctx context.Context) (int, error) {
	db := s.db.WithContext(ctx)

	var userIDs []uint
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleUser).Pluck("id", &userIDs).Error; err != nil {
		return 0, utils.ErrInternal(err)
	}

	type sumRow struct {
		UserID uint
		Total  int
	}
	var sums []sumRow
	err := db.Model(&models.Point{}).
		Select("user_id, SUM(value) AS total").
		Group("user_id").
		Scan(&sums).Error
	if err != nil {
		return 0, utils.ErrInternal(err)
	}
	totals := make(map[uint]int, len(sums))
	for _, r := range sums {
		totals[r.UserID] = r.Total
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for _, id := range userIDs {
			if err := tx.Model(&models.User{}).Where("id = ?", id).Update("total_points", totals[id]).Error; err != nil {
				return utils.ErrInternal(err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("recalculated user points", "users", len(userIDs))
	invalidateLeaderboard(ctx, s.cache, s.log)
	return len(userIDs), nil
}
