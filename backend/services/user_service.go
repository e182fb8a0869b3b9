package services

import (
	"context"

	"learnhub/backend/models"
	"learnhub/backend/utils"

	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type UserLevel struct {
	UserID             uint   `json:"userId"`
	TotalXP            int    `json:"totalXP"`
	TotalPoints        int    `json:"totalPoints"`
	Rank               string `json:"rank"`
	StudyStreak        int    `json:"studyStreak"`
	CompletedMaterials int    `json:"completedMaterials"`
	LevelInfo
}

func (s *UserService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("School").First(&user, userID).Error; err != nil {
		return nil, utils.NotFoundOr(err, "User not found")
	}
	return &user, nil
}

// Level recomputes the level curve position from the stored TotalXP, so the
// answer is right even if the stored Level column lags behind.
func (s *UserService) Level(ctx context.Context, userID uint) (*UserLevel, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, utils.NotFoundOr(err, "User not found")
	}
	info := CalculateLevel(user.TotalXP)
	return &UserLevel{
		UserID:             user.ID,
		TotalXP:            user.TotalXP,
		TotalPoints:        user.TotalPoints,
		Rank:               CalculateRank(info.Level),
		StudyStreak:        user.StudyStreak,
		CompletedMaterials: user.CompletedMaterials,
		LevelInfo:          info,
	}, nil
}
