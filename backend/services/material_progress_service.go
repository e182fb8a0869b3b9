package services

import (
	"context"
	"time"

	"learnhub/backend/config"
	"learnhub/backend/models"
	"learnhub/backend/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaterialProgressService handles the coarse, non stage-aware progress flow
// and the side effects of completing a whole material.
type MaterialProgressService struct {
	db            *gorm.DB
	log           *utils.Logger
	notifications *NotificationService
	cache         LeaderboardCache
	loc           *time.Location
	now           func() time.Time
}

func NewMaterialProgressService(db *gorm.DB, log *utils.Logger, cfg *config.Config, notifications *NotificationService, cache LeaderboardCache) *MaterialProgressService {
	return &MaterialProgressService{
		db:            db,
		log:           log.With("service", "material_progress"),
		notifications: notifications,
		cache:         orNoopCache(cache),
		loc:           cfg.Location(),
		now:           time.Now,
	}
}

func (s *MaterialProgressService) SetClock(now func() time.Time) {
	s.now = now
}

// GetOrCreate returns the progress row, creating an empty one on first access.
func (s *MaterialProgressService) GetOrCreate(ctx context.Context, userID, materialID uint) (*models.MaterialProgress, error) {
	db := s.db.WithContext(ctx)
	if _, err := findMaterial(db, materialID); err != nil {
		return nil, err
	}

	mp, err := findProgress(db, userID, materialID, false)
	if err != nil || mp != nil {
		return mp, err
	}

	mp = newMaterialProgress(userID, materialID, s.now().UTC())
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(mp).Error; err != nil {
		return nil, utils.ErrInternal(err)
	}
	mp, err = findProgress(db, userID, materialID, false)
	if err != nil {
		return nil, err
	}
	if mp == nil {
		return nil, utils.ErrInternal(gorm.ErrRecordNotFound)
	}
	return mp, nil
}

type UpdateProgressInput struct {
	Progress  float64
	Completed bool
}

// CompletionSummary describes the rewards of a material completion.
type CompletionSummary struct {
	XPEarned    int       `json:"xpEarned"`
	TotalXP     int       `json:"totalXP"`
	Level       LevelInfo `json:"level"`
	Rank        string    `json:"rank"`
	LeveledUp   bool      `json:"leveledUp"`
	RankChanged bool      `json:"rankChanged"`
	StudyStreak int       `json:"studyStreak"`
}

type UpdateProgressResult struct {
	Progress   *models.MaterialProgress `json:"progress"`
	Completion *CompletionSummary       `json:"completion,omitempty"`
}

// UpdateProgress stores the raw progress value. The first time a material
// becomes completed the user is credited its XP, streak and study time, and a
// point is recorded, all in the same transaction as the progress write.
func (s *MaterialProgressService) UpdateProgress(ctx context.Context, userID, materialID uint, in UpdateProgressInput) (*UpdateProgressResult, error) {
	if in.Progress < 0 || in.Progress > 100 {
		return nil, utils.ErrBadRequest("progress must be between 0 and 100")
	}

	now := s.now()
	var (
		result  UpdateProgressResult
		pending []models.Notification
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		material, err := findMaterial(tx, materialID)
		if err != nil {
			return err
		}
		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}

		mp, err := findProgress(tx, userID, materialID, true)
		if err != nil {
			return err
		}
		if mp == nil {
			mp = newMaterialProgress(userID, materialID, now)
		}
		wasCompleted := mp.Completed

		mp.Progress = in.Progress
		mp.Completed = in.Completed
		mp.LastAccessed = now
		if err := saveProgress(tx, mp); err != nil {
			return err
		}
		result.Progress = mp

		if !in.Completed || wasCompleted {
			return nil
		}

		summary, notes, err := s.completeMaterial(tx, user, material, now)
		if err != nil {
			return err
		}
		result.Completion = summary
		pending = notes
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Emit(ctx, pending...)
	if result.Completion != nil {
		invalidateLeaderboard(ctx, s.cache, s.log)
	}
	return &result, nil
}

// completeMaterial applies the completion rewards. The material point is the
// marker of a completed material: when it already exists the rewards were
// granted before and nothing happens.
func (s *MaterialProgressService) completeMaterial(tx *gorm.DB, user *models.User, material *models.Material, now time.Time) (*CompletionSummary, []models.Notification, error) {
	inserted, err := insertPointOnce(tx, &models.Point{
		UserID:        user.ID,
		MaterialID:    material.ID,
		StageIndex:    models.MaterialCompletionStage,
		CategoryID:    material.CategoryID,
		SubcategoryID: material.SubcategoryID,
		Value:         material.XPReward,
	})
	if err != nil {
		return nil, nil, err
	}
	if !inserted {
		s.log.Info("material completion already rewarded", "user_id", user.ID, "material_id", material.ID)
		return nil, nil, nil
	}

	prev := snapshotOf(user)
	applyXP(user, material.XPReward)

	streak, change := NextStreak(user.StudyStreak, user.LastStudyDate, now, s.loc)
	studiedAt := now.UTC()
	user.StudyStreak = streak
	user.LastStudyDate = &studiedAt
	user.CompletedMaterials++
	user.TotalStudyTime += material.EstimatedTime
	user.WeeklyStudyTime += material.EstimatedTime
	user.MonthlyStudyTime += material.EstimatedTime

	err = tx.Model(user).Updates(map[string]interface{}{
		"total_xp":            user.TotalXP,
		"total_points":        user.TotalPoints,
		"level":               user.Level,
		"rank":                user.Rank,
		"study_streak":        user.StudyStreak,
		"last_study_date":     user.LastStudyDate,
		"completed_materials": user.CompletedMaterials,
		"total_study_time":    user.TotalStudyTime,
		"weekly_study_time":   user.WeeklyStudyTime,
		"monthly_study_time":  user.MonthlyStudyTime,
	}).Error
	if err != nil {
		return nil, nil, utils.ErrInternal(err)
	}

	notes := milestoneNotifications(user.ID, prev, snapshotOf(user), material.XPReward, material.Title)
	if n, ok := streakNotification(user.ID, change, streak); ok {
		notes = append(notes, n)
	}

	summary := &CompletionSummary{
		XPEarned:    material.XPReward,
		TotalXP:     user.TotalXP,
		Level:       CalculateLevel(user.TotalXP),
		Rank:        user.Rank,
		LeveledUp:   user.Level > prev.Level,
		RankChanged: user.Rank != prev.Rank,
		StudyStreak: user.StudyStreak,
	}
	return summary, notes, nil
}
