package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"learnhub/backend/models"
	"learnhub/backend/utils"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"
)

// StageProgressService tracks per-stage and per-content progress and awards
// a share of the material's XP for every completed stage.
type StageProgressService struct {
	db            *gorm.DB
	log           *utils.Logger
	notifications *NotificationService
	cache         LeaderboardCache
	now           func() time.Time
}

func NewStageProgressService(db *gorm.DB, log *utils.Logger, notifications *NotificationService, cache LeaderboardCache) *StageProgressService {
	return &StageProgressService{
		db:            db,
		log:           log.With("service", "stage_progress"),
		notifications: notifications,
		cache:         orNoopCache(cache),
		now:           time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (s *StageProgressService) SetClock(now func() time.Time) {
	s.now = now
}

type StageView struct {
	Index    int           `json:"index"`
	ID       uint          `json:"id"`
	Title    string        `json:"title"`
	Order    int           `json:"order"`
	Status   StageStatus   `json:"status"`
	Progress float64       `json:"progress"`
	Contents []interface{} `json:"contents"`
}

type StageProgressView struct {
	Progress *models.MaterialProgress `json:"progress"`
	Stages   []StageView              `json:"stages"`
}

// GetProgress returns the stored progress for (userID, materialID), or an
// unsaved zero value when the user has not started the material.
func (s *StageProgressService) GetProgress(ctx context.Context, userID, materialID uint) (*models.MaterialProgress, error) {
	db := s.db.WithContext(ctx)
	if _, err := findMaterial(db, materialID); err != nil {
		return nil, err
	}
	mp, err := findProgress(db, userID, materialID, false)
	if err != nil {
		return nil, err
	}
	if mp == nil {
		mp = newMaterialProgress(userID, materialID, time.Time{})
	}
	return mp, nil
}

// GetProgressWithStages is GetProgress plus the material's stages with their
// parsed contents and derived status.
func (s *StageProgressService) GetProgressWithStages(ctx context.Context, userID, materialID uint) (*StageProgressView, error) {
	db := s.db.WithContext(ctx)
	material, err := findMaterialWithStages(db, materialID)
	if err != nil {
		return nil, err
	}
	mp, err := findProgress(db, userID, materialID, false)
	if err != nil {
		return nil, err
	}
	if mp == nil {
		mp = newMaterialProgress(userID, materialID, time.Time{})
	}
	return &StageProgressView{Progress: mp, Stages: s.stageViews(material, mp)}, nil
}

func (s *StageProgressService) stageViews(material *models.Material, mp *models.MaterialProgress) []StageView {
	states := DeriveStageStates(len(material.Stages), mp.CompletedStages)
	stored := mp.Stages()

	views := make([]StageView, len(material.Stages))
	for i, stage := range material.Stages {
		contents := []interface{}{}
		if len(stage.Contents) > 0 {
			if err := sonic.Unmarshal(stage.Contents, &contents); err != nil {
				s.log.Warn("stage contents are not a JSON array", "stage_id", stage.ID, "error", err)
				contents = []interface{}{}
			}
		}
		views[i] = StageView{
			Index:    i,
			ID:       stage.ID,
			Title:    stage.Title,
			Order:    stage.SequenceOrder,
			Status:   states[i],
			Progress: stored[i].Progress,
			Contents: contents,
		}
	}
	return views
}

type CompleteStageInput struct {
	StageIndex       int
	ContentIndex     *int
	ContentProgress  *float64
	CompletedStages  []int
	IsStageCompleted bool
}

type StageAward struct {
	StageIndex int `json:"stageIndex"`
	XP         int `json:"xp"`
}

type CompleteStageResult struct {
	Progress  *models.MaterialProgress `json:"progress"`
	Awards    []StageAward             `json:"awards"`
	XPAwarded int                      `json:"xpAwarded"`
	Level     LevelInfo                `json:"level"`
	Rank      string                   `json:"rank"`
}

// CompleteStage records progress on one stage, recomputes the material's
// overall progress and awards stage XP for every newly completed stage.
func (s *StageProgressService) CompleteStage(ctx context.Context, userID, materialID uint, in CompleteStageInput) (*CompleteStageResult, error) {
	if (in.ContentIndex == nil) != (in.ContentProgress == nil) {
		return nil, utils.ErrBadRequest("contentIndex and contentProgress must be provided together")
	}
	if in.ContentIndex != nil && *in.ContentIndex < 0 {
		return nil, utils.ErrBadRequest("contentIndex must not be negative")
	}
	if in.ContentProgress != nil && (*in.ContentProgress < 0 || *in.ContentProgress > 100) {
		return nil, utils.ErrBadRequest("contentProgress must be between 0 and 100")
	}

	now := s.now()
	var (
		result  CompleteStageResult
		pending []models.Notification
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		material, err := findMaterialWithStages(tx, materialID)
		if err != nil {
			return err
		}
		total := len(material.Stages)
		if total == 0 {
			return utils.ErrBadRequest("Material has no stages")
		}
		if in.StageIndex < 0 || in.StageIndex >= total {
			return utils.ErrBadRequest(fmt.Sprintf("stageIndex must be between 0 and %d", total-1))
		}
		for _, i := range in.CompletedStages {
			if i < 0 || i >= total {
				return utils.ErrBadRequest(fmt.Sprintf("completedStages contains out of range index %d", i))
			}
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
		before := append([]int(nil), mp.CompletedStages...)
		wasCompleted := mp.Completed

		stages := mp.Stages()
		entry := stages[in.StageIndex]
		if entry.Contents == nil {
			entry.Contents = map[int]float64{}
		}
		if in.ContentIndex != nil {
			entry.Contents[*in.ContentIndex] = *in.ContentProgress
			entry.Progress = meanProgress(entry.Contents)
		} else {
			entry.Progress = 100
		}
		stages[in.StageIndex] = entry
		mp.SetStages(stages)

		completed := mp.CompletedStages
		if entry.Progress >= 100 || in.IsStageCompleted {
			completed = mergeStages(completed, in.StageIndex)
		}
		completed = mergeStages(completed, in.CompletedStages...)
		mp.CompletedStages = completed

		mp.Progress = math.Round(100 * float64(len(completed)) / float64(total))
		mp.Completed = wasCompleted || mp.Progress == 100
		if in.StageIndex+1 < total {
			mp.ActiveStage = in.StageIndex + 1
		} else {
			mp.ActiveStage = in.StageIndex
		}
		mp.LastAccessed = now

		if err := saveProgress(tx, mp); err != nil {
			return err
		}
		result.Progress = mp

		fresh := newlyCompleted(before, completed)
		finishedNow := len(completed) == total && len(before) < total
		awards, err := s.awardStages(tx, material, userID, fresh, finishedNow)
		if err != nil {
			return err
		}
		result.Awards = awards

		for _, a := range awards {
			result.XPAwarded += a.XP
		}
		if result.XPAwarded > 0 {
			prev := snapshotOf(user)
			applyXP(user, result.XPAwarded)
			err := tx.Model(user).Updates(map[string]interface{}{
				"total_xp":     user.TotalXP,
				"total_points": user.TotalPoints,
				"level":        user.Level,
				"rank":         user.Rank,
			}).Error
			if err != nil {
				return utils.ErrInternal(err)
			}
			pending = milestoneNotifications(userID, prev, snapshotOf(user), result.XPAwarded, material.Title)
		}
		result.Level = CalculateLevel(user.TotalXP)
		result.Rank = user.Rank
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Emit(ctx, pending...)
	if len(result.Awards) > 0 {
		invalidateLeaderboard(ctx, s.cache, s.log)
	}
	return &result, nil
}

// awardStages writes one point per newly completed stage. Each stage is
// worth floor(xp/N); the remainder goes to the stage that finishes the
// material. Stages that already have a point are skipped.
func (s *StageProgressService) awardStages(tx *gorm.DB, material *models.Material, userID uint, stages []int, finishedNow bool) ([]StageAward, error) {
	if len(stages) == 0 {
		return nil, nil
	}
	total := len(material.Stages)
	share := material.XPReward / total
	remainder := material.XPReward - share*total

	awards := make([]StageAward, 0, len(stages))
	for n, idx := range stages {
		value := share
		if finishedNow && n == len(stages)-1 {
			value += remainder
		}
		point := &models.Point{
			UserID:        userID,
			MaterialID:    material.ID,
			StageIndex:    idx,
			CategoryID:    material.CategoryID,
			SubcategoryID: material.SubcategoryID,
			Value:         value,
		}
		inserted, err := insertPointOnce(tx, point)
		if err != nil {
			return nil, err
		}
		if !inserted {
			s.log.Info("stage already awarded", "user_id", userID, "material_id", material.ID, "stage", idx)
			continue
		}
		awards = append(awards, StageAward{StageIndex: idx, XP: value})
	}
	return awards, nil
}

func meanProgress(contents map[int]float64) float64 {
	if len(contents) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range contents {
		sum += v
	}
	return sum / float64(len(contents))
}
