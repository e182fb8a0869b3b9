package services

import (
	"errors"
	"time"

	"learnhub/backend/models"
	"learnhub/backend/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Row lookups shared by the progress and points services. Every function
// takes the handle to run on so callers can pass a transaction.

func findMaterialWithStages(db *gorm.DB, materialID uint) (*models.Material, error) {
	var material models.Material
	err := db.Preload("Stages", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order ASC, id ASC")
	}).First(&material, materialID).Error
	if err != nil {
		return nil, utils.NotFoundOr(err, "Material not found")
	}
	return &material, nil
}

func findMaterial(db *gorm.DB, materialID uint) (*models.Material, error) {
	var material models.Material
	if err := db.First(&material, materialID).Error; err != nil {
		return nil, utils.NotFoundOr(err, "Material not found")
	}
	return &material, nil
}

// lockUser loads the user row FOR UPDATE. SQLite ignores the locking clause.
func lockUser(tx *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error
	if err != nil {
		return nil, utils.NotFoundOr(err, "User not found")
	}
	return &user, nil
}

func newMaterialProgress(userID, materialID uint, now time.Time) *models.MaterialProgress {
	mp := &models.MaterialProgress{
		UserID:          userID,
		MaterialID:      materialID,
		CompletedStages: []int{},
		LastAccessed:    now,
	}
	mp.SetStages(models.StageProgressMap{})
	return mp
}

// findProgress returns the stored row or nil when none exists yet. With
// lock set the row is read FOR UPDATE.
func findProgress(db *gorm.DB, userID, materialID uint, lock bool) (*models.MaterialProgress, error) {
	if lock {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var mp models.MaterialProgress
	err := db.Where("user_id = ? AND material_id = ?", userID, materialID).First(&mp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.ErrInternal(err)
	}
	if mp.CompletedStages == nil {
		mp.CompletedStages = []int{}
	}
	return &mp, nil
}

// saveProgress persists mp. New rows go through an upsert on
// (user_id, material_id) so a concurrent first write updates instead of
// failing. The stored row is reloaded into mp.
func saveProgress(tx *gorm.DB, mp *models.MaterialProgress) error {
	var err error
	if mp.ID == 0 {
		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "material_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"progress", "completed", "stage_progress", "completed_stages",
				"active_stage", "last_accessed", "updated_at",
			}),
		}).Create(mp).Error
	} else {
		err = tx.Save(mp).Error
	}
	if err != nil {
		return utils.ErrInternal(err)
	}

	stored, err := findProgress(tx, mp.UserID, mp.MaterialID, false)
	if err != nil {
		return err
	}
	if stored == nil {
		return utils.ErrInternal(errors.New("material progress missing after save"))
	}
	*mp = *stored
	return nil
}

// insertPointOnce inserts p unless a point already exists for its
// (user, material, stage). It reports whether a row was written.
func insertPointOnce(tx *gorm.DB, p *models.Point) (bool, error) {
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "material_id"}, {Name: "stage_index"}},
		DoNothing: true,
	}).Create(p)
	if res.Error != nil {
		if utils.IsDuplicateKey(res.Error) {
			return false, nil
		}
		return false, utils.ErrInternal(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// applyXP adds xp to the user's XP and point totals and recomputes level
// and rank in memory.
func applyXP(user *models.User, xp int) {
	user.TotalXP += xp
	user.TotalPoints += xp
	user.Level = CalculateLevel(user.TotalXP).Level
	user.Rank = CalculateRank(user.Level)
}
