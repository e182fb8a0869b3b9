// Package testutil opens throwaway SQLite databases and seeds fixtures for
// package tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"learnhub/backend/config"
	"learnhub/backend/models"
	"learnhub/backend/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Config returns a configuration suitable for tests: UTC days and a fixed
// JWT secret.
func Config() *config.Config {
	return &config.Config{
		JWTSecret:           "testsecret",
		ServerPort:          "8080",
		AppEnv:              "test",
		TimeZone:            "UTC",
		LeaderboardCacheTTL: time.Minute,
		RequestTimeout:      5 * time.Second,
		CORSOrigins:         "*",
	}
}

func Logger(tb testing.TB) *utils.Logger {
	tb.Helper()
	log, err := utils.InitLogger("test")
	if err != nil {
		tb.Fatalf("failed to init logger: %v", err)
	}
	return log
}

// DB returns a migrated in-memory database private to the calling test.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	gormCfg := utils.GormConfig(Logger(tb))
	gormCfg.Logger = gormCfg.Logger.LogMode(gormLogger.Silent)

	db, err := gorm.Open(sqlite.Open(dsn), gormCfg)
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("failed to get sql.DB: %v", err)
	}
	// One connection keeps the in-memory database alive and serializes
	// writers the way a row lock would.
	sqlDB.SetMaxOpenConns(1)

	if err := utils.AutoMigrate(db); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}

	tb.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Clock is a settable time source for services.
type Clock struct {
	Now time.Time
}

func (c *Clock) Func() func() time.Time {
	return func() time.Time { return c.Now }
}

func (c *Clock) Advance(d time.Duration) {
	c.Now = c.Now.Add(d)
}

type UserOption func(*models.User)

func WithSchool(schoolID uint) UserOption {
	return func(u *models.User) { u.SchoolID = &schoolID }
}

func WithRole(role string) UserOption {
	return func(u *models.User) { u.Role = role }
}

func WithTotals(xp, points int) UserOption {
	return func(u *models.User) {
		u.TotalXP = xp
		u.TotalPoints = points
	}
}

func WithLastStudy(t time.Time, streak int) UserOption {
	return func(u *models.User) {
		u.LastStudyDate = &t
		u.StudyStreak = streak
	}
}

func CreateUser(tb testing.TB, db *gorm.DB, username string, opts ...UserOption) models.User {
	tb.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         models.RoleUser,
		Level:        1,
		Rank:         "Beginner",
	}
	for _, opt := range opts {
		opt(&user)
	}
	if err := db.Create(&user).Error; err != nil {
		tb.Fatalf("failed to create user: %v", err)
	}
	return user
}

func CreateSchool(tb testing.TB, db *gorm.DB, name, province string) models.School {
	tb.Helper()
	school := models.School{Name: name, Province: province}
	if err := db.Create(&school).Error; err != nil {
		tb.Fatalf("failed to create school: %v", err)
	}
	return school
}

// CreateMaterial seeds a category, a subcategory and a material with
// stageCount stages of two content blocks each.
func CreateMaterial(tb testing.TB, db *gorm.DB, title string, xpReward, estimatedTime, stageCount int) models.Material {
	tb.Helper()

	category := models.Category{Name: title + " category"}
	if err := db.Create(&category).Error; err != nil {
		tb.Fatalf("failed to create category: %v", err)
	}
	sub := models.Subcategory{CategoryID: category.ID, Name: title + " subcategory"}
	if err := db.Create(&sub).Error; err != nil {
		tb.Fatalf("failed to create subcategory: %v", err)
	}

	material := models.Material{
		Title:         title,
		CategoryID:    category.ID,
		SubcategoryID: &sub.ID,
		XPReward:      xpReward,
		EstimatedTime: estimatedTime,
	}
	if err := db.Create(&material).Error; err != nil {
		tb.Fatalf("failed to create material: %v", err)
	}

	for i := 0; i < stageCount; i++ {
		contents, _ := json.Marshal([]map[string]interface{}{
			{"type": "text", "body": fmt.Sprintf("stage %d intro", i)},
			{"type": "quiz", "question": fmt.Sprintf("stage %d check", i)},
		})
		stage := models.Stage{
			MaterialID:    material.ID,
			Title:         fmt.Sprintf("Stage %d", i+1),
			SequenceOrder: i,
			Contents:      datatypes.JSON(contents),
		}
		if err := db.Create(&stage).Error; err != nil {
			tb.Fatalf("failed to create stage: %v", err)
		}
		material.Stages = append(material.Stages, stage)
	}
	return material
}

func CreatePoint(tb testing.TB, db *gorm.DB, userID, materialID uint, stageIndex, value int, createdAt time.Time) models.Point {
	tb.Helper()
	point := models.Point{
		UserID:     userID,
		MaterialID: materialID,
		StageIndex: stageIndex,
		Value:      value,
		CreatedAt:  createdAt.UTC(),
	}
	if err := db.Create(&point).Error; err != nil {
		tb.Fatalf("failed to create point: %v", err)
	}
	return point
}

func ReloadUser(tb testing.TB, db *gorm.DB, id uint) models.User {
	tb.Helper()
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		tb.Fatalf("failed to reload user %d: %v", id, err)
	}
	return user
}
