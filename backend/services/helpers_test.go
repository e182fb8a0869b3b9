package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"learnhub/backend/models"
	"learnhub/backend/testutil"
	"learnhub/backend/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Wednesday; the week started on Sunday 2024-03-10.
var testNow = time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)

type memoryCache struct {
	data          map[string][]byte
	invalidations int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte) error {
	c.data[key] = value
	return nil
}

func (c *memoryCache) Invalidate(context.Context) error {
	c.invalidations++
	c.data = map[string][]byte{}
	return nil
}

type fixture struct {
	db            *gorm.DB
	log           *utils.Logger
	clock         *testutil.Clock
	cache         *memoryCache
	notifications *NotificationService
	stages        *StageProgressService
	progress      *MaterialProgressService
	points        *PointsService
	leaderboard   *LeaderboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	cfg := testutil.Config()
	clock := &testutil.Clock{Now: testNow}
	cache := newMemoryCache()

	f := &fixture{db: db, log: log, clock: clock, cache: cache}
	f.notifications = NewNotificationService(db, log)
	f.notifications.now = clock.Func()
	f.stages = NewStageProgressService(db, log, f.notifications, cache)
	f.stages.SetClock(clock.Func())
	f.progress = NewMaterialProgressService(db, log, cfg, f.notifications, cache)
	f.progress.SetClock(clock.Func())
	f.points = NewPointsService(db, log, cache)
	f.leaderboard = NewLeaderboardService(db, log, cfg, cache)
	f.leaderboard.SetClock(clock.Func())
	return f
}

func (f *fixture) notificationTypes(t *testing.T, userID uint) []string {
	t.Helper()
	var types []string
	require.NoError(t, f.db.Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Order("id ASC").
		Pluck("type", &types).Error)
	return types
}

func (f *fixture) countPoints(t *testing.T, userID, materialID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Point{}).
		Where("user_id = ? AND material_id = ?", userID, materialID).
		Count(&n).Error)
	return n
}

func requireAppError(t *testing.T, err error, status int) *utils.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *utils.AppError
	require.True(t, errors.As(err, &appErr), "expected *utils.AppError, got %T: %v", err, err)
	require.Equal(t, status, appErr.Status, appErr.Error())
	return appErr
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
