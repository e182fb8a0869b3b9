package services

import (
	"context"
	"net/http"
	"testing"

	"learnhub/backend/models"
	"learnhub/backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProgressReturnsUnsavedDefault(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "alice")
	material := testutil.CreateMaterial(t, f.db, "Fractions", 90, 30, 3)

	mp, err := f.stages.GetProgress(context.Background(), user.ID, material.ID)
	require.NoError(t, err)
	assert.Zero(t, mp.ID)
	assert.Equal(t, 0.0, mp.Progress)
	assert.Empty(t, mp.CompletedStages)
	assert.Equal(t, 0, mp.ActiveStage)

	var rows int64
	require.NoError(t, f.db.Model(&models.MaterialProgress{}).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestGetProgressWithStagesParsesContents(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "alice")
	material := testutil.CreateMaterial(t, f.db, "Fractions", 90, 30, 3)

	view, err := f.stages.GetProgressWithStages(context.Background(), user.ID, material.ID)
	require.NoError(t, err)
	require.Len(t, view.Stages, 3)
	assert.Equal(t, StageCurrent, view.Stages[0].Status)
	assert.Equal(t, StageLocked, view.Stages[1].Status)
	require.Len(t, view.Stages[0].Contents, 2)
	block, ok := view.Stages[0].Contents[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "text", block["type"])
}

func TestGetProgressUnknownMaterial(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "alice")

	_, err := f.stages.GetProgress(context.Background(), user.ID, 999)
	requireAppError(t, err, http.StatusNotFound)
}

func TestCompleteStagesInOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "alice")
	material := testutil.CreateMaterial(t, f.db, "Fractions", 90, 30, 3)

	wantProgress := []float64{33, 67, 100}
	for i := 0; i < 3; i++ {
		res, err := f.stages.CompleteStage(ctx, user.ID, material.ID, CompleteStageInput{StageIndex: i})
		require.NoError(t, err)

		assert.Equal(t, wantProgress[i], res.Progress.Progress)
		assert.Len(t, res.Progress.CompletedStages, i+1)
		assert.Equal(t, []StageAward{{StageIndex: i, XP: 30}}, res.Awards)
	}

	mp, err := f.stages.GetProgress(ctx, user.ID, material.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, []int(mp.CompletedStages))
	assert.Equal(t, 100.0, mp.Progress)
	assert.True(t, mp.Completed)
	assert.Equal(t, 2, mp.ActiveStage)

	reloaded := testutil.ReloadUser(t, f.db, user.ID)
	assert.Equal(t, 90, reloaded.TotalXP)
	assert.Equal(t, 90, reloaded.TotalPoints)
	assert.Equal(t, 1, reloaded.Level)
	assert.Equal(t, "Beginner", reloaded.Rank)
	assert.Equal(t, 0, reloaded.CompletedMaterials)
	assert.Equal(t, int64(3), f.countPoints(t, user.ID, material.ID))
	assert.Equal(t, 3, f.cache.invalidations)
}

func TestCompleteStageRemainderGoesToFinalStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "alice")
	material := testutil.CreateMaterial(t, f.db, "Decimals", 100, 30, 3)

	var total int
	for i := 0; i < 3; i++ {
		res, err := f.stages.CompleteStage(ctx, user.ID, material.ID, CompleteStageInput{StageIndex: i})
		require.NoError(t, err)
		total += res.XPAwarded
		if i < 2 {
			assert.Equal(t, 33, res.XPAwarded)
		} else {
			assert.Equal(t, 34, res.XPAwarded)
		}
	}
	assert.Equal(t, 100, total)

	reloaded := testutil.ReloadUser(t, f.db, user.ID)
	assert.Equal(t, 100, reloaded.TotalXP)
	assert.Equal(t, 2, reloaded.Level)
}

func TestCompleteStageIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "alice")
	material := testutil.CreateMaterial(t, f.db, "Fractions", 90, 30, 3)

	first, err := f.stages.CompleteStage(ctx, user.ID, material.ID, CompleteStageInput{StageIndex: 0})
	require.NoError(t, err)
	second, err := f.stages.CompleteStage(ctx, user.ID, material.ID, CompleteStageInput{StageIndex: 0})
	require.NoError(t, err)

	assert.Len(t, second.Progress.CompletedStages, len(first.Progress.CompletedStages))
	assert.Equal(t, first.Progress.Progress, second.Progress.Progress)
	assert.Empty(t, second.Awards)
	assert.Zero(t, second.XPAwarded)

	assert.Equal(t, int64(1), f.countPoints(t, user.ID, material.ID))
	assert.Equal(t, 30, testutil.ReloadUser(t, f.db, user.ID).TotalXP)
}

func TestCompleteStageOutOfOrderLocksAfterGap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "alice")
	material := testutil.CreateMaterial(t, f.db, "Fractions", 90, 30, 4)

	_, err := f.stages.CompleteStage(ctx, user.ID, material.ID, CompleteStageInput{StageIndex: 0})
	require.NoError(t, err)
	res, err := f.stages.CompleteStage(ctx, user.ID, material.ID, CompleteStageInput{StageIndex: 2})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, []int(res.Progress.CompletedStages))
	assert.Equal(t, 50.0, res.Progress.Progress)

	view, err := f.stages.GetProgressWithStages(ctx, user.ID, material.ID)
	require.NoError(t, err)
	statuses := make([]StageStatus, len(view.Stages))
	for i, s := range view.Stages {
		statuses[i] = s.Status
	}
	assert.Equal(t, []StageStatus{StageCompleted, StageCurrent, StageLocked, StageLocked}, statuses)
}

func TestCompleteStageContentProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "alice")
	material := testutil.CreateMaterial(t, f.db, "Fractions", 90, 30, 3)

	res, err := f.stages.CompleteStage(ctx, user.ID, material.ID, CompleteStageInput{
		StageIndex: 1, ContentIndex: intPtr(0), ContentProgress: floatPtr(50),
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, res.Progress.Stages()[1].Progress)
	assert.Empty(t, res.Progress.CompletedStages)
	assert.Equal(t, 2, res.Progress.ActiveStage)

	res, err = f.stages.CompleteStage(ctx, user.ID, material.ID, CompleteStageInput{
		StageIndex: 1, ContentIndex: intPtr(1), ContentProgress: floatPtr(100),
	})
	require.NoError(t, err)
	assert.Equal(t, 75.0, res.Progress.Stages()[1].Progress)
	assert.Empty(t, res.Progress.CompletedStages)

	res, err = f.stages.CompleteStage(ctx, user.ID, material.ID, CompleteStageInput{
		StageIndex: 1, ContentIndex: intPtr(0), ContentProgress: floatPtr(100),
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.Progress.Stages()[1].Progress)
	assert.Equal(t, []int{1}, []int(res.Progress.CompletedStages))
	assert.Equal(t, 30, res.XPAwarded)
}

func TestCompleteStageExplicitFlagAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "alice")
	material := testutil.CreateMaterial(t, f.db, "Fractions", 90, 30, 3)

	res, err := f.stages.CompleteStage(ctx, user.ID, material.ID, CompleteStageInput{
		StageIndex:       2,
		ContentIndex:     intPtr(0),
		ContentProgress:  floatPtr(10),
		IsStageCompleted: true,
		CompletedStages:  []int{0, 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, []int(res.Progress.CompletedStages))
	assert.True(t, res.Progress.Completed)
	assert.Equal(t, 90, res.XPAwarded)
	assert.Len(t, res.Awards, 3)
}

func TestCompleteStageUpgradesLegacyStageEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "alice")
	material := testutil.CreateMaterial(t, f.db, "Fractions", 90, 30, 3)

	mp, err := f.progress.GetOrCreate(ctx, user.ID, material.ID)
	require.NoError(t, err)
	require.NoError(t, f.db.Exec(
		`UPDATE material_progresses SET stage_progress = ? WHERE id = ?`, `{"0": 60, "2": 15}`, mp.ID,
	).Error)

	res, err := f.stages.CompleteStage(ctx, user.ID, material.ID, CompleteStageInput{
		StageIndex: 0, ContentIndex: intPtr(1), ContentProgress: floatPtr(80),
	})
	require.NoError(t, err)

	stages := res.Progress.Stages()
	assert.Equal(t, map[int]float64{1: 80}, stages[0].Contents)
	assert.Equal(t, 80.0, stages[0].Progress)
	assert.Equal(t, 15.0, stages[2].Progress)
	assert.NotNil(t, stages[2].Contents)
}

func TestCompleteStageNotifiesLevelUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "alice", testutil.WithTotals(80, 80))
	material := testutil.CreateMaterial(t, f.db, "Fractions", 30, 30, 1)

	res, err := f.stages.CompleteStage(ctx, user.ID, material.ID, CompleteStageInput{StageIndex: 0})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Level.Level)
	assert.Equal(t, []string{models.NotificationXPEarned, models.NotificationLevelUp}, f.notificationTypes(t, user.ID))
}

func TestCompleteStageValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "alice")
	material := testutil.CreateMaterial(t, f.db, "Fractions", 90, 30, 3)
	empty := testutil.CreateMaterial(t, f.db, "Empty", 10, 5, 0)

	tests := []struct {
		name       string
		userID     uint
		materialID uint
		in         CompleteStageInput
		status     int
	}{
		{"stage index too large", user.ID, material.ID, CompleteStageInput{StageIndex: 3}, http.StatusBadRequest},
		{"negative stage index", user.ID, material.ID, CompleteStageInput{StageIndex: -1}, http.StatusBadRequest},
		{"content progress above 100", user.ID, material.ID, CompleteStageInput{StageIndex: 0, ContentIndex: intPtr(0), ContentProgress: floatPtr(120)}, http.StatusBadRequest},
		{"content index without progress", user.ID, material.ID, CompleteStageInput{StageIndex: 0, ContentIndex: intPtr(0)}, http.StatusBadRequest},
		{"completed stage out of range", user.ID, material.ID, CompleteStageInput{StageIndex: 0, CompletedStages: []int{7}}, http.StatusBadRequest},
		{"material without stages", user.ID, empty.ID, CompleteStageInput{StageIndex: 0}, http.StatusBadRequest},
		{"unknown material", user.ID, 999, CompleteStageInput{StageIndex: 0}, http.StatusNotFound},
		{"unknown user", 999, material.ID, CompleteStageInput{StageIndex: 0}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.stages.CompleteStage(ctx, tt.userID, tt.materialID, tt.in)
			requireAppError(t, err, tt.status)
		})
	}

	var rows int64
	require.NoError(t, f.db.Model(&models.MaterialProgress{}).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestDeriveStageStates(t *testing.T) {
	assert.Equal(t, []StageStatus{StageCurrent, StageLocked, StageLocked}, DeriveStageStates(3, nil))
	assert.Equal(t, []StageStatus{StageCompleted, StageCompleted, StageCompleted}, DeriveStageStates(3, []int{2, 0, 1}))
	assert.Equal(t, []StageStatus{StageCompleted, StageCurrent, StageLocked}, DeriveStageStates(3, []int{0, 2}))
	assert.Empty(t, DeriveStageStates(0, []int{0}))
}
