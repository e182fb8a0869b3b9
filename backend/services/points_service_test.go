package services

import (
	"context"
	"net/http"
	"testing"

	"learnhub/backend/models"
	"learnhub/backend/testutil"
	"learnhub/backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePoint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "alice")
	material := testutil.CreateMaterial(t, f.db, "Fractions", 90, 30, 3)

	point, err := f.points.CreatePoint(ctx, CreatePointInput{UserID: user.ID, MaterialID: material.ID, Value: 25, StageIndex: 1})
	require.NoError(t, err)
	assert.NotZero(t, point.ID)
	assert.Equal(t, material.CategoryID, point.CategoryID)
	require.NotNil(t, point.SubcategoryID)
	assert.Equal(t, *material.SubcategoryID, *point.SubcategoryID)

	assert.Equal(t, 25, testutil.ReloadUser(t, f.db, user.ID).TotalPoints)
	assert.Equal(t, 1, f.cache.invalidations)
}

func TestCreatePointRejectsDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "alice")
	material := testutil.CreateMaterial(t, f.db, "Fractions", 90, 30, 3)
	in := CreatePointInput{UserID: user.ID, MaterialID: material.ID, Value: 25, StageIndex: 1}

	_, err := f.points.CreatePoint(ctx, in)
	require.NoError(t, err)

	_, err = f.points.CreatePoint(ctx, in)
	appErr := requireAppError(t, err, http.StatusBadRequest)
	assert.Equal(t, utils.CodeAlreadyAwarded, appErr.Code)

	assert.Equal(t, 25, testutil.ReloadUser(t, f.db, user.ID).TotalPoints)
	assert.Equal(t, int64(1), f.countPoints(t, user.ID, material.ID))
}

func TestCreatePointUniqueIndexCatchesRace(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "alice")
	material := testutil.CreateMaterial(t, f.db, "Fractions", 90, 30, 3)

	// Simulates a concurrent request that inserted between the pre-check
	// and the insert.
	first := &models.Point{UserID: user.ID, MaterialID: material.ID, StageIndex: 0, Value: 10}
	inserted, err := insertPointOnce(f.db, first)
	require.NoError(t, err)
	require.True(t, inserted)

	second := &models.Point{UserID: user.ID, MaterialID: material.ID, StageIndex: 0, Value: 10}
	inserted, err = insertPointOnce(f.db, second)
	require.NoError(t, err)
	assert.False(t, inserted)

	err = f.db.Create(&models.Point{UserID: user.ID, MaterialID: material.ID, StageIndex: 0, Value: 10}).Error
	assert.True(t, utils.IsDuplicateKey(err))
}

func TestCreatePointNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "alice")
	material := testutil.CreateMaterial(t, f.db, "Fractions", 90, 30, 3)

	_, err := f.points.CreatePoint(ctx, CreatePointInput{UserID: user.ID, MaterialID: 999, Value: 5})
	requireAppError(t, err, http.StatusNotFound)

	_, err = f.points.CreatePoint(ctx, CreatePointInput{UserID: 999, MaterialID: material.ID, Value: 5})
	requireAppError(t, err, http.StatusNotFound)

	var rows int64
	require.NoError(t, f.db.Model(&models.Point{}).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestCreatePointValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.points.CreatePoint(context.Background(), CreatePointInput{UserID: 1, MaterialID: 1, Value: -3})
	requireAppError(t, err, http.StatusBadRequest)

	_, err = f.points.CreatePoint(context.Background(), CreatePointInput{UserID: 1, MaterialID: 1, Value: 3, StageIndex: -2})
	requireAppError(t, err, http.StatusBadRequest)
}

func TestUserAndMaterialPoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice")
	bob := testutil.CreateUser(t, f.db, "bob")
	fractions := testutil.CreateMaterial(t, f.db, "Fractions", 90, 30, 3)
	decimals := testutil.CreateMaterial(t, f.db, "Decimals", 90, 30, 3)

	testutil.CreatePoint(t, f.db, alice.ID, fractions.ID, 0, 10, testNow)
	testutil.CreatePoint(t, f.db, alice.ID, decimals.ID, 0, 15, testNow)
	testutil.CreatePoint(t, f.db, bob.ID, fractions.ID, 0, 7, testNow)

	mine, err := f.points.UserPoints(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, mine.Points, 2)
	assert.Equal(t, 25, mine.Total)

	forMaterial, err := f.points.MaterialPoints(ctx, fractions.ID)
	require.NoError(t, err)
	assert.Len(t, forMaterial.Points, 2)
	assert.Equal(t, 17, forMaterial.Total)

	none, err := f.points.UserPoints(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, none.Points)
	assert.Zero(t, none.Total)
}

func TestRecalculateAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	drifted := testutil.CreateUser(t, f.db, "drifted", testutil.WithTotals(0, 500))
	idle := testutil.CreateUser(t, f.db, "idle", testutil.WithTotals(0, 42))
	admin := testutil.CreateUser(t, f.db, "admin", testutil.WithRole(models.RoleAdmin), testutil.WithTotals(0, 77))
	material := testutil.CreateMaterial(t, f.db, "Fractions", 90, 30, 3)

	testutil.CreatePoint(t, f.db, drifted.ID, material.ID, 0, 30, testNow)
	testutil.CreatePoint(t, f.db, drifted.ID, material.ID, 1, 30, testNow)
	testutil.CreatePoint(t, f.db, admin.ID, material.ID, 0, 30, testNow)

	updated, err := f.points.RecalculateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	assert.Equal(t, 60, testutil.ReloadUser(t, f.db, drifted.ID).TotalPoints)
	assert.Equal(t, 0, testutil.ReloadUser(t, f.db, idle.ID).TotalPoints)
	assert.Equal(t, 77, testutil.ReloadUser(t, f.db, admin.ID).TotalPoints)
	assert.Equal(t, 1, f.cache.invalidations)
}
