package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeradar/server/internal/models"
)

func sampleArea(name string) models.SavedArea {
	buffer := 5000.0
	return models.SavedArea{
		Name:         name,
		AreaType:     models.AreaTypeCorridor,
		Geometry:     "POLYGON((16.5 49.1,16.7 49.1,16.7 49.3,16.5 49.3,16.5 49.1))",
		StartLabel:   "Praha",
		EndLabel:     "Brno",
		BufferMeters: &buffer,
	}
}

func TestSaveAreaAndList(t *testing.T) {
	db := setupDatabase(t)

	id, err := db.SaveArea(sampleArea("commute"))
	require.NoError(t, err)
	assert.Positive(t, id)

	areas, err := db.ListAreas(true)
	require.NoError(t, err)
	require.Len(t, areas, 1)

	got := areas[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "commute", got.Name)
	assert.Equal(t, models.AreaTypeCorridor, got.AreaType)
	assert.Equal(t, "Praha", got.StartLabel)
	assert.Equal(t, "Brno", got.EndLabel)
	require.NotNil(t, got.BufferMeters)
	assert.Equal(t, 5000.0, *got.BufferMeters)
	assert.True(t, got.Active)
}

func TestSaveAreaTwiceCreatesTwoRows(t *testing.T) {
	db := setupDatabase(t)

	first, err := db.SaveArea(sampleArea("commute"))
	require.NoError(t, err)
	second, err := db.SaveArea(sampleArea("commute"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	areas, err := db.ListAreas(true)
	require.NoError(t, err)
	assert.Len(t, areas, 2)
}

func TestSaveAreaValidation(t *testing.T) {
	db := setupDatabase(t)

	area := sampleArea("")
	_, err := db.SaveArea(area)
	assert.True(t, models.IsValidation(err))

	area = sampleArea("no-geometry")
	area.Geometry = ""
	_, err = db.SaveArea(area)
	assert.True(t, models.IsValidation(err))
}

func TestDeactivateArea(t *testing.T) {
	db := setupDatabase(t)

	id, err := db.SaveArea(sampleArea("old-commute"))
	require.NoError(t, err)

	require.NoError(t, db.DeactivateArea(id))

	active, err := db.ListAreas(true)
	require.NoError(t, err)
	assert.Empty(t, active)

	// The row itself survives as history.
	all, err := db.ListAreas(false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Active)

	// Deactivating twice reports the area as gone.
	assert.ErrorIs(t, db.DeactivateArea(id), ErrAreaNotFound)
}

func TestDeactivateMissingArea(t *testing.T) {
	db := setupDatabase(t)
	assert.ErrorIs(t, db.DeactivateArea(12345), ErrAreaNotFound)
}
