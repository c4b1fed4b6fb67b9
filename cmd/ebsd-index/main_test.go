package main

import (
	"encoding/json"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/kikuchi/internal/ebsd/crystal"
	"github.com/banshee-data/kikuchi/internal/ebsd/pipeline"
	"github.com/banshee-data/kikuchi/internal/units"
)

func TestFlagDefaults(t *testing.T) {
	assert.Equal(t, "Silicon", *phases)
	assert.Equal(t, 16, *numPatterns)
	assert.Equal(t, int64(1), *seed)
	assert.False(t, *debug)
	assert.Equal(t, units.Degrees, *angleUnits)
}

func TestSplitNames(t *testing.T) {
	assert.Equal(t, []string{"Silicon", "Iron alpha"}, splitNames(" Silicon, Iron alpha ,,"))
	assert.Empty(t, splitNames(" , "))
}

func TestRandomOrientation_Deterministic(t *testing.T) {
	a := randomOrientation(rand.New(rand.NewSource(7)))
	b := randomOrientation(rand.New(rand.NewSource(7)))
	assert.Equal(t, a, b)

	// A proper rotation has angle in [0, π].
	angle := a.Angle()
	assert.GreaterOrEqual(t, angle, 0.0)
	assert.LessOrEqual(t, angle, math.Pi+1e-9)
}

func TestPhaseSource_Presets(t *testing.T) {
	lookup, closeFn, err := phaseSource("")
	require.NoError(t, err)
	defer closeFn()

	c, err := lookup("Silicon")
	require.NoError(t, err)
	assert.Equal(t, "Silicon", c.Name())

	_, err = lookup("Unobtainium")
	assert.Error(t, err)
}

func TestPhaseSource_Library(t *testing.T) {
	lookup, closeFn, err := phaseSource(filepath.Join(t.TempDir(), "crystals.db"))
	require.NoError(t, err)
	defer closeFn()

	c, err := lookup("Magnesium")
	require.NoError(t, err)
	assert.Equal(t, "Magnesium", c.Name())
}

func TestNewRecord_NotIndexed(t *testing.T) {
	r := pipeline.Result{PatternID: "p0001"}
	rec := newRecord(r, crystal.IdentityRotation, crystal.Silicon(), 0.1, units.Degrees)
	assert.False(t, rec.Correct)
	assert.Nil(t, rec.Error)
	assert.Empty(t, rec.Ranked)
	assert.Contains(t, rec.Description, "not indexed")
}

func TestEuler(t *testing.T) {
	rot := crystal.RotationFromEuler(0.5, 0.25, 1)
	rad := euler(rot, units.Radians)
	assert.InDelta(t, 0.5, rad[0], 1e-9)

	got := euler(rot, units.Degrees)
	assert.InDelta(t, 0.5*180/math.Pi, got[0], 1e-6)
	assert.InDelta(t, 0.25*180/math.Pi, got[1], 1e-6)
	assert.InDelta(t, 180/math.Pi, got[2], 1e-6)
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.json")
	require.NoError(t, writeJSON(path, []patternRecord{{Result: pipeline.Result{PatternID: "p0000"}}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "p0000", decoded[0]["pattern_id"])
}
