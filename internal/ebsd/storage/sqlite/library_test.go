package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/banshee-data/kikuchi/internal/ebsd/crystal"
	"github.com/banshee-data/kikuchi/internal/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLibrary(t *testing.T) *Library {
	t.Helper()
	monitoring.SetLogger(t.Logf)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	l, err := Open(filepath.Join(t.TempDir(), "crystals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestOpen_MigratesToLatest(t *testing.T) {
	l := openTestLibrary(t)
	version, dirty, err := l.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// Running again is a no-op.
	require.NoError(t, l.MigrateUp())
}

func TestMigrateDown(t *testing.T) {
	l := openTestLibrary(t)
	require.NoError(t, l.MigrateDown())
	version, _, err := l.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	_, err = l.List()
	assert.Error(t, err, "crystals table should be gone")
}

func TestPutGet_RoundTrip(t *testing.T) {
	l := openTestLibrary(t)
	want := crystal.Magnesium()
	require.NoError(t, l.Put(want))

	got, err := l.Get(want.Name())
	require.NoError(t, err)
	assert.Equal(t, want.Name(), got.Name())
	assert.Equal(t, want.SpaceGroup(), got.SpaceGroup())
	assert.Equal(t, want.Laue(), got.Laue())
	assert.Equal(t, want.Atoms(), got.Atoms())

	wa, wb, wc := want.Cell().Lengths()
	ga, gb, gc := got.Cell().Lengths()
	assert.Equal(t, []float64{wa, wb, wc}, []float64{ga, gb, gc})
	walpha, wbeta, wgamma := want.Cell().Angles()
	galpha, gbeta, ggamma := got.Cell().Angles()
	assert.InDelta(t, walpha, galpha, 1e-12)
	assert.InDelta(t, wbeta, gbeta, 1e-12)
	assert.InDelta(t, wgamma, ggamma, 1e-12)
}

func TestPut_ReplacesExisting(t *testing.T) {
	l := openTestLibrary(t)
	cell, err := crystal.NewCubicCell(3.0)
	require.NoError(t, err)
	first, err := crystal.NewCrystalFromSpaceGroup("Test", cell, []crystal.AtomSite{{AtomicNumber: 26}, {X: 0.5, Y: 0.5, Z: 0.5, AtomicNumber: 26}}, 229)
	require.NoError(t, err)
	second, err := crystal.NewCrystal("Test", cell, []crystal.AtomSite{{AtomicNumber: 13}}, crystal.LaueCubic)
	require.NoError(t, err)

	require.NoError(t, l.Put(first))
	require.NoError(t, l.Put(second))

	got, err := l.Get("Test")
	require.NoError(t, err)
	assert.Equal(t, 0, got.SpaceGroup())
	assert.Equal(t, crystal.LaueCubic, got.Laue())
	assert.Len(t, got.Atoms(), 1)
}

func TestGet_NotFound(t *testing.T) {
	l := openTestLibrary(t)
	_, err := l.Get("Unobtainium")
	assert.ErrorIs(t, err, ErrCrystalNotFound)
}

func TestSeedPresetsAndQueries(t *testing.T) {
	l := openTestLibrary(t)
	n, err := l.SeedPresets()
	require.NoError(t, err)
	assert.Equal(t, len(crystal.Presets()), n)

	names, err := l.List()
	require.NoError(t, err)
	assert.Len(t, names, n)
	assert.IsIncreasing(t, names)

	fcc, err := l.BySpaceGroup(225)
	require.NoError(t, err)
	require.Len(t, fcc, 1)
	assert.Equal(t, "Aluminium", fcc[0].Name())

	none, err := l.BySpaceGroup(1)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = l.BySpaceGroup(231)
	assert.ErrorIs(t, err, crystal.ErrUnknownSpaceGroup)

	// Seeding twice leaves one record per preset.
	_, err = l.SeedPresets()
	require.NoError(t, err)
	names, err = l.List()
	require.NoError(t, err)
	assert.Len(t, names, n)
}

func TestGet_SurfacesBadRecords(t *testing.T) {
	l := openTestLibrary(t)
	_, err := l.db.Exec(`INSERT INTO crystals (name, a, b, c, alpha_deg, beta_deg, gamma_deg, space_group, laue_group, created_at, updated_at)
		VALUES ('BadSG', 3, 3, 3, 90, 90, 90, 400, 11, 0, 0),
		       ('BadLaue', 3, 3, 3, 90, 90, 90, 0, 42, 0, 0),
		       ('Mismatch', 3, 3, 3, 90, 90, 90, 225, 2, 0, 0),
		       ('Flat', 3, 3, 3, 0, 90, 90, 0, 11, 0, 0)`)
	require.NoError(t, err)

	_, err = l.Get("BadSG")
	assert.ErrorIs(t, err, crystal.ErrUnknownSpaceGroup)
	_, err = l.Get("BadLaue")
	assert.ErrorIs(t, err, crystal.ErrUnknownLaueGroup)
	_, err = l.Get("Mismatch")
	assert.Error(t, err)
	_, err = l.Get("Flat")
	assert.ErrorIs(t, err, crystal.ErrDegenerateCell)
}

func TestDelete(t *testing.T) {
	l := openTestLibrary(t)
	require.NoError(t, l.Put(crystal.Silicon()))
	require.NoError(t, l.Delete("Silicon"))

	_, err := l.Get("Silicon")
	assert.ErrorIs(t, err, ErrCrystalNotFound)
	assert.ErrorIs(t, l.Delete("Silicon"), ErrCrystalNotFound)

	var sites int
	require.NoError(t, l.db.QueryRow(`SELECT COUNT(*) FROM crystal_atom_sites`).Scan(&sites))
	assert.Equal(t, 0, sites)
}
