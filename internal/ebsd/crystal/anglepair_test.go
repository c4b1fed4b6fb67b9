package crystal

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestInterplanarAnglePair_Silicon111_200(t *testing.T) {
	si := Silicon()
	pair, err := NewInterplanarAnglePair(si, Plane{H: 2}, Plane{H: 1, K: 1, L: 1})
	require.NoError(t, err)

	assert.Equal(t, Plane{H: 1, K: 1, L: 1}, pair.Plane0, "pair is stored in ascending plane order")
	assert.Equal(t, Plane{H: 2}, pair.Plane1)
	assert.InDelta(t, 0.577, pair.DirectionCosine, 1e-3)

	s3 := 1 / math.Sqrt(3)
	assertVec(t, r3.Vec{X: s3, Y: s3, Z: s3}, pair.Normal0)
	assertVec(t, r3.Vec{X: 1}, pair.Normal1)

	swapped, err := NewInterplanarAnglePair(si, Plane{H: 1, K: 1, L: 1}, Plane{H: 2})
	require.NoError(t, err)
	assert.Equal(t, pair, swapped)

	_, err = NewInterplanarAnglePair(si, Plane{}, Plane{H: 1})
	assert.ErrorIs(t, err, ErrZeroPlane)
}

func TestGenerateReflectors_Silicon(t *testing.T) {
	si := Silicon()
	refl, err := GenerateReflectors(si, DefaultReflectorConfig())
	require.NoError(t, err)
	require.NotEmpty(t, refl)

	byPlane := make(map[Plane]Reflector)
	for _, r := range refl {
		byPlane[r.Plane] = r
	}

	// Diamond-cubic extinctions: (2 0 0) and (2 2 2) are forbidden.
	_, ok := byPlane[si.Representative(Plane{H: 2})]
	assert.False(t, ok, "(2 0 0) must be absent")
	_, ok = byPlane[si.Representative(Plane{H: 2, K: 2, L: 2})]
	assert.False(t, ok, "(2 2 2) must be absent")

	// The [100] direction is still represented, through (4 0 0).
	r400, ok := byPlane[Plane{H: 4}]
	require.True(t, ok, "(4 0 0) must be present")
	assert.InDelta(t, 1.0, r400.Intensity, 1e-9)
	assert.Equal(t, 6, r400.Multiplicity)

	r111, ok := byPlane[Plane{H: 1, K: 1, L: 1}]
	require.True(t, ok)
	assert.InDelta(t, 0.5, r111.Intensity, 1e-9)
	assert.Equal(t, 8, r111.Multiplicity)

	assert.InDelta(t, 1.0, refl[0].Intensity, 1e-12, "strongest reflector first")
	for i := 1; i < len(refl); i++ {
		assert.GreaterOrEqual(t, refl[i-1].Intensity, refl[i].Intensity)
	}

	// Each band direction appears once.
	dirs := make(map[Plane]bool)
	for _, r := range refl {
		d := si.Representative(r.Plane.Reduced())
		assert.False(t, dirs[d], "direction %v repeated", d)
		dirs[d] = true
	}
}

func TestGenerateReflectors_ConfigErrors(t *testing.T) {
	si := Silicon()
	_, err := GenerateReflectors(si, ReflectorConfig{MaxIndex: 0})
	assert.Error(t, err)
	_, err = GenerateReflectors(si, ReflectorConfig{MaxIndex: 2, MinIntensity: 2})
	assert.Error(t, err)

	cell, err := NewCubicCell(3)
	require.NoError(t, err)
	empty, err := NewCrystal("empty", cell, nil, LaueCubic)
	require.NoError(t, err)
	_, err = GenerateReflectors(empty, DefaultReflectorConfig())
	assert.ErrorIs(t, err, ErrNoReflectors)
}

func TestBuildTables_Deterministic(t *testing.T) {
	first, err := BuildTables(Silicon(), DefaultReflectorConfig())
	require.NoError(t, err)
	second, err := BuildTables(Silicon(), DefaultReflectorConfig())
	require.NoError(t, err)

	if diff := cmp.Diff(first.Reflectors, second.Reflectors); diff != "" {
		t.Errorf("reflectors differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Pairs, second.Pairs); diff != "" {
		t.Errorf("pairs differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Planes, second.Planes); diff != "" {
		t.Errorf("planes differ (-first +second):\n%s", diff)
	}
}

func TestBuildTables_PairInvariants(t *testing.T) {
	for _, c := range []*Crystal{Silicon(), IronAlpha(), Magnesium()} {
		tables, err := BuildTables(c, DefaultReflectorConfig())
		require.NoError(t, err, c.Name())
		require.NotEmpty(t, tables.Pairs, c.Name())

		for i, p := range tables.Pairs {
			assert.GreaterOrEqual(t, p.DirectionCosine, 0.0)
			assert.Less(t, p.DirectionCosine, 1.0)
			assert.LessOrEqual(t, p.Reflector0, p.Reflector1)
			assert.InDelta(t, r3.Dot(p.Normal0, p.Normal1), p.DirectionCosine, 1e-12)
			if i > 0 {
				assert.LessOrEqual(t, tables.Pairs[i-1].DirectionCosine, p.DirectionCosine)
			}
		}
	}
}

func TestTables_PairsWithin(t *testing.T) {
	tables, err := BuildTables(Silicon(), DefaultReflectorConfig())
	require.NoError(t, err)

	// (1 1 1) against (2 2 0): cos = 4 / (√3·√8).
	want := 4 / (math.Sqrt(3) * math.Sqrt(8))
	const tol = 1e-4
	found := false
	for _, p := range tables.PairsWithin(want, tol) {
		assert.InDelta(t, want, p.DirectionCosine, tol)
		r0 := tables.Reflectors[p.Reflector0].Plane
		r1 := tables.Reflectors[p.Reflector1].Plane
		if (r0 == Plane{H: 1, K: 1, L: 1} && r1 == Plane{H: 2, K: 2}) || (r1 == Plane{H: 1, K: 1, L: 1} && r0 == Plane{H: 2, K: 2}) {
			found = true
		}
	}
	assert.True(t, found, "expected a (1 1 1)/(2 2 0) pair near cos %f", want)

	assert.Empty(t, tables.PairsWithin(2, tol))
}

func assertVec(t *testing.T, want, got r3.Vec) {
	t.Helper()
	if r3.Norm(r3.Sub(want, got)) > 1e-9 {
		t.Errorf("vector = %v, want %v", got, want)
	}
}

func TestGenerateReflectors_GaussianFalloff(t *testing.T) {
	si := Silicon()
	byPlane := func(cfg ReflectorConfig) map[Plane]Reflector {
		t.Helper()
		refl, err := GenerateReflectors(si, cfg)
		require.NoError(t, err)
		m := make(map[Plane]Reflector, len(refl))
		for _, r := range refl {
			m[r.Plane] = r
		}
		return m
	}

	flat := byPlane(DefaultReflectorConfig())
	cfg := DefaultReflectorConfig()
	cfg.Factors = GaussianFactors{B: 0.5}
	damped := byPlane(cfg)

	p111, p400 := Plane{H: 1, K: 1, L: 1}, Plane{H: 4}
	require.Contains(t, damped, p111)
	require.Contains(t, damped, p400)

	// Higher-order reflections lose intensity relative to low-order ones.
	flatRatio := flat[p400].Intensity / flat[p111].Intensity
	dampedRatio := damped[p400].Intensity / damped[p111].Intensity
	assert.Less(t, dampedRatio, flatRatio)

	// exp(-2B·s²) scaling of |F|², s = 1/(2d).
	s111 := 1 / (2 * damped[p111].DSpacing)
	s400 := 1 / (2 * damped[p400].DSpacing)
	want := flatRatio * math.Exp(-2*0.5*(s400*s400-s111*s111))
	assert.InDelta(t, want, dampedRatio, 1e-9)

	// Systematic absences do not depend on the fall-off.
	for _, p := range []Plane{{H: 2}, {H: 2, K: 2, L: 2}} {
		_, ok := damped[si.Representative(p)]
		assert.False(t, ok, "%v must stay absent", p)
	}
}

func TestReflectorConfig_RejectsNegativeB(t *testing.T) {
	cfg := DefaultReflectorConfig()
	cfg.Factors = GaussianFactors{B: -1}
	assert.Error(t, cfg.Validate())
}
