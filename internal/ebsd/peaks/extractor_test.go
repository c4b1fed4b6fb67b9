package peaks

import (
	"errors"
	"testing"

	"github.com/banshee-data/kikuchi/internal/ebsd/hough"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staggeredFixture is a 3-column (theta) × 4-row (rho) grid whose rho axis
// reads 0.07, 0.11, 0.15, 0.19 and whose cells hold their row index. The
// staggered mask leaves three isolated single-cell regions. This is the
// reading of the "4×3 checkerboard, tiled {7,11,15,19}" centroid scenario
// that reproduces its three expected peaks; see DESIGN.md, Open Question
// decision 2.
func staggeredFixture(t *testing.T) (*hough.Mask, *hough.Accumulator) {
	t.Helper()
	mask, err := hough.MaskFromInts(3, 4, []int{
		1, 0, 0,
		0, 1, 0,
		1, 0, 0,
		0, 0, 0,
	})
	require.NoError(t, err)

	acc, err := hough.NewAccumulator(3, 4, hough.Axis{Origin: 0, Step: 1}, hough.Axis{Origin: 0.07, Step: 0.04})
	require.NoError(t, err)
	for row := 0; row < 4; row++ {
		for col := 0; col < 3; col++ {
			acc.Set(col, row, float64(row))
		}
	}
	return mask, acc
}

func TestIdentify_LocalCentroidSingleCells(t *testing.T) {
	mask, acc := staggeredFixture(t)
	got, err := NewExtractor(LocalCentroid, hough.Connect4).Identify(mask, acc)
	require.NoError(t, err)

	want := []HoughPeak{
		{Theta: 0.0, Rho: 0.07, Intensity: 0.0},
		{Theta: 1.0, Rho: 0.11, Intensity: 1.0},
		{Theta: 0.0, Rho: 0.15, Intensity: 2.0},
	}
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i].Theta, got[i].Theta, 1e-6, "peak %d theta", i)
		assert.InDelta(t, want[i].Rho, got[i].Rho, 1e-6, "peak %d rho", i)
		assert.InDelta(t, want[i].Intensity, got[i].Intensity, 1e-6, "peak %d intensity", i)
	}
}

func TestIdentify_Deterministic(t *testing.T) {
	mask, acc := staggeredFixture(t)
	e := NewExtractor(LocalCentroid, hough.Connect4)
	first, err := e.Identify(mask, acc)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := e.Identify(mask, acc)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestIdentify_WeightedCentroid(t *testing.T) {
	// One region spanning three columns; the right-hand cell dominates.
	mask, err := hough.MaskFromInts(4, 2, []int{
		0, 1, 1, 1,
		0, 0, 0, 0,
	})
	require.NoError(t, err)
	acc, err := hough.NewAccumulator(4, 2, hough.Axis{Origin: 0.1, Step: 0.5}, hough.Axis{Origin: -2, Step: 2})
	require.NoError(t, err)
	copy(acc.Values, []float64{
		9, 1, 1, 2,
		0, 0, 0, 0,
	})

	local, err := NewExtractor(LocalCentroid, hough.Connect8).Identify(mask, acc)
	require.NoError(t, err)
	require.Len(t, local, 1)
	// centroid col = (1·1 + 2·1 + 3·2) / 4 = 2.25
	assert.InDelta(t, 0.1+2.25*0.5, local[0].Theta, 1e-12)
	assert.InDelta(t, -2.0, local[0].Rho, 1e-12)
	assert.Equal(t, 2.0, local[0].Intensity, "intensity is the region maximum, not the sum")

	com, err := NewExtractor(CenterOfMass, hough.Connect8).Identify(mask, acc)
	require.NoError(t, err)
	require.Len(t, com, 1)
	// Bounding box cols 1..3, floor 1: only col 3 carries weight.
	assert.InDelta(t, 0.1+3*0.5, com[0].Theta, 1e-12)
	assert.InDelta(t, 4.0/3, com[0].Intensity, 1e-12, "intensity is the region mean")
}

func TestIdentify_ZeroWeightRegionUsesGeometry(t *testing.T) {
	mask, err := hough.MaskFromInts(2, 1, []int{1, 1})
	require.NoError(t, err)
	acc, err := hough.NewAccumulator(2, 1, hough.Axis{Step: 1}, hough.Axis{Step: 1})
	require.NoError(t, err)

	for _, p := range []Positioning{LocalCentroid, CenterOfMass} {
		got, err := NewExtractor(p, hough.Connect4).Identify(mask, acc)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.InDelta(t, 0.5, got[0].Theta, 1e-12, p.String())
	}
}

func TestIdentify_EmptyAndMismatched(t *testing.T) {
	acc, err := hough.NewAccumulator(3, 3, hough.Axis{Step: 1}, hough.Axis{Step: 1})
	require.NoError(t, err)

	got, err := NewDefaultExtractor().Identify(hough.NewMask(3, 3), acc)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err = NewDefaultExtractor().Identify(hough.NewMask(2, 3), acc)
	assert.True(t, errors.Is(err, hough.ErrShapeMismatch))

	_, err = (&Extractor{Positioning: Positioning(9)}).Identify(hough.NewMask(3, 3), acc)
	assert.Error(t, err)
}

func TestParsePositioning(t *testing.T) {
	for _, p := range []Positioning{LocalCentroid, CenterOfMass} {
		got, err := ParsePositioning(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePositioning("brightest")
	assert.Error(t, err)
	assert.False(t, Positioning(0).Valid())
}

// scaledLabeler renumbers the default labels sparsely (id × step).
type scaledLabeler struct {
	step int
}

func (s scaledLabeler) Label(mask *hough.Mask) *hough.Labels {
	l := hough.NewConnectedComponents(hough.Connect4).Label(mask)
	for i, id := range l.IDs {
		l.IDs[i] = id * s.step
	}
	return l
}

type nilLabeler struct{}

func (nilLabeler) Label(*hough.Mask) *hough.Labels { return nil }

type negativeLabeler struct{}

func (negativeLabeler) Label(mask *hough.Mask) *hough.Labels {
	l := hough.NewConnectedComponents(hough.Connect4).Label(mask)
	l.IDs[0] = -1
	return l
}

func TestIdentify_SparseLabelIDs(t *testing.T) {
	mask, acc := staggeredFixture(t)
	want, err := NewExtractor(LocalCentroid, hough.Connect4).Identify(mask, acc)
	require.NoError(t, err)

	e := &Extractor{Labeler: scaledLabeler{step: 10}, Positioning: LocalCentroid}
	got, err := e.Identify(mask, acc)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestIdentify_RejectsBadLabels(t *testing.T) {
	mask, acc := staggeredFixture(t)

	_, err := (&Extractor{Labeler: nilLabeler{}, Positioning: LocalCentroid}).Identify(mask, acc)
	assert.True(t, errors.Is(err, ErrInvalidLabels), "nil labels: got %v", err)

	_, err = (&Extractor{Labeler: negativeLabeler{}, Positioning: LocalCentroid}).Identify(mask, acc)
	assert.True(t, errors.Is(err, ErrInvalidLabels), "negative id: got %v", err)
}
