package peaks

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/kikuchi/internal/ebsd/hough"
)

// ErrInvalidLabels is returned when a labeler produces nil labels or a
// negative region id.
var ErrInvalidLabels = errors.New("invalid region labels")

// Extractor labels the mask and reduces each region to one HoughPeak.
type Extractor struct {
	Labeler     hough.Labeler
	Positioning Positioning
}

// NewExtractor returns an extractor using the default flood-fill labeler.
func NewExtractor(p Positioning, conn hough.Connectivity) *Extractor {
	return &Extractor{Labeler: hough.NewConnectedComponents(conn), Positioning: p}
}

// NewDefaultExtractor returns a local-centroid, 8-connected extractor.
func NewDefaultExtractor() *Extractor {
	return NewExtractor(LocalCentroid, hough.Connect8)
}

// region accumulates per-label statistics in a single pass over the grid.
type region struct {
	count       int
	sumW, sumWc float64
	sumWr       float64
	sumC, sumR  float64
	sum, max    float64
	minC, maxC  int
	minR, maxR  int
}

// Identify implements Identifier. Peaks are returned in ascending label
// order; an empty mask yields no peaks.
func (e *Extractor) Identify(mask *hough.Mask, acc *hough.Accumulator) ([]HoughPeak, error) {
	if err := mask.CheckShape(acc); err != nil {
		return nil, err
	}
	if !e.Positioning.Valid() {
		return nil, fmt.Errorf("identify: %v", e.Positioning)
	}
	labeler := e.Labeler
	if labeler == nil {
		labeler = hough.NewConnectedComponents(hough.Connect8)
	}
	labels := labeler.Label(mask)
	if labels == nil {
		return nil, fmt.Errorf("%w: labeler returned nil", ErrInvalidLabels)
	}
	if err := labels.CheckShape(mask); err != nil {
		return nil, err
	}

	// Labelers only promise positive ids in scan order, not 1..Count.
	index := make(map[int]int)
	var ids []int
	var regions []region
	for row := 0; row < acc.Height; row++ {
		for col := 0; col < acc.Width; col++ {
			id := labels.At(col, row)
			if id < 0 {
				return nil, fmt.Errorf("%w: id %d at (%d,%d)", ErrInvalidLabels, id, col, row)
			}
			if id == 0 {
				continue
			}
			k, ok := index[id]
			if !ok {
				k = len(regions)
				index[id] = k
				ids = append(ids, id)
				regions = append(regions, region{max: math.Inf(-1), minC: math.MaxInt, minR: math.MaxInt, maxC: -1, maxR: -1})
			}
			v := acc.At(col, row)
			r := &regions[k]
			r.count++
			r.sum += v
			r.sumC += float64(col)
			r.sumR += float64(row)
			if v > 0 {
				r.sumW += v
				r.sumWc += v * float64(col)
				r.sumWr += v * float64(row)
			}
			if v > r.max {
				r.max = v
			}
			r.minC, r.maxC = min(r.minC, col), max(r.maxC, col)
			r.minR, r.maxR = min(r.minR, row), max(r.maxR, row)
		}
	}
	sort.Ints(ids)

	out := make([]HoughPeak, 0, len(ids))
	for _, id := range ids {
		r := regions[index[id]]
		var col, row, intensity float64
		switch e.Positioning {
		case LocalCentroid:
			col, row = r.localCentroid()
			intensity = r.max
		case CenterOfMass:
			col, row = r.centerOfMass(acc)
			intensity = r.sum / float64(r.count)
		}
		out = append(out, HoughPeak{
			Theta:     acc.Theta.At(col),
			Rho:       acc.Rho.At(row),
			Intensity: intensity,
		})
	}
	return out, nil
}

// localCentroid weights the region's own cells by their positive values,
// falling back to the plain cell average when no value is positive.
func (r region) localCentroid() (col, row float64) {
	if r.sumW > 0 {
		return r.sumWc / r.sumW, r.sumWr / r.sumW
	}
	n := float64(r.count)
	return r.sumC / n, r.sumR / n
}

// centerOfMass weights every cell of the bounding box by its value above
// the box minimum.
func (r region) centerOfMass(acc *hough.Accumulator) (col, row float64) {
	floor := math.Inf(1)
	for rr := r.minR; rr <= r.maxR; rr++ {
		for cc := r.minC; cc <= r.maxC; cc++ {
			floor = math.Min(floor, acc.At(cc, rr))
		}
	}
	var sw, swc, swr float64
	for rr := r.minR; rr <= r.maxR; rr++ {
		for cc := r.minC; cc <= r.maxC; cc++ {
			w := acc.At(cc, rr) - floor
			sw += w
			swc += w * float64(cc)
			swr += w * float64(rr)
		}
	}
	if sw > 0 {
		return swc / sw, swr / sw
	}
	return float64(r.minC+r.maxC) / 2, float64(r.minR+r.maxR) / 2
}

var _ Identifier = (*Extractor)(nil)
