// Package simulate renders synthetic Hough accumulators for a crystal in
// a known orientation. The output feeds tests and the demo command in
// place of a real Hough transform of a detector image.
package simulate

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/kikuchi/internal/config"
	"github.com/banshee-data/kikuchi/internal/ebsd/crystal"
	"github.com/banshee-data/kikuchi/internal/ebsd/detector"
	"github.com/banshee-data/kikuchi/internal/ebsd/hough"
	"github.com/banshee-data/kikuchi/internal/ebsd/peaks"
	"gonum.org/v1/gonum/spatial/r3"
)

// Grid is the Hough grid and the detector image it describes.
type Grid struct {
	ThetaBins, RhoBins      int
	ImageWidth, ImageHeight int
}

// DefaultGrid returns the grid built from the tuning defaults.
func DefaultGrid() Grid { return GridFromTuning(config.EmptyTuningConfig()) }

// GridFromTuning builds a Grid from a loaded TuningConfig.
func GridFromTuning(cfg *config.TuningConfig) Grid {
	return Grid{
		ThetaBins:   cfg.GetThetaBins(),
		RhoBins:     cfg.GetRhoBins(),
		ImageWidth:  cfg.GetImageWidth(),
		ImageHeight: cfg.GetImageHeight(),
	}
}

// Axes returns the theta axis over [0, π) and the rho axis spanning the
// image half-diagonal on both sides of zero.
func (g Grid) Axes() (theta, rho hough.Axis) {
	half := math.Hypot(float64(g.ImageWidth), float64(g.ImageHeight)) / 2
	theta = hough.Axis{Origin: 0, Step: math.Pi / float64(g.ThetaBins)}
	rho = hough.Axis{Origin: -half, Step: 2 * half / float64(g.RhoBins-1)}
	return theta, rho
}

// NewAccumulator allocates an empty accumulator on the grid.
func (g Grid) NewAccumulator() (*hough.Accumulator, error) {
	if g.RhoBins < 2 || g.ThetaBins < 1 || g.ImageWidth < 1 || g.ImageHeight < 1 {
		return nil, fmt.Errorf("invalid grid %+v", g)
	}
	theta, rho := g.Axes()
	return hough.NewAccumulator(g.ThetaBins, g.RhoBins, theta, rho)
}

// visible reports whether the line (θ, ρ) crosses the central fraction of
// the image.
func (g Grid) visible(p peaks.HoughPeak, fraction float64) bool {
	support := math.Abs(float64(g.ImageWidth)/2*math.Cos(p.Theta)) + math.Abs(float64(g.ImageHeight)/2*math.Sin(p.Theta))
	return math.Abs(p.Rho) <= fraction*support
}

// Options shapes the rendered peaks. Distances are in bins.
type Options struct {
	MaxBands      int
	Sigma         float64 // Gaussian width of each peak
	Floor         float64 // peak height of the weakest reflector, strongest is 1
	MinSeparation float64 // closest allowed distance between two peaks
	EdgeMargin    float64 // keep peaks this far from θ = 0 and θ = π
	Visible       float64 // fraction of the image a band must cross
}

// DefaultOptions returns options that keep every rendered band above a
// 0.5 threshold and separated from its neighbours.
func DefaultOptions() Options {
	return Options{
		MaxBands:      8,
		Sigma:         1.5,
		Floor:         0.6,
		MinSeparation: 6,
		EdgeMargin:    4,
		Visible:       0.9,
	}
}

// Band is one rendered band with the plane that produced it.
type Band struct {
	Reflector int
	Plane     crystal.Plane
	Normal    r3.Vec // sample frame
	Peak      peaks.HoughPeak
}

// ErrNoBands is returned when no reflector produces a usable band.
var ErrNoBands = errors.New("no visible bands")

// Pattern renders the bands of tables' crystal in orientation rot as seen
// by geom. Bands are chosen strongest reflector first, then in table
// order, skipping any that would merge with an already chosen band.
func Pattern(tables *crystal.Tables, rot crystal.Rotation, geom detector.Geometry, grid Grid, opts Options) (*hough.Accumulator, []Band, error) {
	acc, err := grid.NewAccumulator()
	if err != nil {
		return nil, nil, err
	}
	if err := geom.Validate(); err != nil {
		return nil, nil, err
	}

	var candidates []Band
	for _, e := range tables.Planes {
		n := rot.Apply(e.Normal)
		p, err := geom.PeakFromNormal(n)
		if errors.Is(err, detector.ErrParallelBand) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		if !grid.visible(p, opts.Visible) {
			continue
		}
		col := acc.Theta.Index(p.Theta)
		if col < opts.EdgeMargin || col > float64(acc.Width)-1-opts.EdgeMargin {
			continue
		}
		p.Intensity = opts.Floor + (1-opts.Floor)*tables.Reflectors[e.Reflector].Intensity
		candidates = append(candidates, Band{Reflector: e.Reflector, Plane: e.Plane, Normal: n, Peak: p})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Peak.Intensity > candidates[j].Peak.Intensity })

	var bands []Band
	for _, c := range candidates {
		if len(bands) == opts.MaxBands {
			break
		}
		if tooClose(acc, c.Peak, bands, opts.MinSeparation) {
			continue
		}
		bands = append(bands, c)
	}
	if len(bands) == 0 {
		return nil, nil, ErrNoBands
	}

	for _, b := range bands {
		render(acc, b.Peak, opts.Sigma)
	}
	return acc, bands, nil
}

func tooClose(acc *hough.Accumulator, p peaks.HoughPeak, chosen []Band, minSep float64) bool {
	for _, b := range chosen {
		dc := acc.Theta.Index(p.Theta) - acc.Theta.Index(b.Peak.Theta)
		dr := acc.Rho.Index(p.Rho) - acc.Rho.Index(b.Peak.Rho)
		if math.Hypot(dc, dr) < minSep {
			return true
		}
	}
	return false
}

// render adds a Gaussian of height p.Intensity centred on p.
func render(acc *hough.Accumulator, p peaks.HoughPeak, sigma float64) {
	c0, r0 := acc.Theta.Index(p.Theta), acc.Rho.Index(p.Rho)
	reach := int(math.Ceil(4 * sigma))
	for row := int(r0) - reach; row <= int(r0)+reach+1; row++ {
		if row < 0 || row >= acc.Height {
			continue
		}
		for col := int(c0) - reach; col <= int(c0)+reach+1; col++ {
			if col < 0 || col >= acc.Width {
				continue
			}
			dc, dr := float64(col)-c0, float64(row)-r0
			acc.Add(col, row, p.Intensity*math.Exp(-(dc*dc+dr*dr)/(2*sigma*sigma)))
		}
	}
}
