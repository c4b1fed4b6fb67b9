// Package detector converts between Hough peaks and crystallographic
// plane normals for a calibrated phosphor-screen geometry.
//
// Hough convention: a band is the line x·cosθ + y·sinθ = ρ in image
// pixels, x to the right, y down, origin at the image centre, θ in
// [0, π). The sample frame has its origin at the beam–sample interaction
// point with the screen at z = DetectorDistance; the pattern centre is
// the foot of the perpendicular from that point onto the screen.
package detector

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/kikuchi/internal/ebsd/peaks"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrInvalidGeometry is returned for a non-positive or non-finite
	// detector distance or pattern centre.
	ErrInvalidGeometry = errors.New("invalid detector geometry")
	// ErrParallelBand is returned for a plane parallel to the screen,
	// which produces no band.
	ErrParallelBand = errors.New("plane is parallel to the detector")
)

// parallelEpsilon is the smallest in-screen normal component accepted.
const parallelEpsilon = 1e-12

// Geometry is the calibration of the detector relative to the sample.
type Geometry struct {
	PatternCenterX   float64 `json:"pattern_center_x"`  // pixels from the image centre
	PatternCenterY   float64 `json:"pattern_center_y"`  // pixels from the image centre
	DetectorDistance float64 `json:"detector_distance"` // pixels
}

// Validate checks that the geometry is usable.
func (g Geometry) Validate() error {
	if !(g.DetectorDistance > 0) || math.IsInf(g.DetectorDistance, 0) {
		return fmt.Errorf("%w: detector distance %g", ErrInvalidGeometry, g.DetectorDistance)
	}
	if math.IsNaN(g.PatternCenterX) || math.IsNaN(g.PatternCenterY) ||
		math.IsInf(g.PatternCenterX, 0) || math.IsInf(g.PatternCenterY, 0) {
		return fmt.Errorf("%w: pattern centre (%g, %g)", ErrInvalidGeometry, g.PatternCenterX, g.PatternCenterY)
	}
	return nil
}

// NormalFromPeak returns the unit normal, in the sample frame, of the plane that
// contains the source point and the band of p. The sign is arbitrary.
func (g Geometry) NormalFromPeak(p peaks.HoughPeak) (r3.Vec, error) {
	if err := g.Validate(); err != nil {
		return r3.Vec{}, err
	}
	c, s := math.Cos(p.Theta), math.Sin(p.Theta)
	n := r3.Vec{
		X: -g.DetectorDistance * c,
		Y: -g.DetectorDistance * s,
		Z: p.Rho - g.PatternCenterX*c - g.PatternCenterY*s,
	}
	return r3.Unit(n), nil
}

// Normals converts every peak, preserving order.
func (g Geometry) Normals(ps []peaks.HoughPeak) ([]r3.Vec, error) {
	out := make([]r3.Vec, len(ps))
	for i, p := range ps {
		n, err := g.NormalFromPeak(p)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// PeakFromNormal returns the (θ, ρ) of the band produced by the plane with normal n.
// Intensity is left zero. n and -n give the same band.
func (g Geometry) PeakFromNormal(n r3.Vec) (peaks.HoughPeak, error) {
	if err := g.Validate(); err != nil {
		return peaks.HoughPeak{}, err
	}
	inScreen := math.Hypot(n.X, n.Y)
	if inScreen < parallelEpsilon*r3.Norm(n) || inScreen == 0 {
		return peaks.HoughPeak{}, ErrParallelBand
	}
	theta := math.Atan2(-n.Y, -n.X)
	if theta < 0 {
		theta += math.Pi
		n = r3.Scale(-1, n)
	}
	if theta >= math.Pi {
		theta -= math.Pi
		n = r3.Scale(-1, n)
	}
	k := inScreen / g.DetectorDistance
	c, s := math.Cos(theta), math.Sin(theta)
	rho := n.Z/k + g.PatternCenterX*c + g.PatternCenterY*s
	return peaks.HoughPeak{Theta: theta, Rho: rho}, nil
}
