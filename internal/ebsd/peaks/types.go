package peaks

import (
	"fmt"

	"github.com/banshee-data/kikuchi/internal/ebsd/hough"
)

// HoughPeak is one detected band in Hough space.
type HoughPeak struct {
	Theta     float64 `json:"theta"`     // radians
	Rho       float64 `json:"rho"`       // pixels from the image centre
	Intensity float64 `json:"intensity"` // accumulator units
}

func (p HoughPeak) String() string {
	return fmt.Sprintf("θ=%.4f ρ=%.3f I=%.3f", p.Theta, p.Rho, p.Intensity)
}

// Identifier is the peak-extraction capability consumed by the pipeline.
type Identifier interface {
	Identify(mask *hough.Mask, acc *hough.Accumulator) ([]HoughPeak, error)
}

// Positioning selects how a labeled region is reduced to a single peak.
type Positioning int

const (
	// LocalCentroid places the peak at the intensity-weighted centroid of
	// the region's own cells and reports the region maximum as intensity.
	LocalCentroid Positioning = iota + 1
	// CenterOfMass weights every cell of the region's bounding box by its
	// value above the box minimum and reports the region mean as
	// intensity.
	CenterOfMass
)

var positioningNames = map[Positioning]string{
	LocalCentroid: "local_centroid",
	CenterOfMass:  "center_of_mass",
}

// ParsePositioning maps a configuration name onto a Positioning.
func ParsePositioning(name string) (Positioning, error) {
	for p, n := range positioningNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown positioning strategy %q", name)
}

// Valid reports whether p is a known strategy.
func (p Positioning) Valid() bool {
	_, ok := positioningNames[p]
	return ok
}

func (p Positioning) String() string {
	if n, ok := positioningNames[p]; ok {
		return n
	}
	return fmt.Sprintf("Positioning(%d)", int(p))
}
