package index

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/kikuchi/internal/config"
	"github.com/banshee-data/kikuchi/internal/units"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid index config")

// Config controls the matcher. Angles are in radians.
type Config struct {
	// AngularTolerance bounds both the observed/theoretical interplanar
	// angle agreement and the deviation of a band from its assigned plane.
	AngularTolerance float64
	// MinMatchCount is the minimum number of consistent pairs a Solution
	// needs to be reported.
	MinMatchCount int
	// DuplicateMisorientation is the cell size, in rotation-vector space
	// after reduction by crystal symmetry, within which hypotheses merge
	// into one Solution. Zero disables merging.
	DuplicateMisorientation float64
}

// DefaultConfig returns the built-in matcher defaults.
func DefaultConfig() Config {
	return Config{
		AngularTolerance:        units.ToRadians(2),
		MinMatchCount:           3,
		DuplicateMisorientation: units.ToRadians(3),
	}
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		AngularTolerance:        units.ToRadians(cfg.GetAngularToleranceDeg()),
		MinMatchCount:           cfg.GetMinMatchCount(),
		DuplicateMisorientation: units.ToRadians(cfg.GetDuplicateMisorientationDeg()),
	}
}

// Validate checks the ranges of every field.
func (c Config) Validate() error {
	if !(c.AngularTolerance > 0) || c.AngularTolerance >= math.Pi/2 {
		return fmt.Errorf("%w: angular tolerance %g rad", ErrInvalidConfig, c.AngularTolerance)
	}
	if c.MinMatchCount < 1 {
		return fmt.Errorf("%w: min match count %d", ErrInvalidConfig, c.MinMatchCount)
	}
	if c.DuplicateMisorientation < 0 || math.IsNaN(c.DuplicateMisorientation) {
		return fmt.Errorf("%w: duplicate misorientation %g rad", ErrInvalidConfig, c.DuplicateMisorientation)
	}
	return nil
}

// CosineTolerance converts AngularTolerance to a bound on the difference
// of direction cosines. Two angles within AngularTolerance of each other
// always have cosines within this bound.
func (c Config) CosineTolerance() float64 {
	return 2 * math.Sin(c.AngularTolerance/2)
}
