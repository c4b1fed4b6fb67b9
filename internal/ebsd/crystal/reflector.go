package crystal

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNoReflectors is returned when no plane survives reflector filtering.
var ErrNoReflectors = errors.New("no reflectors above intensity threshold")

const (
	// DefaultMaxIndex bounds |h|, |k| and |l| during enumeration.
	DefaultMaxIndex = 4
	// DefaultMinIntensity is the minimum relative intensity kept.
	DefaultMinIntensity = 0.05
	// absenceFraction marks |F|² below this fraction of the strongest
	// reflection as a systematic absence.
	absenceFraction = 1e-8
)

// ReflectorConfig controls reflector enumeration.
type ReflectorConfig struct {
	MaxIndex     int               // bound on |h|, |k|, |l|
	MinIntensity float64           // relative to the strongest family, in [0, 1]
	Factors      ScatteringFactors // nil means AtomicNumberFactors
}

// DefaultReflectorConfig returns the production enumeration settings.
func DefaultReflectorConfig() ReflectorConfig {
	return ReflectorConfig{
		MaxIndex:     DefaultMaxIndex,
		MinIntensity: DefaultMinIntensity,
		Factors:      AtomicNumberFactors{},
	}
}

// Validate checks the enumeration bounds.
func (c ReflectorConfig) Validate() error {
	if c.MaxIndex < 1 {
		return fmt.Errorf("MaxIndex must be at least 1, got %d", c.MaxIndex)
	}
	if c.MinIntensity < 0 || c.MinIntensity > 1 {
		return fmt.Errorf("MinIntensity must be in [0, 1], got %f", c.MinIntensity)
	}
	if g, ok := c.Factors.(GaussianFactors); ok && (g.B < 0 || math.IsNaN(g.B)) {
		return fmt.Errorf("GaussianFactors B must be non-negative, got %f", g.B)
	}
	return nil
}

// Reflector is a representative plane of one symmetry family together with
// its normal and predicted relative intensity.
type Reflector struct {
	Plane        Plane
	Normal       r3.Vec  // unit, crystal Cartesian frame
	DSpacing     float64 // Å
	Intensity    float64 // |F|² relative to the strongest family
	Multiplicity int     // number of equivalent planes, ± counted separately
}

func (r Reflector) String() string {
	return fmt.Sprintf("%v I=%.3f d=%.4f", r.Plane, r.Intensity, r.DSpacing)
}

type family struct {
	rep Plane
	g   float64 // reciprocal length
	f2  float64
}

// GenerateReflectors enumerates one reflector per symmetry family with
// indices bounded by cfg.MaxIndex. Families are visited by increasing
// reciprocal length; absent and weak families are dropped, and a family
// parallel to one already kept (e.g. (2 2 2) after (1 1 1)) is skipped so
// that each band direction occurs once. The result is sorted by
// descending intensity, ties by ascending plane.
func GenerateReflectors(c *Crystal, cfg ReflectorConfig) ([]Reflector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	factors := cfg.Factors
	if factors == nil {
		factors = AtomicNumberFactors{}
	}

	n := cfg.MaxIndex
	candidates := make([]Plane, 0, (2*n+1)*(2*n+1)*(2*n+1))
	for h := -n; h <= n; h++ {
		for k := -n; k <= n; k++ {
			for l := -n; l <= n; l++ {
				if h == 0 && k == 0 && l == 0 {
					continue
				}
				candidates = append(candidates, Plane{H: h, K: k, L: l})
			}
		}
	}
	length := func(p Plane) float64 { return r3.Norm(c.cell.ReciprocalVector(p)) }
	sort.SliceStable(candidates, func(i, j int) bool {
		gi, gj := length(candidates[i]), length(candidates[j])
		if math.Abs(gi-gj) > 1e-12 {
			return gi < gj
		}
		return candidates[j].Less(candidates[i])
	})

	seen := make(map[Plane]bool)
	var families []family
	maxF2 := 0.0
	for _, p := range candidates {
		rep := c.Representative(p)
		if seen[rep] {
			continue
		}
		seen[rep] = true
		f2 := c.StructureFactor2(rep, factors)
		if f2 > maxF2 {
			maxF2 = f2
		}
		families = append(families, family{rep: rep, g: length(rep), f2: f2})
	}
	if maxF2 == 0 {
		return nil, fmt.Errorf("crystal %q: %w", c.name, ErrNoReflectors)
	}

	threshold := math.Max(cfg.MinIntensity, absenceFraction)
	directions := make(map[Plane]bool)
	var out []Reflector
	for _, f := range families {
		intensity := f.f2 / maxF2
		if intensity < threshold {
			continue
		}
		dir := c.Representative(f.rep.Reduced())
		if directions[dir] {
			continue
		}
		directions[dir] = true
		out = append(out, Reflector{
			Plane:        f.rep,
			Normal:       c.cell.Normal(f.rep),
			DSpacing:     1 / f.g,
			Intensity:    intensity,
			Multiplicity: len(c.Equivalents(f.rep)),
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("crystal %q: %w", c.name, ErrNoReflectors)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Intensity != out[j].Intensity {
			return out[i].Intensity > out[j].Intensity
		}
		return out[i].Plane.Less(out[j].Plane)
	})
	return out, nil
}
