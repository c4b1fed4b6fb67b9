package crystal

import "math"

// AtomSite is one atom of the basis in fractional coordinates.
type AtomSite struct {
	X, Y, Z      float64 // fractional position
	AtomicNumber int
	Occupancy    float64 // 0 is read as fully occupied
}

func (a AtomSite) occupancy() float64 {
	if a.Occupancy <= 0 {
		return 1
	}
	return a.Occupancy
}

// ScatteringFactors gives the atomic scattering amplitude of element z at
// scattering parameter s = sinθ/λ = 1/(2d) in Å⁻¹.
type ScatteringFactors interface {
	Factor(z int, s float64) float64
}

// AtomicNumberFactors scatters in proportion to Z with no angular
// fall-off. It is enough to reproduce systematic absences.
type AtomicNumberFactors struct{}

// Factor implements ScatteringFactors.
func (AtomicNumberFactors) Factor(z int, _ float64) float64 { return float64(z) }

// GaussianFactors applies a Debye–Waller style fall-off Z·exp(-B·s²).
type GaussianFactors struct {
	B float64 // Å²
}

// Factor implements ScatteringFactors.
func (g GaussianFactors) Factor(z int, s float64) float64 {
	return float64(z) * math.Exp(-g.B*s*s)
}

var (
	_ ScatteringFactors = AtomicNumberFactors{}
	_ ScatteringFactors = GaussianFactors{}
)

// structureFactor2 returns |F(hkl)|² for the atom basis.
func structureFactor2(atoms []AtomSite, p Plane, s float64, factors ScatteringFactors) float64 {
	var re, im float64
	for _, a := range atoms {
		f := factors.Factor(a.AtomicNumber, s) * a.occupancy()
		phase := 2 * math.Pi * (float64(p.H)*a.X + float64(p.K)*a.Y + float64(p.L)*a.Z)
		re += f * math.Cos(phase)
		im += f * math.Sin(phase)
	}
	return re*re + im*im
}
