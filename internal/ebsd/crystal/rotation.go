package crystal

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Rotation is a 3×3 rotation matrix, row-major. An orientation maps
// crystal Cartesian vectors into the sample frame: v_sample = R·v_crystal.
type Rotation [3][3]float64

// IdentityRotation is the rotation that leaves every vector unchanged.
var IdentityRotation = Rotation{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// Apply returns R·v.
func (r Rotation) Apply(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: r[0][0]*v.X + r[0][1]*v.Y + r[0][2]*v.Z,
		Y: r[1][0]*v.X + r[1][1]*v.Y + r[1][2]*v.Z,
		Z: r[2][0]*v.X + r[2][1]*v.Y + r[2][2]*v.Z,
	}
}

// Transpose returns Rᵀ, which is also R⁻¹.
func (r Rotation) Transpose() Rotation {
	var t Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[i][j] = r[j][i]
		}
	}
	return t
}

// Mul returns R·S.
func (r Rotation) Mul(s Rotation) Rotation {
	var out Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out[i][j] += r[i][k] * s[k][j]
			}
		}
	}
	return out
}

// Angle returns the rotation angle in radians, in [0, π].
func (r Rotation) Angle() float64 {
	c := (r[0][0] + r[1][1] + r[2][2] - 1) / 2
	return math.Acos(clamp(c, -1, 1))
}

// Euler returns the Bunge (ZXZ) Euler angles φ1, Φ, φ2 in radians of the
// crystal-to-sample rotation.
func (r Rotation) Euler() (phi1, Phi, phi2 float64) {
	// Bunge matrices are sample-to-crystal, i.e. the transpose of r.
	g := r.Transpose()
	Phi = math.Acos(clamp(g[2][2], -1, 1))
	if math.Abs(math.Sin(Phi)) < 1e-9 {
		phi1 = math.Atan2(g[0][1], g[0][0])
		phi2 = 0
	} else {
		phi1 = math.Atan2(g[2][0], -g[2][1])
		phi2 = math.Atan2(g[0][2], g[1][2])
	}
	return wrapTwoPi(phi1), Phi, wrapTwoPi(phi2)
}

// RotationFromEuler builds the crystal-to-sample rotation for Bunge (ZXZ)
// Euler angles in radians.
func RotationFromEuler(phi1, Phi, phi2 float64) Rotation {
	c1, s1 := math.Cos(phi1), math.Sin(phi1)
	c, s := math.Cos(Phi), math.Sin(Phi)
	c2, s2 := math.Cos(phi2), math.Sin(phi2)
	g := Rotation{
		{c1*c2 - s1*s2*c, s1*c2 + c1*s2*c, s2 * s},
		{-c1*s2 - s1*c2*c, -s1*s2 + c1*c2*c, c2 * s},
		{s1 * s, -c1 * s, c},
	}
	return g.Transpose()
}

// Misorientation returns the smallest rotation angle between orientations
// r and s once the crystal symmetry ops are taken into account.
func Misorientation(r, s Rotation, ops []Rotation) float64 {
	delta := r.Transpose().Mul(s)
	best := delta.Angle()
	for _, op := range ops {
		if a := delta.Mul(op).Angle(); a < best {
			best = a
		}
	}
	return best
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func wrapTwoPi(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
