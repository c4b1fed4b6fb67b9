package crystal

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDegenerateCell is returned when lattice parameters do not describe a
// cell with positive volume.
var ErrDegenerateCell = errors.New("degenerate unit cell")

// minVolumeFactor is the smallest accepted value of
// 1 - cos²α - cos²β - cos²γ + 2·cosα·cosβ·cosγ.
const minVolumeFactor = 1e-10

// UnitCell holds lattice parameters and the derived direct and reciprocal
// bases in the standard Cartesian setting: a along x, b in the xy plane.
// Lengths are in ångström, angles in radians.
type UnitCell struct {
	a, b, c            float64
	alpha, beta, gamma float64

	direct     [3]r3.Vec // a, b, c in Cartesian coordinates
	reciprocal [3]r3.Vec // a*, b*, c* (no 2π factor)
	volume     float64
}

// NewUnitCell validates the lattice parameters and derives the bases.
func NewUnitCell(a, b, c, alpha, beta, gamma float64) (UnitCell, error) {
	if !(a > 0) || !(b > 0) || !(c > 0) {
		return UnitCell{}, fmt.Errorf("%w: lengths must be positive, got a=%g b=%g c=%g", ErrDegenerateCell, a, b, c)
	}
	for _, angle := range []float64{alpha, beta, gamma} {
		if !(angle > 0) || !(angle < math.Pi) {
			return UnitCell{}, fmt.Errorf("%w: angles must lie in (0, π), got α=%g β=%g γ=%g", ErrDegenerateCell, alpha, beta, gamma)
		}
	}

	ca, cb, cg := math.Cos(alpha), math.Cos(beta), math.Cos(gamma)
	sg := math.Sin(gamma)
	factor := 1 - ca*ca - cb*cb - cg*cg + 2*ca*cb*cg
	if factor < minVolumeFactor {
		return UnitCell{}, fmt.Errorf("%w: cell vectors are coplanar (volume factor %g)", ErrDegenerateCell, factor)
	}

	cell := UnitCell{a: a, b: b, c: c, alpha: alpha, beta: beta, gamma: gamma}
	cx := cb
	cy := (ca - cb*cg) / sg
	cz := math.Sqrt(1 - cx*cx - cy*cy)
	cell.direct = [3]r3.Vec{
		{X: a},
		{X: b * cg, Y: b * sg},
		{X: c * cx, Y: c * cy, Z: c * cz},
	}
	cell.volume = a * b * c * math.Sqrt(factor)

	// Rows of A⁻¹ are the reciprocal basis vectors when A holds the
	// direct basis as columns.
	A := mat.NewDense(3, 3, nil)
	for j, v := range cell.direct {
		A.Set(0, j, v.X)
		A.Set(1, j, v.Y)
		A.Set(2, j, v.Z)
	}
	var inv mat.Dense
	if err := inv.Inverse(A); err != nil {
		return UnitCell{}, fmt.Errorf("%w: %v", ErrDegenerateCell, err)
	}
	for i := range cell.reciprocal {
		cell.reciprocal[i] = r3.Vec{X: inv.At(i, 0), Y: inv.At(i, 1), Z: inv.At(i, 2)}
	}
	return cell, nil
}

// NewUnitCellDegrees is NewUnitCell with angles given in degrees.
func NewUnitCellDegrees(a, b, c, alpha, beta, gamma float64) (UnitCell, error) {
	rad := math.Pi / 180
	return NewUnitCell(a, b, c, alpha*rad, beta*rad, gamma*rad)
}

// NewCubicCell returns a cubic cell with edge a.
func NewCubicCell(a float64) (UnitCell, error) {
	return NewUnitCell(a, a, a, math.Pi/2, math.Pi/2, math.Pi/2)
}

// NewHexagonalCell returns a hexagonal cell (γ = 120°).
func NewHexagonalCell(a, c float64) (UnitCell, error) {
	return NewUnitCell(a, a, c, math.Pi/2, math.Pi/2, 2*math.Pi/3)
}

// Lengths returns a, b and c in ångström.
func (u UnitCell) Lengths() (a, b, c float64) { return u.a, u.b, u.c }

// Angles returns α, β and γ in radians.
func (u UnitCell) Angles() (alpha, beta, gamma float64) { return u.alpha, u.beta, u.gamma }

// Volume returns the cell volume in Å³.
func (u UnitCell) Volume() float64 { return u.volume }

// Metric returns the direct metric tensor G = AᵀA.
func (u UnitCell) Metric() *mat.Dense {
	g := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			g.Set(i, j, r3.Dot(u.direct[i], u.direct[j]))
		}
	}
	return g
}

// ReciprocalVector returns h·a* + k·b* + l·c* in Cartesian coordinates
// (Å⁻¹, without the 2π factor).
func (u UnitCell) ReciprocalVector(p Plane) r3.Vec {
	v := r3.Scale(float64(p.H), u.reciprocal[0])
	v = r3.Add(v, r3.Scale(float64(p.K), u.reciprocal[1]))
	return r3.Add(v, r3.Scale(float64(p.L), u.reciprocal[2]))
}

// Normal returns the unit plane normal of p in the Cartesian frame.
func (u UnitCell) Normal(p Plane) r3.Vec {
	return r3.Unit(u.ReciprocalVector(p))
}

// DSpacing returns the interplanar spacing of p in ångström.
func (u UnitCell) DSpacing(p Plane) float64 {
	return 1 / r3.Norm(u.ReciprocalVector(p))
}

// reciprocalInverse returns B⁻¹ for B holding a*, b*, c* as columns. B is
// the inverse transpose of the direct basis matrix, so B⁻¹ has the direct
// vectors as rows and needs no numeric inversion.
func (u UnitCell) reciprocalInverse() *mat.Dense {
	inv := mat.NewDense(3, 3, nil)
	for i, v := range u.direct {
		inv.Set(i, 0, v.X)
		inv.Set(i, 1, v.Y)
		inv.Set(i, 2, v.Z)
	}
	return inv
}

// cartesianOp converts an operator acting on Miller indices into the
// equivalent Cartesian rotation B·M·B⁻¹, where B holds a*, b*, c* as
// columns.
func (u UnitCell) cartesianOp(op symOp) Rotation {
	B := mat.NewDense(3, 3, nil)
	for j, v := range u.reciprocal {
		B.Set(0, j, v.X)
		B.Set(1, j, v.Y)
		B.Set(2, j, v.Z)
	}
	M := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			M.Set(i, j, float64(op[i][j]))
		}
	}
	var tmp, out mat.Dense
	tmp.Mul(B, M)
	out.Mul(&tmp, u.reciprocalInverse())

	var r Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = out.At(i, j)
		}
	}
	return r
}
