package crystal

import (
	"errors"
	"fmt"
)

// ErrZeroPlane is returned for the Miller-index triple (0 0 0).
var ErrZeroPlane = errors.New("miller indices must not all be zero")

// Plane is a lattice plane given by its Miller indices.
type Plane struct {
	H, K, L int
}

// NewPlane returns the plane (h k l), rejecting the zero triple.
func NewPlane(h, k, l int) (Plane, error) {
	p := Plane{H: h, K: k, L: l}
	if p.IsZero() {
		return Plane{}, ErrZeroPlane
	}
	return p, nil
}

// IsZero reports whether all three indices are zero.
func (p Plane) IsZero() bool { return p.H == 0 && p.K == 0 && p.L == 0 }

// Neg returns (-h -k -l).
func (p Plane) Neg() Plane { return Plane{H: -p.H, K: -p.K, L: -p.L} }

// Less orders planes lexicographically by (h, k, l).
func (p Plane) Less(q Plane) bool {
	if p.H != q.H {
		return p.H < q.H
	}
	if p.K != q.K {
		return p.K < q.K
	}
	return p.L < q.L
}

// Reduced divides the indices by their greatest common divisor, so that
// (2 2 2) and (1 1 1) share the reduced form (1 1 1).
func (p Plane) Reduced() Plane {
	g := gcd(gcd(abs(p.H), abs(p.K)), abs(p.L))
	if g <= 1 {
		return p
	}
	return Plane{H: p.H / g, K: p.K / g, L: p.L / g}
}

// Unsigned returns whichever of p and -p is lexicographically greater.
// Diffraction bands do not distinguish the two.
func (p Plane) Unsigned() Plane {
	n := p.Neg()
	if p.Less(n) {
		return n
	}
	return p
}

func (p Plane) String() string {
	return fmt.Sprintf("(%d %d %d)", p.H, p.K, p.L)
}

func (p Plane) apply(op symOp) Plane {
	return Plane{
		H: op[0][0]*p.H + op[0][1]*p.K + op[0][2]*p.L,
		K: op[1][0]*p.H + op[1][1]*p.K + op[1][2]*p.L,
		L: op[2][0]*p.H + op[2][1]*p.K + op[2][2]*p.L,
	}
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
