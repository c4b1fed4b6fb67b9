package index

import (
	"math"

	"github.com/banshee-data/kikuchi/internal/ebsd/crystal"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// minCross is the smallest |u×v| for which two directions still define a
// frame.
const minCross = 1e-9

// triad returns the rotation taking the crystal directions u0, u1 onto the
// sample directions w0, w1. u0 and w0 are matched exactly; the second pair
// fixes the rotation about them. ok is false for parallel inputs.
func triad(u0, u1, w0, w1 r3.Vec) (crystal.Rotation, bool) {
	uc := r3.Cross(u0, u1)
	wc := r3.Cross(w0, w1)
	if r3.Norm(uc) < minCross || r3.Norm(wc) < minCross {
		return crystal.Rotation{}, false
	}
	t := [3]r3.Vec{r3.Unit(u0), r3.Unit(uc)}
	t[2] = r3.Cross(t[0], t[1])
	s := [3]r3.Vec{r3.Unit(w0), r3.Unit(wc)}
	s[2] = r3.Cross(s[0], s[1])

	var r crystal.Rotation
	for k := 0; k < 3; k++ {
		sk, tk := components(s[k]), components(t[k])
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				r[i][j] += sk[i] * tk[j]
			}
		}
	}
	return r, true
}

// fitOrientation returns the rotation R minimising Σ|w_k - R·u_k|² over
// the matched directions, by SVD of the cross-covariance matrix. With
// fewer than two independent directions it returns fallback.
func fitOrientation(u, w []r3.Vec, fallback crystal.Rotation) crystal.Rotation {
	if len(u) < 2 || len(u) != len(w) {
		return fallback
	}
	h := mat.NewDense(3, 3, nil)
	for k := range u {
		uk, wk := components(u[k]), components(w[k])
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				h.Set(i, j, h.At(i, j)+wk[i]*uk[j])
			}
		}
	}

	var svd mat.SVD
	if !svd.Factorize(h, mat.SVDFull) {
		return fallback
	}
	if vals := svd.Values(nil); vals[1] < minCross {
		return fallback
	}
	var uu, vv mat.Dense
	svd.UTo(&uu)
	svd.VTo(&vv)

	var uvt mat.Dense
	uvt.Mul(&uu, vv.T())
	d := 1.0
	if mat.Det(&uvt) < 0 {
		d = -1
	}
	var ud, rot mat.Dense
	ud.Mul(&uu, mat.NewDiagDense(3, []float64{1, 1, d}))
	rot.Mul(&ud, vv.T())

	var r crystal.Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = rot.At(i, j)
		}
	}
	return r
}

func components(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

// angleBetween returns the angle between unit vectors a and b in radians.
func angleBetween(a, b r3.Vec) float64 {
	return math.Acos(math.Max(-1, math.Min(1, r3.Dot(a, b))))
}

func deg(rad float64) float64 { return rad * 180 / math.Pi }

// fundamental returns the symmetry equivalent rot·op with the smallest
// rotation angle. Among equal angles the first op wins.
func fundamental(rot crystal.Rotation, ops []crystal.Rotation) crystal.Rotation {
	best, bestTrace := rot, trace(rot)
	for _, op := range ops {
		r := rot.Mul(op)
		if tr := trace(r); tr > bestTrace+1e-12 {
			best, bestTrace = r, tr
		}
	}
	return best
}

func trace(r crystal.Rotation) float64 { return r[0][0] + r[1][1] + r[2][2] }

// rotationVector returns axis·angle for r, angle in [0, π].
func rotationVector(r crystal.Rotation) r3.Vec {
	angle := r.Angle()
	if angle < 1e-12 {
		return r3.Vec{}
	}
	skew := r3.Vec{X: r[2][1] - r[1][2], Y: r[0][2] - r[2][0], Z: r[1][0] - r[0][1]}
	if s := math.Sin(angle); s > 1e-6 {
		return r3.Scale(angle/(2*s), skew)
	}
	// Near π the skew part vanishes; take the axis from the symmetric part.
	diag := [3]float64{r[0][0], r[1][1], r[2][2]}
	i := 0
	for j := 1; j < 3; j++ {
		if diag[j] > diag[i] {
			i = j
		}
	}
	col := r3.Vec{X: r[0][i] + r[i][0], Y: r[1][i] + r[i][1], Z: r[2][i] + r[i][2]}
	if i == 0 {
		col.X = 2 * (r[0][0] + 1)
	}
	if i == 1 {
		col.Y = 2 * (r[1][1] + 1)
	}
	if i == 2 {
		col.Z = 2 * (r[2][2] + 1)
	}
	axis := r3.Unit(col)
	if r3.Dot(axis, skew) < 0 {
		axis = r3.Scale(-1, axis)
	}
	return r3.Scale(angle, axis)
}
