package index

import (
	"math"
	"math/rand"
	"testing"

	"github.com/banshee-data/kikuchi/internal/ebsd/crystal"
	"gonum.org/v1/gonum/spatial/r3"
)

// closestByScan is the exhaustive assignment the grid lookup must agree
// with: the first plane with the largest |v·n| of at least floor.
func closestByScan(v r3.Vec, normals []r3.Vec, floor float64) int {
	best, bestDot := -1, floor
	for p, n := range normals {
		d := math.Abs(r3.Dot(v, n))
		if d > bestDot || (best < 0 && d >= bestDot) {
			best, bestDot = p, d
		}
	}
	return best
}

func TestPlaneIndex_MatchesExhaustiveScan(t *testing.T) {
	tables := siliconTables(t)
	normals := make([]r3.Vec, len(tables.Planes))
	for p, e := range tables.Planes {
		normals[p] = e.Normal
	}
	rng := rand.New(rand.NewSource(3))

	for _, tolDeg := range []float64{0.5, 2, 5, 15, 40} {
		tol := rad(tolDeg)
		pi := newPlaneIndex(normals, tol)
		floor := math.Cos(tol)
		found := 0
		for i := 0; i < 2000; i++ {
			var v r3.Vec
			if i%2 == 0 {
				// Near a plane normal, so most queries have a hit.
				n := normals[rng.Intn(len(normals))]
				jitter := r3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}
				v = r3.Unit(r3.Add(n, r3.Scale(tol*0.7, r3.Unit(jitter))))
			} else {
				v = r3.Unit(r3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()})
			}
			want := closestByScan(v, normals, floor)
			got := pi.closest(v, normals, floor)
			if got != want {
				t.Fatalf("tol=%g° query %d: got plane %d, want %d", tolDeg, i, got, want)
			}
			if got >= 0 {
				found++
			}
		}
		if found == 0 {
			t.Errorf("tol=%g°: no query found a plane", tolDeg)
		}
	}
}

func TestPlaneIndex_Empty(t *testing.T) {
	pi := newPlaneIndex(nil, rad(2))
	if got := pi.closest(r3.Vec{Z: 1}, nil, math.Cos(rad(2))); got != -1 {
		t.Errorf("closest on empty index = %d, want -1", got)
	}
}

func TestPlaneIndex_ExactNormal(t *testing.T) {
	si := crystal.Silicon()
	n := si.Normal(crystal.Plane{H: 1, K: 1, L: 1})
	normals := []r3.Vec{si.Normal(crystal.Plane{H: 1}), n, r3.Scale(-1, n)}
	pi := newPlaneIndex(normals, rad(1))
	// Equal |dot| for both signs: the lower index wins.
	if got := pi.closest(r3.Scale(-1, n), normals, math.Cos(rad(1))); got != 1 {
		t.Errorf("closest = %d, want 1", got)
	}
}
