package index

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// planeIndex buckets unit plane normals, each inserted with both signs, on
// a cubic grid over [-1, 1]³. Any normal n with |v·n| ≥ cos(tol) lies
// within chord 2·sin(tol/2) of v or −v, so it is found in the 27 cells
// around v when the cell side is at least that chord.
type planeIndex struct {
	side  float64
	cells map[[3]int][]int
}

func newPlaneIndex(normals []r3.Vec, tolerance float64) *planeIndex {
	chord := 2 * math.Sin(tolerance/2)
	pi := &planeIndex{
		side:  chord*(1+1e-6) + 1e-9,
		cells: make(map[[3]int][]int),
	}
	for p, n := range normals {
		for _, v := range [2]r3.Vec{n, r3.Scale(-1, n)} {
			k := pi.key(v)
			ids := pi.cells[k]
			// Both signs of a normal can share a cell at coarse sides.
			if len(ids) == 0 || ids[len(ids)-1] != p {
				pi.cells[k] = append(ids, p)
			}
		}
	}
	return pi
}

func (pi *planeIndex) key(v r3.Vec) [3]int {
	return [3]int{
		int(math.Floor(v.X / pi.side)),
		int(math.Floor(v.Y / pi.side)),
		int(math.Floor(v.Z / pi.side)),
	}
}

// closest returns the index of the normal with the largest |v·n| that is at
// least floor, the lowest index winning ties, or -1 when none qualifies.
func (pi *planeIndex) closest(v r3.Vec, normals []r3.Vec, floor float64) int {
	k := pi.key(v)
	best, bestDot := -1, floor
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				for _, p := range pi.cells[[3]int{k[0] + dx, k[1] + dy, k[2] + dz}] {
					d := math.Abs(r3.Dot(v, normals[p]))
					switch {
					case d > bestDot, best < 0 && d >= bestDot, d == bestDot && p < best:
						best, bestDot = p, d
					}
				}
			}
		}
	}
	return best
}
