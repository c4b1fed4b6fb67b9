package crystal

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// parallelCosine treats two normals as the same band direction.
	parallelCosine = 1 - 1e-9
	// cosineDedup merges cosines that differ by less than this.
	cosineDedup = 1e-9
)

// InterplanarAnglePair relates two reflector planes by the cosine of the
// angle between their unit normals. Pairs are stored canonically: the
// first plane is never greater than the second.
type InterplanarAnglePair struct {
	Reflector0, Reflector1 int // indices into Tables.Reflectors, -1 when built ad hoc
	Plane0, Plane1         Plane
	Normal0, Normal1       r3.Vec
	DirectionCosine        float64
}

// NewInterplanarAnglePair builds the pair for two explicit planes. The
// pair is ordered by ascending plane and the cosine is the signed dot
// product of the two unit normals.
func NewInterplanarAnglePair(c *Crystal, p0, p1 Plane) (InterplanarAnglePair, error) {
	if p0.IsZero() || p1.IsZero() {
		return InterplanarAnglePair{}, ErrZeroPlane
	}
	if p1.Less(p0) {
		p0, p1 = p1, p0
	}
	n0, n1 := c.Normal(p0), c.Normal(p1)
	return InterplanarAnglePair{
		Reflector0:      -1,
		Reflector1:      -1,
		Plane0:          p0,
		Plane1:          p1,
		Normal0:         n0,
		Normal1:         n1,
		DirectionCosine: clamp(r3.Dot(n0, n1), -1, 1),
	}, nil
}

// Angle returns the interplanar angle in radians.
func (p InterplanarAnglePair) Angle() float64 { return math.Acos(p.DirectionCosine) }

func (p InterplanarAnglePair) String() string {
	return fmt.Sprintf("%v-%v cos=%.6f", p.Plane0, p.Plane1, p.DirectionCosine)
}

// EquivalentPlane is one member of a reflector family with its normal.
// Only one of ±p is listed since bands do not distinguish the two.
type EquivalentPlane struct {
	Reflector int
	Plane     Plane
	Normal    r3.Vec
}

// Tables holds everything the indexer reads about a crystal. It is built
// once and never modified.
type Tables struct {
	Crystal    *Crystal
	Reflectors []Reflector
	// Pairs is sorted by DirectionCosine ascending, then by reflector
	// indices, so that PairsWithin can binary search it.
	Pairs []InterplanarAnglePair
	// Planes lists every unsigned equivalent of every reflector, grouped
	// by reflector in table order.
	Planes []EquivalentPlane
}

// BuildTables generates reflectors and the interplanar angle table for c.
func BuildTables(c *Crystal, cfg ReflectorConfig) (*Tables, error) {
	reflectors, err := GenerateReflectors(c, cfg)
	if err != nil {
		return nil, err
	}
	t := &Tables{Crystal: c, Reflectors: reflectors}

	equivalents := make([][]EquivalentPlane, len(reflectors))
	for i, r := range reflectors {
		seen := make(map[Plane]bool)
		for _, q := range c.Equivalents(r.Plane) {
			u := q.Unsigned()
			if seen[u] {
				continue
			}
			seen[u] = true
			equivalents[i] = append(equivalents[i], EquivalentPlane{Reflector: i, Plane: u, Normal: c.Normal(u)})
		}
		t.Planes = append(t.Planes, equivalents[i]...)
	}

	for i := range reflectors {
		for j := i; j < len(reflectors); j++ {
			var cosines []float64
			for _, e := range equivalents[j] {
				n0 := reflectors[i].Normal
				cos := r3.Dot(n0, e.Normal)
				plane1, n1 := e.Plane, e.Normal
				if cos < 0 {
					cos, plane1, n1 = -cos, plane1.Neg(), r3.Scale(-1, n1)
				}
				if cos >= parallelCosine {
					continue
				}
				if containsCosine(cosines, cos) {
					continue
				}
				cosines = append(cosines, cos)
				t.Pairs = append(t.Pairs, InterplanarAnglePair{
					Reflector0:      i,
					Reflector1:      j,
					Plane0:          reflectors[i].Plane,
					Plane1:          plane1,
					Normal0:         n0,
					Normal1:         n1,
					DirectionCosine: clamp(cos, 0, 1),
				})
			}
		}
	}

	sort.SliceStable(t.Pairs, func(a, b int) bool {
		pa, pb := t.Pairs[a], t.Pairs[b]
		if pa.DirectionCosine != pb.DirectionCosine {
			return pa.DirectionCosine < pb.DirectionCosine
		}
		if pa.Reflector0 != pb.Reflector0 {
			return pa.Reflector0 < pb.Reflector0
		}
		return pa.Reflector1 < pb.Reflector1
	})
	return t, nil
}

// PairsWithin returns the sub-slice of Pairs whose cosine lies within
// tol of cos. The returned slice aliases the table and must not be
// modified.
func (t *Tables) PairsWithin(cos, tol float64) []InterplanarAnglePair {
	lo := sort.Search(len(t.Pairs), func(i int) bool { return t.Pairs[i].DirectionCosine >= cos-tol })
	hi := sort.Search(len(t.Pairs), func(i int) bool { return t.Pairs[i].DirectionCosine > cos+tol })
	if hi < lo {
		hi = lo
	}
	return t.Pairs[lo:hi]
}

func containsCosine(cosines []float64, c float64) bool {
	for _, v := range cosines {
		if math.Abs(v-c) < cosineDedup {
			return true
		}
	}
	return false
}
