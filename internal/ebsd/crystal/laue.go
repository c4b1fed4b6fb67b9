package crystal

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownSpaceGroup is returned for space-group numbers outside 1–230.
	ErrUnknownSpaceGroup = errors.New("unknown space group")
	// ErrUnknownLaueGroup is returned for Laue identifiers outside 1–11.
	ErrUnknownLaueGroup = errors.New("unknown laue group")
)

// LaueGroup is one of the 11 centrosymmetric point groups describing the
// symmetry of a diffraction pattern. The zero value is invalid.
type LaueGroup int

const (
	LaueTriclinic     LaueGroup = iota + 1 // -1
	LaueMonoclinic                         // 2/m
	LaueOrthorhombic                       // mmm
	LaueTetragonalLow                      // 4/m
	LaueTetragonal                         // 4/mmm
	LaueTrigonalLow                        // -3
	LaueTrigonal                           // -3m
	LaueHexagonalLow                       // 6/m
	LaueHexagonal                          // 6/mmm
	LaueCubicLow                           // m-3
	LaueCubic                              // m-3m
)

// symOp acts on Miller indices as a column vector: h' = M·h.
type symOp [3][3]int

var (
	opIdentity  = symOp{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	opInversion = symOp{{-1, 0, 0}, {0, -1, 0}, {0, 0, -1}}
	op2x        = symOp{{1, 0, 0}, {0, -1, 0}, {0, 0, -1}}
	op2y        = symOp{{-1, 0, 0}, {0, 1, 0}, {0, 0, -1}}
	op2z        = symOp{{-1, 0, 0}, {0, -1, 0}, {0, 0, 1}}
	op4z        = symOp{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}}
	op3z        = symOp{{0, 1, 0}, {-1, -1, 0}, {0, 0, 1}} // hexagonal axes
	op6z        = symOp{{1, 1, 0}, {-1, 0, 0}, {0, 0, 1}}  // hexagonal axes
	op2hex      = symOp{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}}  // h <-> k, l -> -l
	op3xyz      = symOp{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}}   // along [111]
)

type laueInfo struct {
	name            string
	firstSG, lastSG int
	generators      []symOp
}

var laueTable = map[LaueGroup]laueInfo{
	LaueTriclinic:     {"-1", 1, 2, nil},
	LaueMonoclinic:    {"2/m", 3, 15, []symOp{op2y}},
	LaueOrthorhombic:  {"mmm", 16, 74, []symOp{op2z, op2y}},
	LaueTetragonalLow: {"4/m", 75, 88, []symOp{op4z}},
	LaueTetragonal:    {"4/mmm", 89, 142, []symOp{op4z, op2x}},
	LaueTrigonalLow:   {"-3", 143, 148, []symOp{op3z}},
	LaueTrigonal:      {"-3m", 149, 167, []symOp{op3z, op2hex}},
	LaueHexagonalLow:  {"6/m", 168, 176, []symOp{op6z}},
	LaueHexagonal:     {"6/mmm", 177, 194, []symOp{op6z, op2hex}},
	LaueCubicLow:      {"m-3", 195, 206, []symOp{op2z, op2y, op3xyz}},
	LaueCubic:         {"m-3m", 207, 230, []symOp{op2z, op2y, op3xyz, op4z}},
}

// LaueFromIndex returns the Laue group with the given 1-based index.
func LaueFromIndex(i int) (LaueGroup, error) {
	l := LaueGroup(i)
	if !l.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownLaueGroup, i)
	}
	return l, nil
}

// LaueFromName parses the Hermann–Mauguin symbol of a Laue group.
func LaueFromName(name string) (LaueGroup, error) {
	for l := LaueTriclinic; l <= LaueCubic; l++ {
		if laueTable[l].name == name {
			return l, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLaueGroup, name)
}

// LaueFromSpaceGroup maps an International Tables space-group number
// (1–230) to its Laue group.
func LaueFromSpaceGroup(sg int) (LaueGroup, error) {
	for l := LaueTriclinic; l <= LaueCubic; l++ {
		info := laueTable[l]
		if sg >= info.firstSG && sg <= info.lastSG {
			return l, nil
		}
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownSpaceGroup, sg)
}

// Valid reports whether l is one of the 11 Laue groups.
func (l LaueGroup) Valid() bool { return l >= LaueTriclinic && l <= LaueCubic }

// Index returns the 1-based index of l.
func (l LaueGroup) Index() int { return int(l) }

// SpaceGroups returns the inclusive range of space-group numbers whose
// Laue group is l.
func (l LaueGroup) SpaceGroups() (first, last int) {
	info := laueTable[l]
	return info.firstSG, info.lastSG
}

// Contains reports whether space group sg belongs to l.
func (l LaueGroup) Contains(sg int) bool {
	first, last := l.SpaceGroups()
	return l.Valid() && sg >= first && sg <= last
}

func (l LaueGroup) String() string {
	if !l.Valid() {
		return fmt.Sprintf("LaueGroup(%d)", int(l))
	}
	return laueTable[l].name
}

// Order returns the number of operators in the group.
func (l LaueGroup) Order() int { return len(l.operators()) }

// operators returns the closed group generated by the Laue group's
// generators plus inversion, in a deterministic order.
func (l LaueGroup) operators() []symOp {
	gens := append([]symOp{opInversion}, laueTable[l].generators...)
	group := []symOp{opIdentity}
	seen := map[symOp]bool{opIdentity: true}
	for i := 0; i < len(group); i++ {
		for _, g := range gens {
			next := mulOp(group[i], g)
			if !seen[next] {
				seen[next] = true
				group = append(group, next)
			}
		}
	}
	sort.Slice(group, func(i, j int) bool { return lessOp(group[i], group[j]) })
	return group
}

// properOperators returns the rotations (determinant +1) of the group.
func (l LaueGroup) properOperators() []symOp {
	all := l.operators()
	proper := make([]symOp, 0, len(all)/2)
	for _, op := range all {
		if detOp(op) == 1 {
			proper = append(proper, op)
		}
	}
	return proper
}

func mulOp(a, b symOp) symOp {
	var out symOp
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out[i][j] += a[i][k] * b[k][j]
			}
		}
	}
	return out
}

func detOp(m symOp) int {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

func lessOp(a, b symOp) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if a[i][j] != b[i][j] {
				return a[i][j] < b[i][j]
			}
		}
	}
	return false
}
