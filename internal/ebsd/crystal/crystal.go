package crystal

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Crystal is an immutable description of a phase: unit cell, atom basis
// and Laue symmetry. Construct it with NewCrystal or
// NewCrystalFromSpaceGroup.
type Crystal struct {
	name       string
	cell       UnitCell
	atoms      []AtomSite
	laue       LaueGroup
	spaceGroup int

	ops       []symOp
	rotations []Rotation
}

// NewCrystal builds a crystal with an explicit Laue group. The space group
// is left unknown (0).
func NewCrystal(name string, cell UnitCell, atoms []AtomSite, laue LaueGroup) (*Crystal, error) {
	if !laue.Valid() {
		return nil, fmt.Errorf("crystal %q: %w: %d", name, ErrUnknownLaueGroup, int(laue))
	}
	if cell.volume <= 0 {
		return nil, fmt.Errorf("crystal %q: %w: unit cell was not built with NewUnitCell", name, ErrDegenerateCell)
	}
	c := &Crystal{
		name:  name,
		cell:  cell,
		atoms: append([]AtomSite(nil), atoms...),
		laue:  laue,
		ops:   laue.operators(),
	}
	for _, op := range laue.properOperators() {
		c.rotations = append(c.rotations, cell.cartesianOp(op))
	}
	return c, nil
}

// NewCrystalFromSpaceGroup builds a crystal whose Laue group is derived
// from the International Tables space-group number.
func NewCrystalFromSpaceGroup(name string, cell UnitCell, atoms []AtomSite, spaceGroup int) (*Crystal, error) {
	laue, err := LaueFromSpaceGroup(spaceGroup)
	if err != nil {
		return nil, fmt.Errorf("crystal %q: %w", name, err)
	}
	c, err := NewCrystal(name, cell, atoms, laue)
	if err != nil {
		return nil, err
	}
	c.spaceGroup = spaceGroup
	return c, nil
}

// Name returns the phase name.
func (c *Crystal) Name() string { return c.name }

// Cell returns the unit cell.
func (c *Crystal) Cell() UnitCell { return c.cell }

// Laue returns the Laue group.
func (c *Crystal) Laue() LaueGroup { return c.laue }

// SpaceGroup returns the space-group number, or 0 when unknown.
func (c *Crystal) SpaceGroup() int { return c.spaceGroup }

// Atoms returns a copy of the atom basis.
func (c *Crystal) Atoms() []AtomSite { return append([]AtomSite(nil), c.atoms...) }

// Normal returns the unit normal of p in the crystal Cartesian frame.
func (c *Crystal) Normal(p Plane) r3.Vec { return c.cell.Normal(p) }

// Rotations returns the proper symmetry operators of the Laue group as
// Cartesian rotations. The identity is included.
func (c *Crystal) Rotations() []Rotation { return append([]Rotation(nil), c.rotations...) }

// Equivalents returns the distinct planes symmetry-equivalent to p,
// sorted ascending. Both p and -p are included.
func (c *Crystal) Equivalents(p Plane) []Plane {
	seen := make(map[Plane]bool, len(c.ops))
	out := make([]Plane, 0, len(c.ops))
	for _, op := range c.ops {
		q := p.apply(op)
		if !seen[q] {
			seen[q] = true
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Representative returns the lexicographically greatest plane equivalent
// to p. Symmetry-equivalent planes share a representative.
func (c *Crystal) Representative(p Plane) Plane {
	best := p
	for _, op := range c.ops {
		if q := p.apply(op); best.Less(q) {
			best = q
		}
	}
	return best
}

// StructureFactor2 returns |F(hkl)|² under the given scattering model.
func (c *Crystal) StructureFactor2(p Plane, factors ScatteringFactors) float64 {
	s := 1 / (2 * c.cell.DSpacing(p))
	return structureFactor2(c.atoms, p, s, factors)
}

func (c *Crystal) String() string {
	return fmt.Sprintf("%s [%s]", c.name, c.laue)
}
