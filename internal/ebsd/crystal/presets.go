package crystal

import "fmt"

// Preset lattice constants in ångström.
const (
	SiliconA   = 5.43
	IronAlphaA = 2.8665
	AluminiumA = 4.0495
	MagnesiumA = 3.2094
	MagnesiumC = 5.2108
)

func fccSites(z int) []AtomSite {
	return []AtomSite{
		{X: 0, Y: 0, Z: 0, AtomicNumber: z},
		{X: 0.5, Y: 0.5, Z: 0, AtomicNumber: z},
		{X: 0.5, Y: 0, Z: 0.5, AtomicNumber: z},
		{X: 0, Y: 0.5, Z: 0.5, AtomicNumber: z},
	}
}

// Silicon returns diamond-cubic silicon (Fd-3m, No. 227).
func Silicon() *Crystal {
	cell, _ := NewCubicCell(SiliconA)
	atoms := fccSites(14)
	for _, a := range fccSites(14) {
		atoms = append(atoms, AtomSite{X: a.X + 0.25, Y: a.Y + 0.25, Z: a.Z + 0.25, AtomicNumber: 14})
	}
	return mustPreset("Silicon", cell, atoms, 227)
}

// IronAlpha returns body-centred cubic ferrite (Im-3m, No. 229).
func IronAlpha() *Crystal {
	cell, _ := NewCubicCell(IronAlphaA)
	atoms := []AtomSite{
		{AtomicNumber: 26},
		{X: 0.5, Y: 0.5, Z: 0.5, AtomicNumber: 26},
	}
	return mustPreset("Iron alpha", cell, atoms, 229)
}

// Aluminium returns face-centred cubic aluminium (Fm-3m, No. 225).
func Aluminium() *Crystal {
	cell, _ := NewCubicCell(AluminiumA)
	return mustPreset("Aluminium", cell, fccSites(13), 225)
}

// Magnesium returns hexagonal close-packed magnesium (P6₃/mmc, No. 194).
func Magnesium() *Crystal {
	cell, _ := NewHexagonalCell(MagnesiumA, MagnesiumC)
	atoms := []AtomSite{
		{X: 1.0 / 3, Y: 2.0 / 3, Z: 0.25, AtomicNumber: 12},
		{X: 2.0 / 3, Y: 1.0 / 3, Z: 0.75, AtomicNumber: 12},
	}
	return mustPreset("Magnesium", cell, atoms, 194)
}

// Presets returns every built-in phase, keyed by name.
func Presets() map[string]*Crystal {
	out := make(map[string]*Crystal)
	for _, c := range []*Crystal{Silicon(), IronAlpha(), Aluminium(), Magnesium()} {
		out[c.Name()] = c
	}
	return out
}

func mustPreset(name string, cell UnitCell, atoms []AtomSite, sg int) *Crystal {
	c, err := NewCrystalFromSpaceGroup(name, cell, atoms, sg)
	if err != nil {
		panic(fmt.Sprintf("preset %s: %v", name, err))
	}
	return c
}
