package index

import (
	"math"
	"sort"

	"github.com/banshee-data/kikuchi/internal/ebsd/crystal"
	"gonum.org/v1/gonum/spatial/r3"
)

// Indexer matches observed band normals against crystal tables. It holds
// no per-call state and may be shared between goroutines.
type Indexer struct {
	cfg Config
}

// NewIndexer validates cfg and returns an Indexer.
func NewIndexer(cfg Config) (*Indexer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Indexer{cfg: cfg}, nil
}

// Config returns the matcher configuration.
func (ix *Indexer) Config() Config { return ix.cfg }

// Index matches normals, unit band-plane normals in the sample frame of
// unknown sign, against tables. Solutions are ordered by Matches
// descending then Residual ascending, ties in discovery order. An empty
// slice means no hypothesis reached MinMatchCount.
func (ix *Indexer) Index(normals []r3.Vec, tables *crystal.Tables) []Solution {
	if tables == nil || len(tables.Pairs) == 0 || len(tables.Planes) == 0 || len(normals) < 2 {
		return []Solution{}
	}
	s := newSearch(ix.cfg, tables, normals)
	s.run()
	return s.solutions()
}

// Index is a convenience wrapper running the default matcher with the
// given angular tolerance in radians.
func Index(normals []r3.Vec, tables *crystal.Tables, tolerance float64) ([]Solution, error) {
	cfg := DefaultConfig()
	cfg.AngularTolerance = tolerance
	ix, err := NewIndexer(cfg)
	if err != nil {
		return nil, err
	}
	return ix.Index(normals, tables), nil
}

type observedPair struct {
	a, b int
	cos  float64 // |n_a · n_b|
}

type hypothesis struct {
	rot      crystal.Rotation
	matches  int
	residual float64
}

func (h hypothesis) better(o hypothesis) bool {
	if h.matches != o.matches {
		return h.matches > o.matches
	}
	return h.residual < o.residual
}

// search is the state of one Index call. Kept hypotheses live in kept;
// their plane assignments live in the flat assign arena, len(obs) entries
// per hypothesis, each an index into tables.Planes or -1. slots maps an
// orientation cell to its position in kept.
type search struct {
	cfg    Config
	cosTol float64
	devCos float64
	tables *crystal.Tables
	ops    []crystal.Rotation
	normal []r3.Vec // tables.Planes normals
	lookup *planeIndex

	obs   []r3.Vec
	valid []bool
	pairs []observedPair

	kept    []hypothesis
	assign  []int
	slots   map[[3]int]int
	scratch []int
}

func newSearch(cfg Config, tables *crystal.Tables, normals []r3.Vec) *search {
	s := &search{
		cfg:     cfg,
		cosTol:  cfg.CosineTolerance(),
		devCos:  math.Cos(cfg.AngularTolerance),
		tables:  tables,
		ops:     tables.Crystal.Rotations(),
		normal:  make([]r3.Vec, len(tables.Planes)),
		obs:     make([]r3.Vec, len(normals)),
		valid:   make([]bool, len(normals)),
		slots:   make(map[[3]int]int),
		scratch: make([]int, len(normals)),
	}
	for p, e := range tables.Planes {
		s.normal[p] = e.Normal
	}
	s.lookup = newPlaneIndex(s.normal, cfg.AngularTolerance)
	for i, n := range normals {
		if norm := r3.Norm(n); norm > 0 && !math.IsNaN(norm) && !math.IsInf(norm, 0) {
			s.obs[i] = r3.Scale(1/norm, n)
			s.valid[i] = true
		}
	}
	for a := 0; a < len(s.obs); a++ {
		for b := a + 1; b < len(s.obs); b++ {
			if !s.valid[a] || !s.valid[b] {
				continue
			}
			cos := math.Min(1, math.Abs(r3.Dot(s.obs[a], s.obs[b])))
			s.pairs = append(s.pairs, observedPair{a: a, b: b, cos: cos})
		}
	}
	return s
}

// run seeds hypotheses from every observed pair and every theoretical
// pair within tolerance of it.
func (s *search) run() {
	for _, op := range s.pairs {
		va, vb := s.obs[op.a], s.obs[op.b]
		if r3.Dot(va, vb) < 0 {
			vb = r3.Scale(-1, vb)
		}
		na, nb := r3.Scale(-1, va), r3.Scale(-1, vb)
		for _, tp := range s.tables.PairsWithin(op.cos, s.cosTol) {
			seeds := [4][4]r3.Vec{
				{tp.Normal0, tp.Normal1, va, vb},
				{tp.Normal0, tp.Normal1, na, nb},
				{tp.Normal1, tp.Normal0, va, vb},
				{tp.Normal1, tp.Normal0, na, nb},
			}
			for _, sd := range seeds {
				rot, ok := triad(sd[0], sd[1], sd[2], sd[3])
				if !ok {
					continue
				}
				s.consider(rot)
			}
		}
	}
}

// consider scores rot and either opens a new slot for it, replaces the
// hypothesis in its orientation cell when it beats it, or drops it.
func (s *search) consider(rot crystal.Rotation) {
	matches, residual := s.evaluate(rot, s.scratch)
	if matches < s.cfg.MinMatchCount {
		return
	}
	h := hypothesis{rot: rot, matches: matches, residual: residual}
	n := len(s.obs)
	key, merge := s.cell(rot)
	if merge {
		if k, ok := s.slots[key]; ok {
			if h.better(s.kept[k]) {
				s.kept[k] = h
				copy(s.assign[k*n:(k+1)*n], s.scratch)
			}
			return
		}
		s.slots[key] = len(s.kept)
	}
	s.kept = append(s.kept, h)
	s.assign = append(s.assign, s.scratch...)
}

// cell returns the orientation-space cell of rot: the symmetry
// equivalent closest to the identity, as a rotation vector, quantised by
// DuplicateMisorientation. merge is false when merging is disabled.
func (s *search) cell(rot crystal.Rotation) (key [3]int, merge bool) {
	bin := s.cfg.DuplicateMisorientation
	if bin <= 0 {
		return key, false
	}
	v := rotationVector(fundamental(rot, s.ops))
	return [3]int{
		int(math.Floor(v.X / bin)),
		int(math.Floor(v.Y / bin)),
		int(math.Floor(v.Z / bin)),
	}, true
}

// evaluate assigns each observed normal to the closest equivalent plane
// within tolerance, writing the assignment into assign, and counts the
// observed pairs whose assigned planes reproduce the observed cosine.
func (s *search) evaluate(rot crystal.Rotation, assign []int) (matches int, residual float64) {
	inv := rot.Transpose()
	planes := s.tables.Planes
	for i, v := range s.obs {
		assign[i] = -1
		if !s.valid[i] {
			continue
		}
		assign[i] = s.lookup.closest(inv.Apply(v), s.normal, s.devCos)
	}
	for _, op := range s.pairs {
		pa, pb := assign[op.a], assign[op.b]
		if pa < 0 || pb < 0 {
			continue
		}
		th := math.Abs(r3.Dot(planes[pa].Normal, planes[pb].Normal))
		if d := math.Abs(op.cos - th); d <= s.cosTol {
			matches++
			residual += d
		}
	}
	return matches, residual
}

// solutions refines every kept hypothesis and returns them ranked.
func (s *search) solutions() []Solution {
	out := make([]Solution, 0, len(s.kept))
	n := len(s.obs)
	c := s.tables.Crystal
	for k, h := range s.kept {
		assign := s.assign[k*n : (k+1)*n]
		var corr []Correspondence
		var u, w []r3.Vec
		for i, p := range assign {
			if p < 0 {
				continue
			}
			e := s.tables.Planes[p]
			plane, normal := e.Plane, e.Normal
			if r3.Dot(h.rot.Apply(normal), s.obs[i]) < 0 {
				plane, normal = plane.Neg(), r3.Scale(-1, normal)
			}
			corr = append(corr, Correspondence{Peak: i, Reflector: e.Reflector, Plane: plane})
			u = append(u, normal)
			w = append(w, s.obs[i])
		}
		rot := fitOrientation(u, w, h.rot)
		for j := range corr {
			corr[j].Deviation = angleBetween(rot.Apply(u[j]), w[j])
		}
		out = append(out, Solution{
			Crystal:         c,
			Orientation:     rot,
			Matches:         h.matches,
			Residual:        h.residual,
			Correspondences: corr,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return Better(out[i], out[j]) })
	return out
}

// MaxPairs is the number of observed pairs n normals form, the upper
// bound on Solution.Matches.
func MaxPairs(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}
