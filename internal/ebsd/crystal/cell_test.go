package crystal

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestNewUnitCell_Rejects(t *testing.T) {
	tests := []struct {
		name               string
		a, b, c            float64
		alpha, beta, gamma float64
	}{
		{"zero length", 0, 1, 1, math.Pi / 2, math.Pi / 2, math.Pi / 2},
		{"negative length", 1, -2, 1, math.Pi / 2, math.Pi / 2, math.Pi / 2},
		{"zero angle", 1, 1, 1, 0, math.Pi / 2, math.Pi / 2},
		{"straight angle", 1, 1, 1, math.Pi / 2, math.Pi, math.Pi / 2},
		{"coplanar", 1, 1, 1, 2 * math.Pi / 3, 2 * math.Pi / 3, 2 * math.Pi / 3},
		{"nan", math.NaN(), 1, 1, math.Pi / 2, math.Pi / 2, math.Pi / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUnitCell(tt.a, tt.b, tt.c, tt.alpha, tt.beta, tt.gamma)
			if !errors.Is(err, ErrDegenerateCell) {
				t.Errorf("NewUnitCell() error = %v, want ErrDegenerateCell", err)
			}
		})
	}
}

func TestUnitCell_CubicVolumeAndSpacing(t *testing.T) {
	cell, err := NewCubicCell(SiliconA)
	if err != nil {
		t.Fatalf("NewCubicCell: %v", err)
	}
	if got, want := cell.Volume(), math.Pow(SiliconA, 3); math.Abs(got-want) > 1e-9 {
		t.Errorf("Volume() = %f, want %f", got, want)
	}
	d := cell.DSpacing(Plane{H: 1, K: 1, L: 1})
	if want := SiliconA / math.Sqrt(3); math.Abs(d-want) > 1e-9 {
		t.Errorf("DSpacing(111) = %f, want %f", d, want)
	}
	g := cell.Metric()
	if math.Abs(g.At(0, 0)-SiliconA*SiliconA) > 1e-9 || math.Abs(g.At(0, 1)) > 1e-9 {
		t.Errorf("Metric() not diagonal a²: %v", g)
	}
}

func TestUnitCell_HexagonalNormals(t *testing.T) {
	cell, err := NewHexagonalCell(MagnesiumA, MagnesiumC)
	if err != nil {
		t.Fatalf("NewHexagonalCell: %v", err)
	}
	basal := cell.Normal(Plane{L: 1})
	if math.Abs(basal.Z-1) > 1e-12 {
		t.Errorf("(0 0 1) normal = %v, want +z", basal)
	}
	prism := cell.Normal(Plane{H: 1})
	if math.Abs(r3.Dot(prism, basal)) > 1e-12 {
		t.Errorf("prism normal %v not perpendicular to basal", prism)
	}
	// (1 0 0) and (0 1 0) prism normals are 60° apart.
	other := cell.Normal(Plane{K: 1})
	if got := r3.Dot(prism, other); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("cos between prism normals = %f, want 0.5", got)
	}
}

func TestNewPlane_Zero(t *testing.T) {
	if _, err := NewPlane(0, 0, 0); !errors.Is(err, ErrZeroPlane) {
		t.Errorf("NewPlane(0,0,0) error = %v, want ErrZeroPlane", err)
	}
	p, err := NewPlane(2, -2, 4)
	if err != nil {
		t.Fatalf("NewPlane: %v", err)
	}
	if got := p.Reduced(); got != (Plane{H: 1, K: -1, L: 2}) {
		t.Errorf("Reduced() = %v", got)
	}
	if got := p.Unsigned(); got != (Plane{H: 2, K: -2, L: 4}) {
		t.Errorf("Unsigned() = %v", got)
	}
	if got := p.Neg().Unsigned(); got != p {
		t.Errorf("Neg().Unsigned() = %v, want %v", got, p)
	}
}

func TestUnitCell_ReciprocalInverse(t *testing.T) {
	for _, tc := range []struct {
		name string
		cell func() (UnitCell, error)
	}{
		{"cubic", func() (UnitCell, error) { return NewCubicCell(5.431) }},
		{"hexagonal", func() (UnitCell, error) { return NewHexagonalCell(3.209, 5.211) }},
		{"triclinic", func() (UnitCell, error) { return NewUnitCellDegrees(5.1, 6.3, 7.2, 82, 97, 104) }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			u, err := tc.cell()
			require.NoError(t, err)

			B := mat.NewDense(3, 3, nil)
			for j, v := range u.reciprocal {
				B.Set(0, j, v.X)
				B.Set(1, j, v.Y)
				B.Set(2, j, v.Z)
			}
			var prod mat.Dense
			prod.Mul(B, u.reciprocalInverse())
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					want := 0.0
					if i == j {
						want = 1
					}
					assert.InDelta(t, want, prod.At(i, j), 1e-12, "(%d,%d)", i, j)
				}
			}
		})
	}
}
