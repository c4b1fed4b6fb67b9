package monitor

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/kikuchi/internal/ebsd/hough"
	"github.com/banshee-data/kikuchi/internal/ebsd/peaks"
)

func testAccumulator(t *testing.T) *hough.Accumulator {
	t.Helper()
	acc, err := hough.NewAccumulator(30, 20,
		hough.Axis{Origin: 0, Step: math.Pi / 30},
		hough.Axis{Origin: -100, Step: 10})
	if err != nil {
		t.Fatalf("NewAccumulator: %v", err)
	}
	for row := 0; row < acc.Height; row++ {
		for col := 0; col < acc.Width; col++ {
			acc.Set(col, row, float64(col*row))
		}
	}
	return acc
}

func TestAccumulatorGrid(t *testing.T) {
	g := accumulatorGrid{acc: testAccumulator(t)}
	c, r := g.Dims()
	if c != 30 || r != 20 {
		t.Fatalf("Dims = %d,%d, want 30,20", c, r)
	}
	if got := g.Z(3, 4); got != 12 {
		t.Errorf("Z(3,4) = %g, want 12", got)
	}
	if got := g.X(15); math.Abs(got-90) > 1e-9 {
		t.Errorf("X(15) = %g, want 90", got)
	}
	if got := g.Y(2); got != -80 {
		t.Errorf("Y(2) = %g, want -80", got)
	}
}

func TestPlotAccumulator_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "pattern.png")
	pks := []peaks.HoughPeak{
		{Theta: 0.5, Rho: -20, Intensity: 10},
		{Theta: 2.0, Rho: 40, Intensity: 8},
	}
	if err := PlotAccumulator(testAccumulator(t), pks, "pattern 0", path); err != nil {
		t.Fatalf("PlotAccumulator: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("plot not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("plot file is empty")
	}
}

func TestPlotAccumulator_NoPeaks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	if err := PlotAccumulator(testAccumulator(t), nil, "", path); err != nil {
		t.Fatalf("PlotAccumulator: %v", err)
	}
}

func TestPlotAccumulator_Nil(t *testing.T) {
	if err := PlotAccumulator(nil, nil, "", filepath.Join(t.TempDir(), "x.png")); err != ErrEmptyAccumulator {
		t.Errorf("err = %v, want ErrEmptyAccumulator", err)
	}
}
