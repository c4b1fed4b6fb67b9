package monitor

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/kikuchi/internal/ebsd/hough"
	"github.com/banshee-data/kikuchi/internal/ebsd/peaks"
	"github.com/banshee-data/kikuchi/internal/units"
)

// ErrEmptyAccumulator is returned when there is nothing to draw.
var ErrEmptyAccumulator = errors.New("accumulator is empty")

// accumulatorGrid adapts a hough.Accumulator to plotter.GridXYZ. X is
// theta in degrees, Y is rho in pixels.
type accumulatorGrid struct {
	acc *hough.Accumulator
}

var _ plotter.GridXYZ = accumulatorGrid{}

func (g accumulatorGrid) Dims() (c, r int)   { return g.acc.Width, g.acc.Height }
func (g accumulatorGrid) Z(c, r int) float64 { return g.acc.At(c, r) }
func (g accumulatorGrid) X(c int) float64    { return units.ToDegrees(g.acc.Theta.At(float64(c))) }
func (g accumulatorGrid) Y(r int) float64    { return g.acc.Rho.At(float64(r)) }

// PlotAccumulator writes a heat map of acc to path with the given peaks
// marked. The image format follows the file extension (png, svg, pdf).
func PlotAccumulator(acc *hough.Accumulator, pks []peaks.HoughPeak, title, path string) error {
	if acc == nil || acc.Width == 0 || acc.Height == 0 {
		return ErrEmptyAccumulator
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create plot dir: %w", err)
		}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Theta (deg)"
	p.Y.Label.Text = "Rho (px)"

	heat := plotter.NewHeatMap(accumulatorGrid{acc: acc}, palette.Heat(16, 1))
	p.Add(heat)

	if len(pks) > 0 {
		pts := make(plotter.XYs, len(pks))
		for i, pk := range pks {
			pts[i].X = units.ToDegrees(pk.Theta)
			pts[i].Y = pk.Rho
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("peak markers: %w", err)
		}
		scatter.GlyphStyle.Shape = draw.CrossGlyph{}
		scatter.GlyphStyle.Color = color.RGBA{R: 0, G: 160, B: 255, A: 255}
		scatter.GlyphStyle.Radius = vg.Points(4)
		p.Add(scatter)
		p.Legend.Add(fmt.Sprintf("peaks (%d)", len(pks)), scatter)
	}

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}
