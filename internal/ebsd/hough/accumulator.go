package hough

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is returned when two grids that must share a shape do
// not.
var ErrShapeMismatch = errors.New("grid shapes differ")

// Axis maps a bin index onto a physical coordinate: Origin + index·Step.
type Axis struct {
	Origin float64
	Step   float64
}

// At returns the coordinate of a (possibly fractional) bin index.
func (a Axis) At(index float64) float64 { return a.Origin + index*a.Step }

// Index returns the fractional bin index of a coordinate.
func (a Axis) Index(coord float64) float64 { return (coord - a.Origin) / a.Step }

// Accumulator is a Width×Height grid of Hough votes. Columns run along
// theta (radians) and rows along rho (pixels).
type Accumulator struct {
	Width, Height int
	Theta         Axis
	Rho           Axis
	Values        []float64 // len = Width*Height, row-major
}

// NewAccumulator allocates a zeroed accumulator.
func NewAccumulator(width, height int, theta, rho Axis) (*Accumulator, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("accumulator size must be positive, got %dx%d", width, height)
	}
	if theta.Step <= 0 || rho.Step <= 0 {
		return nil, fmt.Errorf("axis steps must be positive, got theta=%g rho=%g", theta.Step, rho.Step)
	}
	return &Accumulator{
		Width:  width,
		Height: height,
		Theta:  theta,
		Rho:    rho,
		Values: make([]float64, width*height),
	}, nil
}

// Idx returns the flat index of (col, row).
func (a *Accumulator) Idx(col, row int) int { return row*a.Width + col }

// At returns the value at (col, row).
func (a *Accumulator) At(col, row int) float64 { return a.Values[a.Idx(col, row)] }

// Set stores v at (col, row).
func (a *Accumulator) Set(col, row int, v float64) { a.Values[a.Idx(col, row)] = v }

// Add accumulates v at (col, row).
func (a *Accumulator) Add(col, row int, v float64) { a.Values[a.Idx(col, row)] += v }

// Max returns the largest value in the grid.
func (a *Accumulator) Max() float64 {
	if len(a.Values) == 0 {
		return 0
	}
	m := a.Values[0]
	for _, v := range a.Values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Mask is a binary grid with the same layout as an Accumulator.
type Mask struct {
	Width, Height int
	Bits          []bool // len = Width*Height, row-major
}

// NewMask allocates an all-false mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Bits: make([]bool, width*height)}
}

// MaskFromInts builds a mask from row-major 0/1 values.
func MaskFromInts(width, height int, values []int) (*Mask, error) {
	if len(values) != width*height {
		return nil, fmt.Errorf("%w: %d values for %dx%d mask", ErrShapeMismatch, len(values), width, height)
	}
	m := NewMask(width, height)
	for i, v := range values {
		m.Bits[i] = v != 0
	}
	return m, nil
}

// At reports whether (col, row) is set.
func (m *Mask) At(col, row int) bool { return m.Bits[row*m.Width+col] }

// Set sets or clears (col, row).
func (m *Mask) Set(col, row int, v bool) { m.Bits[row*m.Width+col] = v }

// Count returns the number of set cells.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// CheckShape returns ErrShapeMismatch unless m and a share a shape.
func (m *Mask) CheckShape(a *Accumulator) error {
	if m.Width != a.Width || m.Height != a.Height || len(m.Bits) != len(a.Values) {
		return fmt.Errorf("%w: mask %dx%d, accumulator %dx%d", ErrShapeMismatch, m.Width, m.Height, a.Width, a.Height)
	}
	return nil
}

// Threshold sets every cell whose value is at least fraction·max. It is a
// convenience for tests and tools; production masks come from the
// upstream thresholding stage.
func Threshold(a *Accumulator, fraction float64) *Mask {
	m := NewMask(a.Width, a.Height)
	max := a.Max()
	if max <= 0 {
		return m
	}
	level := fraction * max
	for i, v := range a.Values {
		m.Bits[i] = v >= level
	}
	return m
}
