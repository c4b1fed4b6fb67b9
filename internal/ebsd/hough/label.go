package hough

import "fmt"

// Connectivity selects which neighbours join a region.
type Connectivity int

const (
	// Connect4 joins edge-adjacent cells.
	Connect4 Connectivity = 4
	// Connect8 also joins diagonal cells.
	Connect8 Connectivity = 8
)

// Valid reports whether c is 4 or 8.
func (c Connectivity) Valid() bool { return c == Connect4 || c == Connect8 }

// Labels assigns each cell a region id: 0 is background. ConnectedComponents
// numbers regions 1..Count; other labelers may leave gaps, so consumers
// read the ids rather than trusting Count.
type Labels struct {
	Width, Height int
	IDs           []int
	Count         int
}

// At returns the label of (col, row).
func (l *Labels) At(col, row int) int { return l.IDs[row*l.Width+col] }

// Labeler is the connected-component labeling contract: every foreground
// cell of the mask receives a positive label, background cells 0, and
// labels are numbered in row-major scan order of each region's first cell.
type Labeler interface {
	Label(mask *Mask) *Labels
}

// ConnectedComponents labels regions by flood fill.
type ConnectedComponents struct {
	Connectivity Connectivity
}

// NewConnectedComponents returns a labeler for the given connectivity,
// falling back to 8-connectivity for invalid input.
func NewConnectedComponents(c Connectivity) *ConnectedComponents {
	if !c.Valid() {
		c = Connect8
	}
	return &ConnectedComponents{Connectivity: c}
}

var (
	offsets4 = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	offsets8 = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// Label implements Labeler.
func (cc *ConnectedComponents) Label(mask *Mask) *Labels {
	out := &Labels{Width: mask.Width, Height: mask.Height, IDs: make([]int, len(mask.Bits))}
	offsets := offsets8
	if cc.Connectivity == Connect4 {
		offsets = offsets4
	}

	var stack []int
	for start, set := range mask.Bits {
		if !set || out.IDs[start] != 0 {
			continue
		}
		out.Count++
		id := out.Count
		out.IDs[start] = id
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			col, row := idx%mask.Width, idx/mask.Width
			for _, o := range offsets {
				c, r := col+o[0], row+o[1]
				if c < 0 || c >= mask.Width || r < 0 || r >= mask.Height {
					continue
				}
				n := r*mask.Width + c
				if mask.Bits[n] && out.IDs[n] == 0 {
					out.IDs[n] = id
					stack = append(stack, n)
				}
			}
		}
	}
	return out
}

// CheckShape returns ErrShapeMismatch unless l and m share a shape.
func (l *Labels) CheckShape(m *Mask) error {
	if l.Width != m.Width || l.Height != m.Height || len(l.IDs) != len(m.Bits) {
		return fmt.Errorf("%w: labels %dx%d, mask %dx%d", ErrShapeMismatch, l.Width, l.Height, m.Width, m.Height)
	}
	return nil
}

var _ Labeler = (*ConnectedComponents)(nil)
