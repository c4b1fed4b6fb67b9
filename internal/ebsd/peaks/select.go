package peaks

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidBounds is returned for negative or inverted selection bounds.
var ErrInvalidBounds = errors.New("invalid peak count bounds")

// Selector keeps between Minimum and Maximum of the strongest peaks.
type Selector struct {
	Minimum, Maximum int
}

// Validate checks 0 ≤ Minimum ≤ Maximum.
func (s Selector) Validate() error {
	if s.Minimum < 0 || s.Maximum < 0 || s.Minimum > s.Maximum {
		return fmt.Errorf("%w: minimum=%d maximum=%d", ErrInvalidBounds, s.Minimum, s.Maximum)
	}
	return nil
}

// Select returns at most Maximum peaks ordered by descending intensity,
// ties kept in input order. Fewer than Minimum peaks are returned as they
// are; the caller decides whether that is enough to index. The input is
// not modified.
func (s Selector) Select(peaks []HoughPeak) ([]HoughPeak, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	out := append([]HoughPeak(nil), peaks...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Intensity > out[j].Intensity })
	if len(out) > s.Maximum {
		out = out[:s.Maximum]
	}
	if out == nil {
		out = []HoughPeak{}
	}
	return out, nil
}

// Select is a convenience wrapper for Selector{minimum, maximum}.Select.
func Select(peaks []HoughPeak, minimum, maximum int) ([]HoughPeak, error) {
	return Selector{Minimum: minimum, Maximum: maximum}.Select(peaks)
}

// Sufficient reports whether n peaks satisfy the minimum.
func (s Selector) Sufficient(n int) bool { return n >= s.Minimum }
