package peaks

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func intensities(ps []HoughPeak) []float64 {
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = p.Intensity
	}
	return out
}

func TestSelect_TruncatesByIntensity(t *testing.T) {
	in := []HoughPeak{
		{Theta: 0, Intensity: 3},
		{Theta: 1, Intensity: 9},
		{Theta: 2, Intensity: 5},
		{Theta: 3, Intensity: 9},
		{Theta: 4, Intensity: 1},
	}
	got, err := Select(in, 1, 3)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	want := []HoughPeak{
		{Theta: 1, Intensity: 9},
		{Theta: 3, Intensity: 9},
		{Theta: 2, Intensity: 5},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Select mismatch (-want +got):\n%s", diff)
	}
	if in[0].Intensity != 3 || in[1].Intensity != 9 {
		t.Errorf("input was modified: %v", intensities(in))
	}
}

func TestSelect_LengthBounds(t *testing.T) {
	in := make([]HoughPeak, 7)
	for i := range in {
		in[i] = HoughPeak{Intensity: float64(i % 3)}
	}
	for available := 0; available <= len(in); available++ {
		for minimum := 0; minimum <= 8; minimum++ {
			for maximum := minimum; maximum <= 8; maximum++ {
				got, err := Select(in[:available], minimum, maximum)
				if err != nil {
					t.Fatalf("Select(%d, %d, %d): %v", available, minimum, maximum, err)
				}
				if len(got) > maximum {
					t.Fatalf("Select(%d, %d, %d) returned %d peaks", available, minimum, maximum, len(got))
				}
				if want := min(maximum, available); len(got) != want {
					t.Fatalf("Select(%d, %d, %d) len = %d, want %d", available, minimum, maximum, len(got), want)
				}
			}
		}
	}
}

func TestSelect_InvalidBounds(t *testing.T) {
	for _, b := range [][2]int{{-1, 3}, {4, 2}, {0, -1}} {
		if _, err := Select(nil, b[0], b[1]); !errors.Is(err, ErrInvalidBounds) {
			t.Errorf("Select(nil, %d, %d) error = %v, want ErrInvalidBounds", b[0], b[1], err)
		}
	}
}

func TestSelect_Empty(t *testing.T) {
	got, err := Select(nil, 3, 5)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Select(nil) = %v, want empty slice", got)
	}
	if (Selector{Minimum: 3, Maximum: 5}).Sufficient(2) {
		t.Error("2 peaks should not satisfy a minimum of 3")
	}
}
