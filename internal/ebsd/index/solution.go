package index

import (
	"fmt"

	"github.com/banshee-data/kikuchi/internal/ebsd/crystal"
	"gonum.org/v1/gonum/spatial/r3"
)

// Correspondence binds one observed band to a reflector plane.
type Correspondence struct {
	Peak      int           // index into the observed normals
	Reflector int           // index into Tables.Reflectors
	Plane     crystal.Plane // equivalent plane, signed to face the observed normal
	// Deviation is the angle in radians between the observed normal and
	// the plane normal rotated into the sample frame.
	Deviation float64
}

// Solution is one orientation hypothesis for a crystal. Solutions are
// values; post-processors copy rather than modify them.
type Solution struct {
	Crystal     *crystal.Crystal
	Orientation crystal.Rotation // crystal to sample
	// Matches is the number of observed pairs whose assigned planes agree
	// with the observed interplanar angle.
	Matches int
	// Residual is the sum of |observed - theoretical| direction cosines
	// over the matched pairs.
	Residual        float64
	Correspondences []Correspondence
}

// Euler returns the Bunge Euler angles of the orientation in radians.
func (s Solution) Euler() (phi1, Phi, phi2 float64) { return s.Orientation.Euler() }

// MeanDeviation is the mean band-to-plane angle over all correspondences,
// or 0 when there are none.
func (s Solution) MeanDeviation() float64 {
	if len(s.Correspondences) == 0 {
		return 0
	}
	var sum float64
	for _, c := range s.Correspondences {
		sum += c.Deviation
	}
	return sum / float64(len(s.Correspondences))
}

// Clone returns a copy that shares no slices with s.
func (s Solution) Clone() Solution {
	s.Correspondences = append([]Correspondence(nil), s.Correspondences...)
	return s
}

// Predicted returns the sample-frame normal of the plane of correspondence
// c under this orientation.
func (s Solution) Predicted(c Correspondence) r3.Vec {
	return s.Orientation.Apply(s.Crystal.Normal(c.Plane))
}

func (s Solution) String() string {
	phi1, Phi, phi2 := s.Euler()
	name := "<nil>"
	if s.Crystal != nil {
		name = s.Crystal.Name()
	}
	return fmt.Sprintf("%s matches=%d residual=%.4g euler=(%.2f, %.2f, %.2f)°",
		name, s.Matches, s.Residual, deg(phi1), deg(Phi), deg(phi2))
}

// Better reports whether a ranks strictly ahead of b: more matches, then a
// smaller residual.
func Better(a, b Solution) bool {
	if a.Matches != b.Matches {
		return a.Matches > b.Matches
	}
	return a.Residual < b.Residual
}
