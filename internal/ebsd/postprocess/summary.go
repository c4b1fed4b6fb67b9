package postprocess

import (
	"github.com/banshee-data/kikuchi/internal/ebsd/index"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the Solution set of one pattern.
type Summary struct {
	Solutions    int     `json:"solutions"`
	Peaks        int     `json:"peaks"`
	BestMatches  int     `json:"best_matches"`
	MeanMatches  float64 `json:"mean_matches"`
	StdMatches   float64 `json:"std_matches"`
	MeanResidual float64 `json:"mean_residual"`
	StdResidual  float64 `json:"std_residual"`
	// ConfidenceIndex is (V1 - V2) / pairs, where V1 and V2 are the match
	// counts of the first two Solutions and pairs is the number of
	// observed pairs the peaks form.
	ConfidenceIndex float64 `json:"confidence_index"`
}

// Summarize computes dispersion statistics over sols, which must be
// ranked, for a pattern that yielded peaks observed bands.
func Summarize(sols []index.Solution, peaks int) Summary {
	s := Summary{Solutions: len(sols), Peaks: peaks}
	if len(sols) == 0 {
		return s
	}
	matches := make([]float64, len(sols))
	residuals := make([]float64, len(sols))
	for i, sol := range sols {
		matches[i] = float64(sol.Matches)
		residuals[i] = sol.Residual
	}
	s.BestMatches = sols[0].Matches
	if len(sols) > 1 {
		s.MeanMatches, s.StdMatches = stat.MeanStdDev(matches, nil)
		s.MeanResidual, s.StdResidual = stat.MeanStdDev(residuals, nil)
	} else {
		s.MeanMatches, s.MeanResidual = matches[0], residuals[0]
	}

	if pairs := index.MaxPairs(peaks); pairs > 0 {
		v2 := 0
		if len(sols) > 1 {
			v2 = sols[1].Matches
		}
		ci := float64(sols[0].Matches-v2) / float64(pairs)
		if ci < 0 {
			ci = 0
		}
		s.ConfidenceIndex = ci
	}
	return s
}
