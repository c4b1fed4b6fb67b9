package postprocess

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/kikuchi/internal/ebsd/index"
)

// ErrUnknownProcessor is returned by ParseProcessor for an unrecognised name.
var ErrUnknownProcessor = errors.New("unknown post-processor")

// Processor transforms a ranked Solution slice.
type Processor interface {
	Process(sols []index.Solution) []index.Solution
	Name() string
}

var (
	_ Processor = Best{}
	_ Processor = Top{}
	_ Processor = MinimumMatches{}
	_ Processor = ByFit{}
	_ Processor = Chain(nil)
)

// clone copies sols deeply so callers may keep the input.
func clone(sols []index.Solution) []index.Solution {
	out := make([]index.Solution, len(sols))
	for i, s := range sols {
		out[i] = s.Clone()
	}
	return out
}

// Best keeps the top-ranked Solution only.
type Best struct{}

func (Best) Name() string { return "best" }

func (Best) Process(sols []index.Solution) []index.Solution {
	if len(sols) == 0 {
		return []index.Solution{}
	}
	return clone(sols[:1])
}

// Top keeps the first N Solutions.
type Top struct{ N int }

func (t Top) Name() string { return fmt.Sprintf("top:%d", t.N) }

func (t Top) Process(sols []index.Solution) []index.Solution {
	n := t.N
	if n < 0 {
		n = 0
	}
	if n > len(sols) {
		n = len(sols)
	}
	return clone(sols[:n])
}

// MinimumMatches drops Solutions with fewer than N matched pairs.
type MinimumMatches struct{ N int }

func (m MinimumMatches) Name() string { return fmt.Sprintf("min_matches:%d", m.N) }

func (m MinimumMatches) Process(sols []index.Solution) []index.Solution {
	out := make([]index.Solution, 0, len(sols))
	for _, s := range sols {
		if s.Matches >= m.N {
			out = append(out, s.Clone())
		}
	}
	return out
}

// ByFit re-ranks by mean band deviation ascending, then by the incoming
// order.
type ByFit struct{}

func (ByFit) Name() string { return "by_fit" }

func (ByFit) Process(sols []index.Solution) []index.Solution {
	out := clone(sols)
	sort.SliceStable(out, func(i, j int) bool { return out[i].MeanDeviation() < out[j].MeanDeviation() })
	return out
}

// Chain applies its processors in order.
type Chain []Processor

func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name()
	}
	return strings.Join(names, ",")
}

func (c Chain) Process(sols []index.Solution) []index.Solution {
	out := clone(sols)
	for _, p := range c {
		out = p.Process(out)
	}
	return out
}

// ParseProcessor builds a Processor from its configuration name: "best",
// "by_fit", "top:N" or "min_matches:N".
func ParseProcessor(name string) (Processor, error) {
	key, arg, hasArg := strings.Cut(strings.TrimSpace(name), ":")
	switch key {
	case "best", "by_fit":
		if hasArg {
			return nil, fmt.Errorf("%w: %q takes no argument", ErrUnknownProcessor, name)
		}
		if key == "best" {
			return Best{}, nil
		}
		return ByFit{}, nil
	case "top", "min_matches":
		n, err := strconv.Atoi(arg)
		if !hasArg || err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q needs a non-negative count", ErrUnknownProcessor, name)
		}
		if key == "top" {
			return Top{N: n}, nil
		}
		return MinimumMatches{N: n}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProcessor, name)
}

// ParseChain parses every name and returns them as one Chain.
func ParseChain(names []string) (Chain, error) {
	c := make(Chain, 0, len(names))
	for _, n := range names {
		p, err := ParseProcessor(n)
		if err != nil {
			return nil, err
		}
		c = append(c, p)
	}
	return c, nil
}
