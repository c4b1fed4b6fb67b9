package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/banshee-data/kikuchi/internal/ebsd/crystal"
	"github.com/banshee-data/kikuchi/internal/ebsd/hough"
	"github.com/banshee-data/kikuchi/internal/ebsd/index"
	"github.com/banshee-data/kikuchi/internal/ebsd/peaks"
	"github.com/banshee-data/kikuchi/internal/ebsd/postprocess"
	"github.com/banshee-data/kikuchi/internal/monitoring"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrNoPhases is returned by New when no crystal is given.
var ErrNoPhases = errors.New("pipeline needs at least one phase")

// Pattern is one Hough accumulator to index. Mask may be nil, in which
// case the accumulator is thresholded at the configured fraction.
type Pattern struct {
	ID          string
	Accumulator *hough.Accumulator
	Mask        *hough.Mask
}

// Result is the outcome for one pattern.
type Result struct {
	RunID     string              `json:"run_id"`
	PatternID string              `json:"pattern_id"`
	Found     int                 `json:"found"` // peaks before selection
	Peaks     []peaks.HoughPeak   `json:"peaks"`
	Solutions []index.Solution    `json:"-"`
	Summary   postprocess.Summary `json:"summary"`
}

// Indexed reports whether at least one Solution survived post-processing.
func (r Result) Indexed() bool { return len(r.Solutions) > 0 }

// Batch is the outcome of ProcessBatch. Results holds the patterns that
// completed, in input order.
type Batch struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Results  []Result
}

// Pipeline runs the indexing stages. It is safe for concurrent use.
type Pipeline struct {
	cfg       Config
	tables    []*crystal.Tables
	extractor peaks.Identifier
	selector  peaks.Selector
	indexer   *index.Indexer
	post      postprocess.Processor
}

// New validates cfg and builds the reflector tables of every phase.
func New(cfg Config, phases ...*crystal.Crystal) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(phases) == 0 {
		return nil, ErrNoPhases
	}
	ix, err := index.NewIndexer(cfg.Index)
	if err != nil {
		return nil, err
	}
	post, err := postprocess.ParseChain(cfg.PostProcessors)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:       cfg,
		extractor: cfg.Extractor.Extractor(),
		selector:  cfg.Extractor.Selector(),
		indexer:   ix,
		post:      post,
	}
	for _, c := range phases {
		t, err := crystal.BuildTables(c, cfg.Reflectors)
		if err != nil {
			return nil, fmt.Errorf("phase %s: %w", c.Name(), err)
		}
		monitoring.Logf("[pipeline] phase %s: %d reflectors, %d equivalent planes, %d angle pairs",
			c.Name(), len(t.Reflectors), len(t.Planes), len(t.Pairs))
		p.tables = append(p.tables, t)
	}
	return p, nil
}

// Tables returns the tables built for each phase, in phase order.
func (p *Pipeline) Tables() []*crystal.Tables {
	return append([]*crystal.Tables(nil), p.tables...)
}

// Process indexes one pattern. Too few peaks or no solution is a normal
// Result with no Solutions; errors are reserved for malformed input.
func (p *Pipeline) Process(pat Pattern) (Result, error) {
	res := Result{PatternID: pat.ID, Peaks: []peaks.HoughPeak{}, Solutions: []index.Solution{}}
	if pat.Accumulator == nil {
		return res, fmt.Errorf("pattern %q has no accumulator", pat.ID)
	}
	mask := pat.Mask
	if mask == nil {
		mask = hough.Threshold(pat.Accumulator, p.cfg.Extractor.ThresholdFraction)
	}

	found, err := p.extractor.Identify(mask, pat.Accumulator)
	if err != nil {
		return res, fmt.Errorf("pattern %q: %w", pat.ID, err)
	}
	res.Found = len(found)
	selected, err := p.selector.Select(found)
	if err != nil {
		return res, err
	}
	res.Peaks = selected
	if !p.selector.Sufficient(len(selected)) {
		monitoring.Debugf("pattern %q: %d peaks, need %d", pat.ID, len(selected), p.selector.Minimum)
		res.Summary = postprocess.Summarize(nil, len(selected))
		return res, nil
	}

	normals, err := p.cfg.Geometry.Normals(selected)
	if err != nil {
		return res, err
	}
	var ranked []index.Solution
	for _, t := range p.tables {
		ranked = append(ranked, p.indexer.Index(normals, t)...)
	}
	// Phases are indexed independently; merge them into one ranking.
	sort.SliceStable(ranked, func(i, j int) bool { return index.Better(ranked[i], ranked[j]) })

	res.Summary = postprocess.Summarize(ranked, len(selected))
	res.Solutions = p.post.Process(ranked)
	monitoring.Debugf("pattern %q: %d peaks, %d solutions, %d kept", pat.ID, len(selected), len(ranked), len(res.Solutions))
	return res, nil
}

// ProcessBatch indexes patterns on up to Workers goroutines. Cancelling
// ctx stops new patterns from starting, including those waiting for a
// worker; patterns already running finish.
// The first pattern error also stops submission and is returned with the
// partial Batch.
func (p *Pipeline) ProcessBatch(ctx context.Context, patterns []Pattern) (*Batch, error) {
	b := &Batch{RunID: uuid.New().String(), Started: time.Now()}
	workers := p.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(patterns))
	done := make([]bool, len(patterns))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range patterns {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// Patterns queued for a worker slot are skipped once the
			// batch is cancelled.
			if gctx.Err() != nil {
				return nil
			}
			r, err := p.Process(patterns[i])
			if err != nil {
				return err
			}
			r.RunID = b.RunID
			results[i] = r
			done[i] = true
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	for i, ok := range done {
		if ok {
			b.Results = append(b.Results, results[i])
		}
	}
	b.Finished = time.Now()
	monitoring.Logf("[pipeline] run %s: %d/%d patterns in %v", b.RunID, len(b.Results), len(patterns), b.Finished.Sub(b.Started))
	return b, err
}

// IndexedCount returns how many results carry at least one Solution.
func (b *Batch) IndexedCount() int {
	n := 0
	for _, r := range b.Results {
		if r.Indexed() {
			n++
		}
	}
	return n
}
