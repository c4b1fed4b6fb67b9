// Command ebsd-index simulates Kikuchi band patterns for known
// orientations, indexes them against one or more crystal phases and
// reports how well the recovered orientations agree.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/banshee-data/kikuchi/internal/config"
	"github.com/banshee-data/kikuchi/internal/ebsd/crystal"
	"github.com/banshee-data/kikuchi/internal/ebsd/monitor"
	"github.com/banshee-data/kikuchi/internal/ebsd/pipeline"
	"github.com/banshee-data/kikuchi/internal/ebsd/simulate"
	"github.com/banshee-data/kikuchi/internal/ebsd/storage/sqlite"
	"github.com/banshee-data/kikuchi/internal/monitoring"
	"github.com/banshee-data/kikuchi/internal/units"
	"github.com/banshee-data/kikuchi/internal/version"
)

var (
	configPath  = flag.String("config", "", "Tuning config JSON (defaults are used when empty)")
	dbPath      = flag.String("db", "", "Crystal library database; presets are seeded into it")
	phases      = flag.String("phases", "Silicon", "Comma-separated phase names to index against")
	simPhase    = flag.String("simulate", "", "Phase used to simulate patterns (default: first of -phases)")
	numPatterns = flag.Int("patterns", 16, "Number of patterns to simulate")
	seed        = flag.Int64("seed", 1, "Random seed for simulated orientations")
	jsonOut     = flag.String("json", "", "Write results as JSON to this file")
	plotDir     = flag.String("plot", "", "Write accumulator PNGs to this directory")
	reportPath  = flag.String("report", "", "Write an HTML batch report to this file")
	angleUnits  = flag.String("angle-units", units.Degrees, "Units for reported angles: "+units.GetValidUnitsString())
	debug       = flag.Bool("debug", false, "Enable debug logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// patternRecord is the JSON form of one indexed pattern.
type patternRecord struct {
	pipeline.Result
	TrueEuler   [3]float64      `json:"true_euler"`
	Ranked      []solutionEntry `json:"solutions"`
	Error       *float64        `json:"error,omitempty"`
	Phase       string          `json:"phase,omitempty"`
	BandsDrawn  int             `json:"bands_drawn"`
	Correct     bool            `json:"correct"`
	Description string          `json:"description,omitempty"`
}

type solutionEntry struct {
	Phase    string     `json:"phase"`
	Euler    [3]float64 `json:"euler"`
	Matches  int        `json:"matches"`
	Residual float64    `json:"residual"`
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("ebsd-index"))
		return
	}
	monitoring.SetDebug(*debug)
	if !units.IsValid(*angleUnits) {
		log.Fatalf("invalid -angle-units %q, want one of %s", *angleUnits, units.GetValidUnitsString())
	}

	tuning := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	cfg, err := pipeline.ConfigFromTuning(tuning)
	if err != nil {
		log.Fatalf("pipeline config: %v", err)
	}

	names := splitNames(*phases)
	if len(names) == 0 {
		log.Fatal("at least one phase is required")
	}
	lookup, closeLib, err := phaseSource(*dbPath)
	if err != nil {
		log.Fatalf("crystal library: %v", err)
	}
	defer closeLib()

	crystals := make([]*crystal.Crystal, 0, len(names))
	for _, n := range names {
		c, err := lookup(n)
		if err != nil {
			log.Fatalf("phase %q: %v", n, err)
		}
		crystals = append(crystals, c)
	}
	simName := *simPhase
	if simName == "" {
		simName = names[0]
	}
	simCrystal, err := lookup(simName)
	if err != nil {
		log.Fatalf("simulation phase %q: %v", simName, err)
	}

	p, err := pipeline.New(cfg, crystals...)
	if err != nil {
		log.Fatalf("build pipeline: %v", err)
	}
	simTables, err := crystal.BuildTables(simCrystal, cfg.Reflectors)
	if err != nil {
		log.Fatalf("simulation tables: %v", err)
	}

	grid := simulate.GridFromTuning(tuning)
	rng := rand.New(rand.NewSource(*seed))
	patterns := make([]pipeline.Pattern, 0, *numPatterns)
	truth := make(map[string]crystal.Rotation, *numPatterns)
	drawn := make(map[string]int, *numPatterns)
	for i := 0; i < *numPatterns; i++ {
		rot := randomOrientation(rng)
		acc, bands, err := simulate.Pattern(simTables, rot, cfg.Geometry, grid, simulate.DefaultOptions())
		if err != nil {
			log.Printf("pattern %d skipped: %v", i, err)
			continue
		}
		id := fmt.Sprintf("p%04d", i)
		patterns = append(patterns, pipeline.Pattern{ID: id, Accumulator: acc})
		truth[id] = rot
		drawn[id] = len(bands)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	batch, err := p.ProcessBatch(ctx, patterns)
	if err != nil {
		log.Printf("batch stopped early: %v", err)
	}

	tolerance := cfg.Index.AngularTolerance * 2
	records := make([]patternRecord, 0, len(batch.Results))
	correct := 0
	for _, r := range batch.Results {
		rec := newRecord(r, truth[r.PatternID], simCrystal, tolerance, *angleUnits)
		rec.BandsDrawn = drawn[r.PatternID]
		if rec.Correct {
			correct++
		}
		records = append(records, rec)
		fmt.Println(rec.Description)
	}
	fmt.Printf("run %s: indexed %d/%d, correct %d\n", batch.RunID, batch.IndexedCount(), len(batch.Results), correct)

	if *jsonOut != "" {
		if err := writeJSON(*jsonOut, records); err != nil {
			log.Fatalf("write json: %v", err)
		}
	}
	if *plotDir != "" {
		byID := make(map[string]pipeline.Pattern, len(patterns))
		for _, pat := range patterns {
			byID[pat.ID] = pat
		}
		for _, r := range batch.Results {
			path := filepath.Join(*plotDir, r.PatternID+".png")
			if err := monitor.PlotAccumulator(byID[r.PatternID].Accumulator, r.Peaks, r.PatternID, path); err != nil {
				log.Printf("plot %s: %v", r.PatternID, err)
			}
		}
	}
	if *reportPath != "" {
		if err := monitor.SaveReport(*reportPath, batch); err != nil {
			log.Fatalf("write report: %v", err)
		}
	}
}

// phaseSource returns a lookup for crystals by name. With a database path
// the library is opened and seeded with presets; otherwise the built-in
// presets are used directly.
func phaseSource(path string) (func(string) (*crystal.Crystal, error), func(), error) {
	if path == "" {
		presets := crystal.Presets()
		return func(name string) (*crystal.Crystal, error) {
			c, ok := presets[name]
			if !ok {
				return nil, fmt.Errorf("unknown preset (have %s)", strings.Join(presetNames(presets), ", "))
			}
			return c, nil
		}, func() {}, nil
	}
	lib, err := sqlite.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if _, err := lib.SeedPresets(); err != nil {
		lib.Close()
		return nil, nil, err
	}
	return lib.Get, func() {
		if err := lib.Close(); err != nil {
			log.Printf("close library: %v", err)
		}
	}, nil
}

func newRecord(r pipeline.Result, rot crystal.Rotation, c *crystal.Crystal, tolerance float64, unit string) patternRecord {
	rec := patternRecord{Result: r, Ranked: make([]solutionEntry, 0, len(r.Solutions))}
	rec.TrueEuler = euler(rot, unit)
	for _, s := range r.Solutions {
		rec.Ranked = append(rec.Ranked, solutionEntry{
			Phase:    s.Crystal.Name(),
			Euler:    euler(s.Orientation, unit),
			Matches:  s.Matches,
			Residual: s.Residual,
		})
	}
	if len(r.Solutions) == 0 {
		rec.Description = fmt.Sprintf("%s: %d peaks, not indexed", r.PatternID, len(r.Peaks))
		return rec
	}
	best := r.Solutions[0]
	rec.Phase = best.Crystal.Name()
	if best.Crystal.Name() == c.Name() {
		e := crystal.Misorientation(best.Orientation, rot, c.Rotations())
		v := units.ConvertAngle(e, unit)
		rec.Error = &v
		rec.Correct = e <= tolerance
	}
	rec.Description = fmt.Sprintf("%s: %d peaks, %s", r.PatternID, len(r.Peaks), best)
	if rec.Error != nil {
		rec.Description += fmt.Sprintf(" err=%.3f %s", *rec.Error, unit)
	}
	return rec
}

// randomOrientation draws a rotation uniformly from SO(3).
func randomOrientation(rng *rand.Rand) crystal.Rotation {
	phi1 := rng.Float64() * 2 * math.Pi
	Phi := math.Acos(2*rng.Float64() - 1)
	phi2 := rng.Float64() * 2 * math.Pi
	return crystal.RotationFromEuler(phi1, Phi, phi2)
}

func euler(r crystal.Rotation, unit string) [3]float64 {
	a, b, c := r.Euler()
	return [3]float64{units.ConvertAngle(a, unit), units.ConvertAngle(b, unit), units.ConvertAngle(c, unit)}
}

func splitNames(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func presetNames(m map[string]*crystal.Crystal) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
