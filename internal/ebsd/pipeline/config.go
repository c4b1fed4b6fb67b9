package pipeline

import (
	"fmt"

	"github.com/banshee-data/kikuchi/internal/config"
	"github.com/banshee-data/kikuchi/internal/ebsd/crystal"
	"github.com/banshee-data/kikuchi/internal/ebsd/detector"
	"github.com/banshee-data/kikuchi/internal/ebsd/index"
	"github.com/banshee-data/kikuchi/internal/ebsd/peaks"
	"github.com/banshee-data/kikuchi/internal/ebsd/postprocess"
)

// Config gathers the per-stage configurations.
type Config struct {
	Extractor      peaks.ExtractorConfig
	Index          index.Config
	Reflectors     crystal.ReflectorConfig
	Geometry       detector.Geometry
	PostProcessors []string
	Workers        int // 0 means one per CPU
}

// DefaultConfig returns a Config populated from the built-in tuning
// defaults.
func DefaultConfig() Config {
	cfg, err := ConfigFromTuning(config.EmptyTuningConfig())
	if err != nil {
		panic(err)
	}
	return cfg
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) (Config, error) {
	ext, err := peaks.ExtractorConfigFromTuning(cfg)
	if err != nil {
		return Config{}, err
	}
	refl := crystal.DefaultReflectorConfig()
	refl.MaxIndex = cfg.GetMaxIndex()
	refl.MinIntensity = cfg.GetMinReflectorIntensity()
	if b := cfg.GetDebyeWallerB(); b > 0 {
		refl.Factors = crystal.GaussianFactors{B: b}
	}
	return Config{
		Extractor:  ext,
		Index:      index.ConfigFromTuning(cfg),
		Reflectors: refl,
		Geometry: detector.Geometry{
			PatternCenterX:   cfg.GetPatternCenterX(),
			PatternCenterY:   cfg.GetPatternCenterY(),
			DetectorDistance: cfg.GetDetectorDistance(),
		},
		PostProcessors: cfg.GetPostProcessors(),
		Workers:        cfg.GetWorkers(),
	}, nil
}

// Validate checks every stage configuration.
func (c Config) Validate() error {
	if err := c.Extractor.Validate(); err != nil {
		return fmt.Errorf("extractor: %w", err)
	}
	if err := c.Index.Validate(); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	if err := c.Reflectors.Validate(); err != nil {
		return fmt.Errorf("reflectors: %w", err)
	}
	if err := c.Geometry.Validate(); err != nil {
		return fmt.Errorf("geometry: %w", err)
	}
	if _, err := postprocess.ParseChain(c.PostProcessors); err != nil {
		return fmt.Errorf("post-processors: %w", err)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	return nil
}
