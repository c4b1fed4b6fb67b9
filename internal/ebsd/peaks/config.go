package peaks

import (
	"fmt"

	"github.com/banshee-data/kikuchi/internal/config"
	"github.com/banshee-data/kikuchi/internal/ebsd/hough"
)

// ExtractorConfig holds the peak extraction and selection parameters.
type ExtractorConfig struct {
	Positioning       Positioning
	Connectivity      hough.Connectivity
	ThresholdFraction float64
	MinPeaks          int
	MaxPeaks          int
}

// DefaultExtractorConfig returns an ExtractorConfig populated from the
// built-in tuning defaults.
func DefaultExtractorConfig() ExtractorConfig {
	cfg, err := ExtractorConfigFromTuning(config.EmptyTuningConfig())
	if err != nil {
		panic(err)
	}
	return cfg
}

// ExtractorConfigFromTuning builds an ExtractorConfig from a loaded
// TuningConfig.
func ExtractorConfigFromTuning(cfg *config.TuningConfig) (ExtractorConfig, error) {
	p, err := ParsePositioning(cfg.GetPositioning())
	if err != nil {
		return ExtractorConfig{}, err
	}
	return ExtractorConfig{
		Positioning:       p,
		Connectivity:      hough.Connectivity(cfg.GetConnectivity()),
		ThresholdFraction: cfg.GetThresholdFraction(),
		MinPeaks:          cfg.GetMinPeaks(),
		MaxPeaks:          cfg.GetMaxPeaks(),
	}, nil
}

// Validate checks the strategy, connectivity, threshold and count bounds.
func (c ExtractorConfig) Validate() error {
	if !c.Positioning.Valid() {
		return fmt.Errorf("invalid positioning %v", c.Positioning)
	}
	if !c.Connectivity.Valid() {
		return fmt.Errorf("invalid connectivity %d", int(c.Connectivity))
	}
	if c.ThresholdFraction <= 0 || c.ThresholdFraction > 1 {
		return fmt.Errorf("threshold fraction must be in (0, 1], got %g", c.ThresholdFraction)
	}
	return c.Selector().Validate()
}

// Extractor builds the configured Extractor.
func (c ExtractorConfig) Extractor() *Extractor {
	return NewExtractor(c.Positioning, c.Connectivity)
}

// Selector builds the configured Selector.
func (c ExtractorConfig) Selector() Selector {
	return Selector{Minimum: c.MinPeaks, Maximum: c.MaxPeaks}
}
