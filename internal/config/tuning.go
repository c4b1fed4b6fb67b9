package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for indexing parameters.
// Every field is optional; the Get* methods supply defaults for fields
// the file leaves out.
type TuningConfig struct {
	// Peak extraction params
	Positioning       *string  `json:"positioning,omitempty"` // "local_centroid" or "center_of_mass"
	Connectivity      *int     `json:"connectivity,omitempty"`
	ThresholdFraction *float64 `json:"threshold_fraction,omitempty"`
	MinPeaks          *int     `json:"min_peaks,omitempty"`
	MaxPeaks          *int     `json:"max_peaks,omitempty"`

	// Indexing params
	AngularToleranceDeg        *float64 `json:"angular_tolerance_deg,omitempty"`
	MinMatchCount              *int     `json:"min_match_count,omitempty"`
	DuplicateMisorientationDeg *float64 `json:"duplicate_misorientation_deg,omitempty"`

	// Reflector table params
	MaxIndex              *int     `json:"max_index,omitempty"`
	MinReflectorIntensity *float64 `json:"min_reflector_intensity,omitempty"`
	DebyeWallerB          *float64 `json:"debye_waller_b,omitempty"` // Å², 0 means Z-only scattering

	// Post-processing, applied in order
	PostProcessors []string `json:"post_processors,omitempty"` // "best", "by_fit", "top:N", "min_matches:N"

	// Batch params
	Workers *int `json:"workers,omitempty"` // 0 means one per CPU

	// Detector calibration, in pixels
	PatternCenterX   *float64 `json:"pattern_center_x,omitempty"`
	PatternCenterY   *float64 `json:"pattern_center_y,omitempty"`
	DetectorDistance *float64 `json:"detector_distance,omitempty"`

	// Hough grid used by simulated patterns
	ThetaBins   *int `json:"theta_bins,omitempty"`
	RhoBins     *int `json:"rho_bins,omitempty"`
	ImageWidth  *int `json:"image_width,omitempty"`
	ImageHeight *int `json:"image_height,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,             // from cmd/ebsd-index/
		"../../" + DefaultConfigPath,          // from internal/config/
		"../../../" + DefaultConfigPath,       // from internal/ebsd/index/
		"../../../../" + DefaultConfigPath,    // from internal/ebsd/storage/sqlite/
		"../../../../../" + DefaultConfigPath, // even deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.Positioning != nil {
		switch *c.Positioning {
		case "local_centroid", "center_of_mass":
		default:
			return fmt.Errorf("positioning must be local_centroid or center_of_mass, got %q", *c.Positioning)
		}
	}

	if c.Connectivity != nil && *c.Connectivity != 4 && *c.Connectivity != 8 {
		return fmt.Errorf("connectivity must be 4 or 8, got %d", *c.Connectivity)
	}

	if c.ThresholdFraction != nil {
		if *c.ThresholdFraction <= 0 || *c.ThresholdFraction > 1 {
			return fmt.Errorf("threshold_fraction must be in (0, 1], got %f", *c.ThresholdFraction)
		}
	}

	// Peak count bounds are checked against each other with defaults filled in.
	if c.GetMinPeaks() < 0 || c.GetMaxPeaks() < 0 {
		return fmt.Errorf("min_peaks and max_peaks must be non-negative, got %d and %d", c.GetMinPeaks(), c.GetMaxPeaks())
	}
	if c.GetMinPeaks() > c.GetMaxPeaks() {
		return fmt.Errorf("min_peaks (%d) must not exceed max_peaks (%d)", c.GetMinPeaks(), c.GetMaxPeaks())
	}

	if c.AngularToleranceDeg != nil {
		if *c.AngularToleranceDeg <= 0 || *c.AngularToleranceDeg >= 90 {
			return fmt.Errorf("angular_tolerance_deg must be in (0, 90), got %f", *c.AngularToleranceDeg)
		}
	}

	if c.MinMatchCount != nil && *c.MinMatchCount < 1 {
		return fmt.Errorf("min_match_count must be at least 1, got %d", *c.MinMatchCount)
	}

	if c.DuplicateMisorientationDeg != nil && *c.DuplicateMisorientationDeg < 0 {
		return fmt.Errorf("duplicate_misorientation_deg must be non-negative, got %f", *c.DuplicateMisorientationDeg)
	}

	if c.MaxIndex != nil && *c.MaxIndex < 1 {
		return fmt.Errorf("max_index must be at least 1, got %d", *c.MaxIndex)
	}

	if c.MinReflectorIntensity != nil {
		if *c.MinReflectorIntensity < 0 || *c.MinReflectorIntensity > 1 {
			return fmt.Errorf("min_reflector_intensity must be between 0 and 1, got %f", *c.MinReflectorIntensity)
		}
	}

	if c.DebyeWallerB != nil && *c.DebyeWallerB < 0 {
		return fmt.Errorf("debye_waller_b must be non-negative, got %f", *c.DebyeWallerB)
	}

	for i, name := range c.PostProcessors {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("post_processors[%d] is empty", i)
		}
	}

	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}

	if c.DetectorDistance != nil && *c.DetectorDistance <= 0 {
		return fmt.Errorf("detector_distance must be positive, got %f", *c.DetectorDistance)
	}

	for _, f := range []struct {
		name string
		v    *int
	}{
		{"theta_bins", c.ThetaBins},
		{"rho_bins", c.RhoBins},
		{"image_width", c.ImageWidth},
		{"image_height", c.ImageHeight},
	} {
		if f.v != nil && *f.v < 1 {
			return fmt.Errorf("%s must be positive, got %d", f.name, *f.v)
		}
	}

	return nil
}

// GetPositioning returns the positioning value or the default.
func (c *TuningConfig) GetPositioning() string {
	if c.Positioning == nil || *c.Positioning == "" {
		return "local_centroid"
	}
	return *c.Positioning
}

// GetConnectivity returns the connectivity value or the default.
func (c *TuningConfig) GetConnectivity() int {
	if c.Connectivity == nil {
		return 8
	}
	return *c.Connectivity
}

// GetThresholdFraction returns the threshold_fraction value or the default.
func (c *TuningConfig) GetThresholdFraction() float64 {
	if c.ThresholdFraction == nil {
		return 0.5
	}
	return *c.ThresholdFraction
}

// GetMinPeaks returns the min_peaks value or the default.
func (c *TuningConfig) GetMinPeaks() int {
	if c.MinPeaks == nil {
		return 3
	}
	return *c.MinPeaks
}

// GetMaxPeaks returns the max_peaks value or the default.
func (c *TuningConfig) GetMaxPeaks() int {
	if c.MaxPeaks == nil {
		return 8
	}
	return *c.MaxPeaks
}

// GetAngularToleranceDeg returns the angular_tolerance_deg value or the default.
func (c *TuningConfig) GetAngularToleranceDeg() float64 {
	if c.AngularToleranceDeg == nil {
		return 2.0
	}
	return *c.AngularToleranceDeg
}

// GetMinMatchCount returns the min_match_count value or the default.
func (c *TuningConfig) GetMinMatchCount() int {
	if c.MinMatchCount == nil {
		return 3
	}
	return *c.MinMatchCount
}

// GetDuplicateMisorientationDeg returns the duplicate_misorientation_deg value or the default.
func (c *TuningConfig) GetDuplicateMisorientationDeg() float64 {
	if c.DuplicateMisorientationDeg == nil {
		return 3.0
	}
	return *c.DuplicateMisorientationDeg
}

// GetMaxIndex returns the max_index value or the default.
func (c *TuningConfig) GetMaxIndex() int {
	if c.MaxIndex == nil {
		return 4
	}
	return *c.MaxIndex
}

// GetMinReflectorIntensity returns the min_reflector_intensity value or the default.
func (c *TuningConfig) GetMinReflectorIntensity() float64 {
	if c.MinReflectorIntensity == nil {
		return 0.05
	}
	return *c.MinReflectorIntensity
}

// GetDebyeWallerB returns the debye_waller_b value or the default.
func (c *TuningConfig) GetDebyeWallerB() float64 {
	if c.DebyeWallerB == nil {
		return 0
	}
	return *c.DebyeWallerB
}

// GetPostProcessors returns a copy of the post_processors list or the default.
func (c *TuningConfig) GetPostProcessors() []string {
	if c.PostProcessors == nil {
		return []string{"best"}
	}
	return append([]string(nil), c.PostProcessors...)
}

// GetWorkers returns the workers value or the default (0, one per CPU).
func (c *TuningConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetPatternCenterX returns the pattern_center_x value or the default.
func (c *TuningConfig) GetPatternCenterX() float64 {
	if c.PatternCenterX == nil {
		return 0
	}
	return *c.PatternCenterX
}

// GetPatternCenterY returns the pattern_center_y value or the default.
func (c *TuningConfig) GetPatternCenterY() float64 {
	if c.PatternCenterY == nil {
		return 0
	}
	return *c.PatternCenterY
}

// GetDetectorDistance returns the detector_distance value or the default.
func (c *TuningConfig) GetDetectorDistance() float64 {
	if c.DetectorDistance == nil {
		return 300
	}
	return *c.DetectorDistance
}

// GetThetaBins returns the theta_bins value or the default.
func (c *TuningConfig) GetThetaBins() int {
	if c.ThetaBins == nil {
		return 180
	}
	return *c.ThetaBins
}

// GetRhoBins returns the rho_bins value or the default.
func (c *TuningConfig) GetRhoBins() int {
	if c.RhoBins == nil {
		return 241
	}
	return *c.RhoBins
}

// GetImageWidth returns the image_width value or the default.
func (c *TuningConfig) GetImageWidth() int {
	if c.ImageWidth == nil {
		return 480
	}
	return *c.ImageWidth
}

// GetImageHeight returns the image_height value or the default.
func (c *TuningConfig) GetImageHeight() int {
	if c.ImageHeight == nil {
		return 480
	}
	return *c.ImageHeight
}
