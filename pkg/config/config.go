// Package config provides configuration loading and management for nucleitracker.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"nucleitracker/internal/models"
	"nucleitracker/pkg/bioimage"
	"nucleitracker/pkg/detection"
	"nucleitracker/pkg/visualization"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Detection parameters
	Detection struct {
		// Channel, ZSlice and Frame select the plane to analyse
		Channel int `yaml:"channel"`
		ZSlice  int `yaml:"zSlice"`
		Frame   int `yaml:"frame"`

		// Threshold is the binarization cut on normalized intensity, in (0,1)
		Threshold float64 `yaml:"threshold"`

		// CloseSize is the side of the square closing element
		CloseSize int `yaml:"closeSize"`

		// OpenSize is the diameter of the elliptical opening element
		OpenSize int `yaml:"openSize"`

		// MinArea and MaxArea bound nucleus size in pixels; 0 disables a bound
		MinArea int `yaml:"minArea"`
		MaxArea int `yaml:"maxArea"`
	} `yaml:"detection"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many channels are processed in parallel
		NumCores int `yaml:"numCores"`

		// Backend selects the morphology and labeling implementation:
		// "native" or "opencv" (requires the opencv build tag)
		Backend string `yaml:"backend"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// SaveIntermediaryResults determines whether to save the binary,
		// cleaned and label images of every run
		SaveIntermediaryResults bool `yaml:"saveIntermediaryResults"`

		// IntermediaryDir is where intermediary results are written
		IntermediaryDir string `yaml:"intermediaryDir"`

		// Verbose switches the log level to debug
		Verbose bool `yaml:"verbose"`

		// LogLevel is a zerolog level name; ignored when Verbose is set
		LogLevel string `yaml:"logLevel"`
	} `yaml:"output"`

	// Visualization parameters for the overlay image
	Visualization struct {
		ShowCentroids bool   `yaml:"showCentroids"`
		ShowBoxes     bool   `yaml:"showBoxes"`
		ShowLabels    bool   `yaml:"showLabels"`
		LabelColor    string `yaml:"labelColor"`
	} `yaml:"visualization"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	params := detection.DefaultParams()
	cfg.Detection.Threshold = params.Threshold
	cfg.Detection.CloseSize = params.CloseSize
	cfg.Detection.OpenSize = params.OpenSize

	cfg.Processing.NumCores = runtime.NumCPU() // Use all available cores by default
	cfg.Processing.Backend = "native"

	cfg.Output.SaveIntermediaryResults = false
	cfg.Output.IntermediaryDir = params.IntermediaryDir
	cfg.Output.Verbose = false
	cfg.Output.LogLevel = "info"

	opts := visualization.DefaultOptions()
	cfg.Visualization.ShowCentroids = opts.ShowCentroids
	cfg.Visualization.ShowBoxes = opts.ShowBoxes
	cfg.Visualization.ShowLabels = opts.ShowLabels
	cfg.Visualization.LabelColor = opts.LabelColor

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// Validate checks values that the stages would otherwise reject at run time.
func (c *Config) Validate() error {
	d := c.Detection
	if math.IsNaN(d.Threshold) || d.Threshold <= 0 || d.Threshold >= 1 {
		return fmt.Errorf("%w: threshold %v must lie in (0,1)", models.ErrInvalidThreshold, d.Threshold)
	}
	if d.CloseSize < 1 || d.OpenSize < 1 {
		return fmt.Errorf("%w: closeSize %d and openSize %d must be positive", models.ErrInvalidKernelSize, d.CloseSize, d.OpenSize)
	}
	if d.Channel < 0 || d.ZSlice < 0 || d.Frame < 0 {
		return fmt.Errorf("%w: channel, zSlice and frame must be non-negative", models.ErrInvalidChannelIndex)
	}
	if d.MinArea < 0 || d.MaxArea < 0 || (d.MaxArea > 0 && d.MaxArea < d.MinArea) {
		return fmt.Errorf("%w: area bounds [%d,%d]", models.ErrInvalidInput, d.MinArea, d.MaxArea)
	}
	switch c.Processing.Backend {
	case "", "native", "opencv":
	default:
		return fmt.Errorf("%w: unknown backend %q", models.ErrInvalidInput, c.Processing.Backend)
	}
	if c.Output.SaveIntermediaryResults && c.Output.IntermediaryDir == "" {
		return fmt.Errorf("%w: intermediaryDir is required when saving intermediary results", models.ErrInvalidInput)
	}
	return nil
}

// DetectionParams builds the pipeline parameters for this configuration.
func (c *Config) DetectionParams() detection.Params {
	return detection.Params{
		Selection: bioimage.Selection{
			Channel: c.Detection.Channel,
			ZSlice:  c.Detection.ZSlice,
			Frame:   c.Detection.Frame,
		},
		Threshold:               c.Detection.Threshold,
		CloseSize:               c.Detection.CloseSize,
		OpenSize:                c.Detection.OpenSize,
		MinArea:                 c.Detection.MinArea,
		MaxArea:                 c.Detection.MaxArea,
		SaveIntermediaryResults: c.Output.SaveIntermediaryResults,
		IntermediaryDir:         c.Output.IntermediaryDir,
	}
}

// RenderOptions builds the overlay options for this configuration.
func (c *Config) RenderOptions() visualization.Options {
	return visualization.Options{
		ShowCentroids: c.Visualization.ShowCentroids,
		ShowBoxes:     c.Visualization.ShowBoxes,
		ShowLabels:    c.Visualization.ShowLabels,
		LabelColor:    c.Visualization.LabelColor,
	}
}
