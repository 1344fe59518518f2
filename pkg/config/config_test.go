package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"nucleitracker/internal/models"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Detection.Threshold != 0.5 {
		t.Errorf("Expected threshold 0.5, got %v", cfg.Detection.Threshold)
	}
	if cfg.Detection.CloseSize != 5 || cfg.Detection.OpenSize != 5 {
		t.Errorf("Expected 5x5 kernels, got close %d open %d", cfg.Detection.CloseSize, cfg.Detection.OpenSize)
	}
	if cfg.Processing.NumCores < 1 {
		t.Errorf("Expected at least one core, got %d", cfg.Processing.NumCores)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "nucleitracker.yaml")

	cfg := DefaultConfig()
	cfg.Detection.Channel = 2
	cfg.Detection.Threshold = 0.35
	cfg.Detection.MinArea = 20
	cfg.Output.SaveIntermediaryResults = true
	cfg.Visualization.LabelColor = "#ff8800"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, loaded) {
		t.Errorf("Expected loaded config %+v, got %+v", cfg, loaded)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults for a missing file, got %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("Expected default config")
	}
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("detection:\n  openSize: 3\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Detection.OpenSize != 3 || cfg.Detection.CloseSize != 5 {
		t.Errorf("Expected openSize 3 and default closeSize 5, got %d and %d", cfg.Detection.OpenSize, cfg.Detection.CloseSize)
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("detection:\n  threshold: 1.5\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadConfig(path); !errors.Is(err, models.ErrInvalidThreshold) {
		t.Errorf("Expected ErrInvalidThreshold, got %v", err)
	}

	if err := os.WriteFile(path, []byte("detection: [not, a, map]\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Errorf("Expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		edit func(c *Config)
		want error
	}{
		{"zero kernel", func(c *Config) { c.Detection.CloseSize = 0 }, models.ErrInvalidKernelSize},
		{"negative channel", func(c *Config) { c.Detection.Channel = -1 }, models.ErrInvalidChannelIndex},
		{"inverted area", func(c *Config) { c.Detection.MinArea, c.Detection.MaxArea = 50, 10 }, models.ErrInvalidInput},
		{"unknown backend", func(c *Config) { c.Processing.Backend = "cuda" }, models.ErrInvalidInput},
		{"missing intermediary dir", func(c *Config) {
			c.Output.SaveIntermediaryResults = true
			c.Output.IntermediaryDir = ""
		}, models.ErrInvalidInput},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.edit(cfg)
		if err := cfg.Validate(); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestDetectionParams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Detection.Channel = 1
	cfg.Detection.ZSlice = 4
	cfg.Detection.MaxArea = 500

	p := cfg.DetectionParams()
	if p.Selection.Channel != 1 || p.Selection.ZSlice != 4 || p.Selection.Frame != 0 {
		t.Errorf("Expected selection c=1 z=4 t=0, got %s", p.Selection)
	}
	if p.Threshold != cfg.Detection.Threshold || p.MaxArea != 500 {
		t.Errorf("Expected threshold and area bounds to carry over, got %+v", p)
	}
	if p.IntermediaryDir != cfg.Output.IntermediaryDir {
		t.Errorf("Expected intermediary dir %q, got %q", cfg.Output.IntermediaryDir, p.IntermediaryDir)
	}

	opts := cfg.RenderOptions()
	if !opts.ShowBoxes || opts.LabelColor != "blue" {
		t.Errorf("Expected default overlay options, got %+v", opts)
	}
}
