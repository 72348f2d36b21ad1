package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/page-splitter/pkg/export"
	"github.com/menta2k/page-splitter/pkg/types"
	"github.com/menta2k/page-splitter/pkg/vision"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "PAGESPLITTER_"

// Config holds the application configuration
type Config struct {
	Export    ExportConfig    `json:"export" yaml:"export"`
	Detection DetectionConfig `json:"detection" yaml:"detection"`
	Gutter    GutterConfig    `json:"gutter" yaml:"gutter"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

// ExportConfig holds the batch export defaults
type ExportConfig struct {
	Format    string `json:"format" yaml:"format"`
	Naming    string `json:"naming" yaml:"naming"`
	Prefix    string `json:"prefix" yaml:"prefix"`
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// DetectionConfig selects the vision model backend for page detection.
// An empty backend disables model detection; an empty URL uses the
// backend's local default.
type DetectionConfig struct {
	Backend     string `json:"backend" yaml:"backend"`
	URL         string `json:"url" yaml:"url"`
	Model       string `json:"model" yaml:"model"`
	SendFormat  string `json:"send_format" yaml:"send_format"`
	SendMaxSize int    `json:"send_max_size" yaml:"send_max_size"`
	SendQuality int    `json:"send_quality" yaml:"send_quality"`
}

// GutterConfig holds configuration for gutter detection
type GutterConfig struct {
	SearchBand  float64 `json:"search_band" yaml:"search_band"`
	Margin      float64 `json:"margin" yaml:"margin"`
	MinContrast float64 `json:"min_contrast" yaml:"min_contrast"`
	SampleWidth int     `json:"sample_width" yaml:"sample_width"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			Format: export.JPEG.String(),
			Naming: export.Sequence.String(),
		},
		Detection: DetectionConfig{
			Model:       "qwen2.5vl:7b",
			SendFormat:  "jpg",
			SendMaxSize: 1024,
			SendQuality: 85,
		},
		Gutter: GutterConfig{
			SearchBand:  0.3,
			Margin:      0.02,
			MinContrast: 0.08,
			SampleWidth: 600,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadFromFile loads configuration from a YAML or JSON file. Values absent
// from the file keep their defaults.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if isJSON(filename) {
		err = json.Unmarshal(data, config)
	} else {
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration as YAML, or JSON for a .json filename
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	if isJSON(filename) {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides fields from PAGESPLITTER_* environment variables.
// Unparseable numbers are reported and leave the field unchanged.
func (c *Config) ApplyEnv() error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}
	var errs []string
	num := func(name string, dst *int) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, EnvPrefix+name)
				return
			}
			*dst = n
		}
	}

	str("FORMAT", &c.Export.Format)
	str("NAMING", &c.Export.Naming)
	str("PREFIX", &c.Export.Prefix)
	str("OUTPUT_DIR", &c.Export.OutputDir)
	str("DETECTION_BACKEND", &c.Detection.Backend)
	str("DETECTION_URL", &c.Detection.URL)
	str("DETECTION_MODEL", &c.Detection.Model)
	str("SEND_FORMAT", &c.Detection.SendFormat)
	num("SEND_MAX_SIZE", &c.Detection.SendMaxSize)
	num("SEND_QUALITY", &c.Detection.SendQuality)
	str("LOG_LEVEL", &c.Log.Level)

	if len(errs) > 0 {
		return fmt.Errorf("invalid integer in %s", strings.Join(errs, ", "))
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := c.ExportOptions(); err != nil {
		return err
	}

	switch c.Detection.Backend {
	case "", "ollama", "llamacpp":
	default:
		return fmt.Errorf("detection.backend must be ollama or llamacpp, got %q", c.Detection.Backend)
	}

	if c.Detection.Backend != "" && c.Detection.Model == "" {
		return fmt.Errorf("detection.model is required when a backend is set")
	}

	if c.Detection.SendQuality < 1 || c.Detection.SendQuality > 100 {
		return fmt.Errorf("detection.send_quality must be between 1 and 100")
	}

	if c.Detection.SendMaxSize < 64 {
		return fmt.Errorf("detection.send_max_size must be at least 64")
	}

	if c.Gutter.SearchBand <= 0 || c.Gutter.SearchBand > 1 {
		return fmt.Errorf("gutter.search_band must be between 0 and 1")
	}

	if c.Gutter.Margin < 0 || c.Gutter.Margin >= 0.25 {
		return fmt.Errorf("gutter.margin must be between 0 and 0.25")
	}

	if _, err := c.LogLevel(); err != nil {
		return err
	}

	return nil
}

// ExportOptions converts the export section into pipeline options
func (c *Config) ExportOptions() (export.Options, error) {
	opts := export.DefaultOptions()

	format, err := export.ParseFormat(c.Export.Format)
	if err != nil {
		return opts, fmt.Errorf("export.format: %w", err)
	}
	naming, err := export.ParseFilenameMode(c.Export.Naming)
	if err != nil {
		return opts, fmt.Errorf("export.naming: %w", err)
	}

	opts.Format = format
	opts.FilenameMode = naming
	opts.CustomPrefix = c.Export.Prefix
	opts.OutputFolder = c.Export.OutputDir
	return opts, nil
}

// DetectionOptions returns the request settings for vision models
func (c *Config) DetectionOptions() types.DetectionOptions {
	return types.DetectionOptions{
		Model:       c.Detection.Model,
		SendFormat:  c.Detection.SendFormat,
		SendMaxSize: c.Detection.SendMaxSize,
		SendQuality: c.Detection.SendQuality,
	}
}

// VisionConfig returns the gutter detector settings
func (c *Config) VisionConfig() vision.DetectionConfig {
	return vision.DetectionConfig{
		SearchBand:  c.Gutter.SearchBand,
		Margin:      c.Gutter.Margin,
		MinContrast: c.Gutter.MinContrast,
		SampleWidth: c.Gutter.SampleWidth,
	}
}

// LogLevel parses the configured log level
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return level, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./page-splitter.yaml"
	}
	return filepath.Join(home, ".config", "page-splitter", "config.yaml")
}

func isJSON(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".json")
}
