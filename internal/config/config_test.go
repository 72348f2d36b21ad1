package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/menta2k/page-splitter/pkg/export"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	opts, err := cfg.ExportOptions()
	require.NoError(t, err)
	require.Equal(t, export.DefaultOptions(), opts)
}

func TestLoadYAMLKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
export:
  format: png
  naming: original-custom
  prefix: scan
detection:
  backend: llamacpp
  model: qwen
`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	opts, err := cfg.ExportOptions()
	require.NoError(t, err)
	require.Equal(t, export.PNG, opts.Format)
	require.Equal(t, export.OriginalAndCustom, opts.FilenameMode)
	require.Equal(t, "scan", opts.CustomPrefix)

	require.Equal(t, "llamacpp", cfg.Detection.Backend)
	require.Equal(t, 1024, cfg.Detection.SendMaxSize)
	require.Equal(t, 0.3, cfg.VisionConfig().SearchBand)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Export.OutputDir = "/tmp/out"
	cfg.Log.Level = "debug"

	for _, name := range []string{"nested/config.yaml", "config.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, cfg.SaveToFile(path))

		loaded, err := LoadFromFile(path)
		require.NoError(t, err, name)
		require.Equal(t, cfg, loaded, name)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadFromFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	_, err = LoadFromFile(bad)
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PAGESPLITTER_FORMAT", "png")
	t.Setenv("PAGESPLITTER_PREFIX", "vol1")
	t.Setenv("PAGESPLITTER_DETECTION_BACKEND", "ollama")
	t.Setenv("PAGESPLITTER_SEND_MAX_SIZE", "2048")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	require.Equal(t, "png", cfg.Export.Format)
	require.Equal(t, "vol1", cfg.Export.Prefix)
	require.Equal(t, "ollama", cfg.Detection.Backend)
	require.Equal(t, 2048, cfg.DetectionOptions().SendMaxSize)

	t.Setenv("PAGESPLITTER_SEND_QUALITY", "high")
	cfg = Default()
	require.ErrorContains(t, cfg.ApplyEnv(), "PAGESPLITTER_SEND_QUALITY")
	require.Equal(t, 85, cfg.Detection.SendQuality)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"format", func(c *Config) { c.Export.Format = "tiff" }},
		{"naming", func(c *Config) { c.Export.Naming = "random" }},
		{"backend", func(c *Config) { c.Detection.Backend = "openai" }},
		{"model", func(c *Config) { c.Detection.Backend = "ollama"; c.Detection.Model = "" }},
		{"quality", func(c *Config) { c.Detection.SendQuality = 0 }},
		{"max size", func(c *Config) { c.Detection.SendMaxSize = 10 }},
		{"band", func(c *Config) { c.Gutter.SearchBand = 0 }},
		{"margin", func(c *Config) { c.Gutter.Margin = 0.5 }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "DEBUG"
	level, err := cfg.LogLevel()
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, level)

	cfg.Log.Level = ""
	level, err = cfg.LogLevel()
	require.NoError(t, err)
	require.Equal(t, slog.LevelInfo, level)
}
