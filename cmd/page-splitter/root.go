package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	pagesplitter "github.com/menta2k/page-splitter"
	"github.com/menta2k/page-splitter/internal/config"
	"github.com/menta2k/page-splitter/internal/utils"
	"github.com/menta2k/page-splitter/pkg/client"
	"github.com/menta2k/page-splitter/pkg/detection"
	"github.com/menta2k/page-splitter/pkg/llamacpp"
	"github.com/menta2k/page-splitter/pkg/ollama"
	"github.com/menta2k/page-splitter/pkg/vision"
)

// app carries the state shared by all subcommands
type app struct {
	configPath string
	verbose    bool
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "page-splitter",
		Short: "Split scanned book pages into separate images",
		Long: `Page Splitter crops every scan in a folder with one or two rectangles
and writes the results as numbered JPEG or PNG files.

Crop geometry is given in normalized coordinates (fractions of the image
size), set once and applied to every page, or found per page from the
binding gutter or a vision model.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return a.init()
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (yaml or json)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newExportCmd(a))
	cmd.AddCommand(newPreviewCmd(a))
	cmd.AddCommand(newListCmd(a))

	return cmd
}

func (a *app) init() error {
	cfg := config.Default()
	path := a.configPath
	if path == "" && utils.FileExists(config.GetConfigPath()) {
		path = config.GetConfigPath()
	}
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := cfg.LogLevel()
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)
	a.cfg = cfg

	if path != "" {
		a.logger.Debug("Loaded config", "path", path)
	}
	return nil
}

// newSession builds a session wired to the configured detectors
func (a *app) newSession() (*pagesplitter.Session, error) {
	s := pagesplitter.New()
	s.SetLogger(a.logger)
	s.SetGutterDetector(vision.NewWithConfig(a.cfg.VisionConfig()))

	if a.cfg.Detection.Backend != "" {
		vc, err := newVisionClient(a.cfg.Detection.Backend, a.cfg.Detection.URL)
		if err != nil {
			return nil, err
		}
		s.SetDetector(detection.NewDetector(vc), a.cfg.DetectionOptions())
	}
	return s, nil
}

// loadSession builds a session, loads folder and applies the crop flags
func (a *app) loadSession(cmd *cobra.Command, folder string, crops *cropFlags) (*pagesplitter.Session, error) {
	if !utils.DirExists(folder) {
		return nil, fmt.Errorf("not a folder: %s", folder)
	}

	s, err := a.newSession()
	if err != nil {
		return nil, err
	}
	if _, err := s.Load(folder); err != nil {
		return nil, err
	}
	if err := crops.apply(cmd, s); err != nil {
		return nil, err
	}
	return s, nil
}

func newVisionClient(backend, url string) (client.VisionClient, error) {
	switch backend {
	case "ollama":
		if url == "" {
			url = "http://localhost:11434"
		}
		c, err := ollama.NewClient(url)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return c, nil
	case "llamacpp":
		c, err := llamacpp.NewClient(url)
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown backend: %s (use 'ollama' or 'llamacpp')", backend)
	}
}
