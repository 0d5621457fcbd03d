package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	imageannotator "github.com/menta2k/image-annotator"
	"github.com/menta2k/image-annotator/internal/config"
	"github.com/menta2k/image-annotator/internal/imagesource"
	"github.com/menta2k/image-annotator/internal/logging"
	"github.com/menta2k/image-annotator/internal/metrics"
	"github.com/menta2k/image-annotator/internal/store"
	"github.com/menta2k/image-annotator/pkg/client"
	"github.com/menta2k/image-annotator/pkg/detection"
	"github.com/menta2k/image-annotator/pkg/llamacpp"
	"github.com/menta2k/image-annotator/pkg/ollama"
	"github.com/menta2k/image-annotator/pkg/processing"
	"github.com/menta2k/image-annotator/pkg/types"
	"github.com/menta2k/image-annotator/pkg/vision"
)

// app holds what the subcommands share once the config is loaded.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	metrics   *metrics.Metrics
	annotator *imageannotator.Annotator
}

func (a *app) init(cmd *cobra.Command, f flags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("images") {
		cfg.Images.Dir = f.imagesDir
	}
	if cmd.Flags().Changed("db-driver") {
		cfg.Store.Driver = f.driver
	}
	if cmd.Flags().Changed("dsn") {
		cfg.Store.DSN = f.dsn
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg
	a.logger = logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(a.logger)

	st, err := store.Open(cfg.Store.Driver, cfg.Store.DSN, a.logger)
	if err != nil {
		return err
	}
	a.store = st

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if a.metrics, err = metrics.New(reg); err != nil {
		return err
	}

	backend, err := newBackend(cfg.Prelabel)
	if err != nil {
		return err
	}

	src := imagesource.New(cfg.Images.Dir, cfg.Images.Extensions, a.logger)
	a.annotator = imageannotator.New(src, st,
		imageannotator.WithLogger(a.logger),
		imageannotator.WithMetrics(a.metrics),
		imageannotator.WithBackend(backend),
	)
	return nil
}

// sync scans the image directory; every subcommand starts from a fresh scan.
func (a *app) sync(ctx context.Context) ([]store.ImageSummary, error) {
	return a.annotator.Sync(ctx)
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// newBackend builds the pre-labeling backend named in the config.
func newBackend(cfg config.PrelabelConfig) (detection.Backend, error) {
	switch cfg.Backend {
	case "saliency":
		return detection.NewSaliencyBackend(vision.New(), cfg.MinBoxArea), nil
	case "ollama", "llamacpp":
		var (
			c   client.VisionClient
			err error
		)
		if cfg.Backend == "ollama" {
			c, err = ollama.NewClient(cfg.URL, nil)
		} else {
			c, err = llamacpp.NewClient(cfg.URL, nil)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create %s client: %w", cfg.Backend, err)
		}
		img := types.ModelImageConfig{Format: cfg.SendFormat, MaxDim: cfg.SendMaxDim, Quality: cfg.SendQuality}
		return detection.NewLLMBackend(c, processing.NewProcessor(), cfg.Model, img, cfg.MinBoxArea), nil
	default:
		return nil, fmt.Errorf("unknown pre-labeling backend %q", cfg.Backend)
	}
}

// findImage resolves an image by id or by its path relative to the image directory.
func findImage(images []store.ImageSummary, ref string) (store.ImageSummary, error) {
	for _, img := range images {
		if img.ID == ref || img.Name == ref {
			return img, nil
		}
	}
	return store.ImageSummary{}, fmt.Errorf("%w: %s", store.ErrImageNotFound, ref)
}
