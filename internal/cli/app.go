package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ppiankov/ifhere/internal/cache"
	"github.com/ppiankov/ifhere/internal/content"
	"github.com/ppiankov/ifhere/internal/model"
	"github.com/ppiankov/ifhere/internal/pipeline"
	"github.com/ppiankov/ifhere/internal/refdata"
)

// app holds the components shared by commands
type app struct {
	cfg      *model.Config
	logger   *slog.Logger
	ref      *refdata.Store
	stories  *content.Library
	pipeline *pipeline.Pipeline
}

// newApp loads config, reference data and stories
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Log, os.Stderr)

	ref, err := refdata.Load(cfg.Reference.Path, cfg.Reference.DefaultCountry)
	if err != nil {
		return nil, fmt.Errorf("load reference data: %w", err)
	}
	ref.WithLogger(logger)

	lib, err := content.Load(cfg.Content.Dir)
	if err != nil {
		return nil, fmt.Errorf("load stories: %w", err)
	}
	logger.Debug("loaded stories", "count", lib.Len(), "dir", cfg.Content.Dir)

	p := pipeline.NewPipeline(lib, ref).
		WithCache(cache.New(cfg.Cache)).
		WithLogger(logger)

	return &app{cfg: cfg, logger: logger, ref: ref, stories: lib, pipeline: p}, nil
}
