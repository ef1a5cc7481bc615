package container

import (
	"context"
	"fmt"
	"log"

	"hrattrition/app"
	"hrattrition/domain/attrition"
	"hrattrition/internal"
	"hrattrition/internal/charts"
	"hrattrition/internal/config"
	"hrattrition/internal/dataset"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Data
	Loader  *dataset.Loader
	Cache   *dataset.Cache
	Watcher *dataset.Watcher

	// Presentation
	Fonts     *charts.FontProvider
	Renderer  *charts.Renderer
	Dashboard *app.DashboardService

	cancelWatch context.CancelFunc
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level)).With("Container")

	loader := dataset.NewLoader(attrition.DefaultSchema()).WithSheet(cfg.Data.Sheet)
	cache := dataset.NewCache(loader)
	fonts := charts.NewFontProvider(cfg.Font)
	renderer := charts.NewRenderer(fonts)

	c := &Container{
		Config:    cfg,
		Logger:    logger,
		Loader:    loader,
		Cache:     cache,
		Fonts:     fonts,
		Renderer:  renderer,
		Dashboard: app.NewDashboardService(cache, renderer, cfg.Data.File),
	}
	logger.Debug("Initialized for %s (sheet %q)", cfg.Data.File, cfg.Data.Sheet)
	return c, nil
}

// StartWatcher invalidates the memoized dataset whenever the data file
// changes. It is a no-op unless DATA_WATCH is set.
func (c *Container) StartWatcher(ctx context.Context) error {
	if !c.Config.Data.Watch {
		return nil
	}

	w, err := dataset.NewWatcher(c.Config.Data.File, c.Cache)
	if err != nil {
		return err
	}
	w.OnChange = func(path string) {
		c.Logger.Info("Data file %s changed; next request reloads it", path)
	}
	if err := w.Start(); err != nil {
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	c.Watcher = w
	c.cancelWatch = cancel
	go w.Run(watchCtx)
	return nil
}

// Warm loads the dataset and the chart font ahead of the first request.
// A load failure is logged, not returned: the dashboard reports it per request.
func (c *Container) Warm(ctx context.Context) {
	c.Fonts.Font()
	if _, err := c.Dashboard.Dataset(ctx); err != nil {
		c.Logger.Warn("Initial load of %s failed: %v", c.Config.Data.File, err)
		return
	}
	c.Logger.Info("Dataset %s loaded", c.Config.Data.File)
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.cancelWatch != nil {
		c.cancelWatch()
	}
	log.Printf("[Container] Shut down")
	return nil
}
