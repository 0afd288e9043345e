package app

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"

	"github.com/vk/ocrbridge/configurations"
	"github.com/vk/ocrbridge/internal/assembler"
	"github.com/vk/ocrbridge/internal/config"
	"github.com/vk/ocrbridge/internal/ctxlog"
	"github.com/vk/ocrbridge/internal/engine"
	"github.com/vk/ocrbridge/internal/recordstore"
	"github.com/vk/ocrbridge/internal/scheduler"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	logger   *slog.Logger
	config   *Config
	settings *config.Settings
	store    *config.Store
	records  recordstore.Store

	scheduler         scheduler.Scheduler
	schedulerInjected bool
	runner            engine.Runner
	assembler         *assembler.Assembler
	evaluator         *engine.Evaluator

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// Option customizes an App at construction time.
type Option func(*options)

type options struct {
	decoders  []config.Decoder
	scheduler scheduler.Scheduler
	runner    engine.Runner
}

// WithDecoders sets the descriptor decoders, in order of preference.
func WithDecoders(decoders ...config.Decoder) Option {
	return func(o *options) { o.decoders = append(o.decoders, decoders...) }
}

// WithScheduler replaces the scheduler that Run would otherwise dial.
func WithScheduler(s scheduler.Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

// WithRunner replaces the process runner used for synchronous evaluation.
func WithRunner(r engine.Runner) Option {
	return func(o *options) { o.runner = r }
}

// NewApp is the constructor for the main application. It loads the settings
// and the descriptors and returns a fully initialized App with its own
// isolated logger. A settings file that cannot be loaded is a fatal startup
// error and panics.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, opts ...Option) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	settings, err := loader.Load(ctx, appConfig.SettingsPath)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	if appConfig.ResourcesPath != "" {
		settings.Resources = appConfig.ResourcesPath
	}
	logger.Debug("Settings loaded.", "path", appConfig.SettingsPath, "resources", settings.Resources)

	store := config.NewStore(ctx, descriptorSources(ctx, settings.Resources), o.decoders...)
	logger.Info("Descriptors loaded.", "available", store.Available())

	records, err := recordstore.New(settings)
	if err != nil {
		panic(fmt.Errorf("failed to create engine record store: %w", err))
	}

	a := &App{
		logger:   logger,
		config:   appConfig,
		settings: settings,
		store:    store,
		records:  records,
		runner:   o.runner,

		schedulerInjected: o.scheduler != nil,
	}
	a.useScheduler(o.scheduler)
	return a
}

// useScheduler (re)builds the components that depend on the scheduler.
func (a *App) useScheduler(s scheduler.Scheduler) {
	if s == nil {
		s = scheduler.Disabled{}
	}
	a.scheduler = s
	a.assembler = assembler.New(a.settings, a.store, s, a.records)
	a.evaluator = engine.NewEvaluator(a.assembler, a.runner)
}

// Settings returns the loaded settings. This is primarily for testing.
func (a *App) Settings() *config.Settings {
	return a.settings
}

// Store returns the descriptor store. This is primarily for testing.
func (a *App) Store() *config.Store {
	return a.store
}

// descriptorSources returns the override directory, when it exists, followed
// by the embedded defaults.
func descriptorSources(ctx context.Context, dir string) []fs.FS {
	var sources []fs.FS
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			sources = append(sources, os.DirFS(dir))
		} else {
			ctxlog.FromContext(ctx).Warn("Descriptor override directory not found; using embedded defaults.", "path", dir)
		}
	}
	return append(sources, configurations.FS)
}
