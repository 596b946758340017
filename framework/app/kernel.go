package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/km-arc/go-library/framework/config"
	"github.com/km-arc/go-library/framework/inspect"
	"github.com/km-arc/go-library/framework/library"
	"github.com/km-arc/go-library/framework/loader"
	"github.com/km-arc/go-library/framework/logging"
	"github.com/km-arc/go-library/framework/providers"
	"github.com/km-arc/go-library/framework/scripting"
)

// ErrInspectDisabled is returned by Serve when INSPECT_ENABLED is off.
var ErrInspectDisabled = errors.New("app: inspect server is disabled")

// Application is the root library plus everything that feeds it: the
// provider registry, the script loader and an in-memory value table.
//
// Unknown names are looked up in order: deferred providers, scripts (when
// LIBRARY_SCRIPTS_DIR is set), then Values.
type Application struct {
	*library.Library
	Providers *providers.Registry
	Values    *loader.MapLoader

	config *config.Config
}

// New loads configuration from envFiles and the environment, then
// bootstraps the application.
func New(envFiles ...string) (*Application, error) {
	cfg := config.Load(envFiles...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg, logger)
}

// NewWithConfig bootstraps the application from an already loaded config.
func NewWithConfig(cfg *config.Config, logger *log.Logger) (*Application, error) {
	a := &Application{config: cfg, Values: loader.NewMapLoader()}

	loaders := []library.Loader{library.LoaderFunc(func(id string) (library.Loaded, error) {
		return a.Providers.Load(id)
	})}
	if dir := cfg.Library.ScriptsDir; dir != "" {
		loaders = append(loaders, scripting.NewScriptLoader(os.DirFS(dir),
			scripting.WithKnown(func() []string { return a.Modules() }),
			scripting.WithLogger(logger),
			scripting.WithTimeout(cfg.Library.ScriptTimeout),
		))
	}
	loaders = append(loaders, a.Values)

	a.Library = library.New(
		library.WithLoader(loader.Chain(loaders...)),
		library.WithLogger(logger),
	)
	a.Providers = providers.NewRegistry(a.Library)

	// Core providers, in dependency order.
	for _, p := range []providers.Provider{
		&providers.ConfigProvider{Config: cfg},
		&providers.LoggerProvider{Logger: logger},
		&providers.ManifestProvider{Path: cfg.Library.Manifest},
		&providers.InspectProvider{},
	} {
		if err := a.Providers.Register(p); err != nil {
			return nil, err
		}
	}

	logger.Debug("application created", "name", cfg.App.Name, "env", cfg.App.Env, "scope", a.ID())
	return a, nil
}

// Register adds a provider to the application.
func (a *Application) Register(p providers.Provider) error {
	return a.Providers.Register(p)
}

// Boot runs the Boot phase on all providers.
func (a *Application) Boot() error {
	return a.Providers.Boot()
}

// Config returns the configuration the application was built with.
func (a *Application) Config() *config.Config { return a.config }

// Serve boots the application if needed and runs the inspect server on
// INSPECT_PORT until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	if !a.config.Inspect.Enabled {
		return ErrInspectDisabled
	}
	if !a.Providers.Booted() {
		if err := a.Boot(); err != nil {
			return err
		}
	}
	srv, err := library.Resolve[*inspect.Server](a.Library, "inspect")
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	return srv.ListenAndServe(ctx, ":"+a.config.Inspect.Port)
}

// Environment returns the APP_ENV value.
func (a *Application) Environment() string { return a.config.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.config.App.Debug }
