package providers

import (
	"github.com/charmbracelet/log"

	"github.com/km-arc/go-library/framework/config"
	"github.com/km-arc/go-library/framework/inspect"
	"github.com/km-arc/go-library/framework/library"
	"github.com/km-arc/go-library/framework/manifest"
)

// ── ConfigProvider ────────────────────────────────────────────────────────────

// ConfigProvider defines the application configuration.
//
// Modules:
//   - "config" → *config.Config
type ConfigProvider struct {
	BaseProvider
	Config *config.Config
}

func (p *ConfigProvider) Register(lib *library.Library) error {
	cfg := p.Config
	_, err := lib.Define("config", nil, func(...any) (any, error) { return cfg, nil })
	return err
}

// ── LoggerProvider ────────────────────────────────────────────────────────────

// LoggerProvider defines the application logger.
//
// Modules:
//   - "logger" → *log.Logger
type LoggerProvider struct {
	BaseProvider
	Logger *log.Logger
}

func (p *LoggerProvider) Register(lib *library.Library) error {
	logger := p.Logger
	_, err := lib.Define("logger", nil, func(...any) (any, error) { return logger, nil })
	return err
}

// ── ManifestProvider ──────────────────────────────────────────────────────────

// ManifestProvider defines every module declared in an HCL manifest. An
// empty Path registers nothing.
type ManifestProvider struct {
	BaseProvider
	Path  string
	Table manifest.FactoryTable // defaults to manifest.Builtins()
}

func (p *ManifestProvider) Register(lib *library.Library) error {
	if p.Path == "" {
		return nil
	}
	f, err := manifest.LoadFile(p.Path)
	if err != nil {
		return err
	}
	table := p.Table
	if table == nil {
		table = manifest.Builtins()
	}
	return f.Apply(lib, table)
}

// ── InspectProvider ───────────────────────────────────────────────────────────

// InspectProvider lazily defines the inspect HTTP server the first time
// "inspect" is needed.
//
// Modules:
//   - "inspect" → *inspect.Server (depends on "logger")
type InspectProvider struct {
	BaseProvider
}

func (p *InspectProvider) Register(lib *library.Library) error {
	_, err := lib.Define("inspect", library.Names("logger"), library.Func(func(logger *log.Logger) *inspect.Server {
		return inspect.NewServer(lib, logger)
	}))
	return err
}

func (p *InspectProvider) Provides() []string { return []string{"inspect"} }
func (p *InspectProvider) IsDeferred() bool   { return true }
