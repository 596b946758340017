// Package scripting loads external library modules from Risor scripts.
//
// An identifier such as "./birds/song" is read from "birds/song.risor" in
// the loader's filesystem. The script's last expression is the module
// value. Two globals are available to every script: identifier (the name
// being loaded) and known (the modules the library has defined so far).
package scripting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/km-arc/go-library/framework/library"
)

// Extension is appended to an identifier to find its script.
const Extension = ".risor"

// ScriptLoader implements library.Loader on top of an fs.FS of scripts.
type ScriptLoader struct {
	fsys    fs.FS
	ctx     context.Context
	timeout time.Duration
	known   func() []string
	globals map[string]any
	logger  *log.Logger
}

// Option configures a ScriptLoader.
type Option func(*ScriptLoader)

// WithContext sets the parent context every script runs under.
func WithContext(ctx context.Context) Option {
	return func(s *ScriptLoader) { s.ctx = ctx }
}

// WithTimeout bounds each script evaluation.
func WithTimeout(d time.Duration) Option {
	return func(s *ScriptLoader) { s.timeout = d }
}

// WithKnown supplies the module names exposed to scripts as known.
// Typically lib.Modules.
func WithKnown(fn func() []string) Option {
	return func(s *ScriptLoader) { s.known = fn }
}

// WithGlobal exposes an extra global to every script.
func WithGlobal(name string, value any) Option {
	return func(s *ScriptLoader) { s.globals[name] = value }
}

// WithLogger routes load diagnostics to logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *ScriptLoader) { s.logger = logger }
}

// NewScriptLoader creates a loader reading scripts from fsys.
func NewScriptLoader(fsys fs.FS, opts ...Option) *ScriptLoader {
	s := &ScriptLoader{
		fsys:    fsys,
		ctx:     context.Background(),
		globals: map[string]any{},
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScriptPath maps an identifier to its script path inside the filesystem.
// It reports false for identifiers that would leave the filesystem root.
func ScriptPath(identifier string) (string, bool) {
	p := path.Clean(strings.TrimPrefix(identifier, "./"))
	if p == "." || p == ".." || strings.HasPrefix(p, "../") || strings.HasPrefix(p, "/") {
		return "", false
	}
	if !strings.HasSuffix(p, Extension) {
		p += Extension
	}
	return p, fs.ValidPath(p)
}

// Load implements library.Loader.
func (s *ScriptLoader) Load(identifier string) (library.Loaded, error) {
	p, ok := ScriptPath(identifier)
	if !ok {
		return library.Loaded{}, fmt.Errorf("scripting: %q is not a script identifier: %w", identifier, library.ErrNotFound)
	}

	src, err := fs.ReadFile(s.fsys, p)
	if errors.Is(err, fs.ErrNotExist) {
		return library.Loaded{}, fmt.Errorf("scripting: no script %s: %w", p, library.ErrNotFound)
	}
	if err != nil {
		return library.Loaded{}, fmt.Errorf("scripting: loading script %s: %w", p, err)
	}

	v, err := s.eval(identifier, p, string(src))
	if err != nil {
		return library.Loaded{}, err
	}
	s.logger.Debug("evaluated script", "identifier", identifier, "script", p, "type", fmt.Sprintf("%T", v))
	return library.Value(v), nil
}

func (s *ScriptLoader) eval(identifier, label, src string) (any, error) {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	globals := map[string]any{
		"identifier": object.NewString(identifier),
		"known":      stringList(s.knownNames()),
	}
	for k, v := range s.globals {
		globals[k] = v
	}

	names := make([]string, 0, len(globals))
	opts := make([]risor.Option, 0, len(globals)+1)
	for name, val := range globals {
		names = append(names, name)
		opts = append(opts, risor.WithGlobal(name, val))
	}
	opts = append(opts, risor.WithImporter(importer.NewFSImporter(importer.FSImporterOptions{
		GlobalNames: names,
		SourceFS:    s.fsys,
		Extensions:  []string{Extension},
	})))

	result, err := risor.Eval(ctx, src, opts...)
	if err != nil {
		return nil, fmt.Errorf("scripting: script %s: %w", label, err)
	}
	return toGo(result), nil
}

func (s *ScriptLoader) knownNames() []string {
	if s.known == nil {
		return nil
	}
	return s.known()
}

func stringList(items []string) *object.List {
	out := make([]object.Object, 0, len(items))
	for _, it := range items {
		out = append(out, object.NewString(it))
	}
	return object.NewList(out)
}

// toGo converts a script result to plain Go values: strings, int64,
// float64, bool, []any and map[string]any. Anything else is returned
// through its own Interface conversion.
func toGo(obj object.Object) any {
	switch v := obj.(type) {
	case nil, *object.NilType:
		return nil
	case *object.String:
		return v.Value()
	case *object.Int:
		return v.Value()
	case *object.Float:
		return v.Value()
	case *object.Bool:
		return v.Value()
	case *object.List:
		items := v.Value()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = toGo(item)
		}
		return out
	case *object.Map:
		items := v.Value()
		out := make(map[string]any, len(items))
		for k, item := range items {
			out[k] = toGo(item)
		}
		return out
	default:
		return obj.Interface()
	}
}
