// Package loader provides library.Loader implementations that serve
// identifiers a library does not define itself.
package loader

import (
	"errors"
	"fmt"
	"sync"

	"github.com/km-arc/go-library/framework/library"
)

// ErrLoaderPanic is returned if a provided function panics while loading.
var ErrLoaderPanic = errors.New("loader: panic during Load")

// MapLoader is a simple in-memory table of identifiers.
type MapLoader struct {
	mu    sync.RWMutex
	items map[string]func() (library.Loaded, error)
}

func NewMapLoader() *MapLoader {
	return &MapLoader{items: map[string]func() (library.Loaded, error){}}
}

// Provide stores an opaque value under identifier and returns the loader
// for chaining.
func (m *MapLoader) Provide(identifier string, v any) *MapLoader {
	return m.set(identifier, func() (library.Loaded, error) { return library.Value(v), nil })
}

// ProvideModule stores a module from another library under identifier.
func (m *MapLoader) ProvideModule(identifier string, mod *library.Module) *MapLoader {
	return m.set(identifier, func() (library.Loaded, error) { return library.Foreign(mod), nil })
}

// ProvideFunc stores a function that builds the value the first time the
// identifier is loaded. The library caches the result, so fn runs once per
// scope at most.
func (m *MapLoader) ProvideFunc(identifier string, fn func() (any, error)) *MapLoader {
	return m.set(identifier, func() (library.Loaded, error) {
		v, err := fn()
		if err != nil {
			return library.Loaded{}, err
		}
		return library.Value(v), nil
	})
}

func (m *MapLoader) set(identifier string, load func() (library.Loaded, error)) *MapLoader {
	m.mu.Lock()
	m.items[identifier] = load
	m.mu.Unlock()
	return m
}

// Has reports whether identifier is in the table.
func (m *MapLoader) Has(identifier string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.items[identifier]
	return ok
}

// Load implements library.Loader and converts panics into errors.
func (m *MapLoader) Load(identifier string) (loaded library.Loaded, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			loaded = library.Loaded{}
			err = fmt.Errorf("%w: %v", ErrLoaderPanic, rec)
		}
	}()

	m.mu.RLock()
	load, ok := m.items[identifier]
	m.mu.RUnlock()
	if !ok {
		return library.Loaded{}, fmt.Errorf("cannot find module '%s': %w", identifier, library.ErrNotFound)
	}
	return load()
}

// Chain tries each loader in order. The first one that does not report
// not-found wins; if all of them do, the last not-found error is returned.
func Chain(loaders ...library.Loader) library.Loader {
	return library.LoaderFunc(func(identifier string) (library.Loaded, error) {
		err := fmt.Errorf("cannot find module '%s': %w", identifier, library.ErrNotFound)
		for _, l := range loaders {
			if l == nil {
				continue
			}
			var loaded library.Loaded
			loaded, err = l.Load(identifier)
			if err == nil || !errors.Is(err, library.ErrNotFound) {
				return loaded, err
			}
		}
		return library.Loaded{}, err
	})
}

// ModuleLoader exposes the modules defined in lib as foreign modules, so a
// second library can share lib's definitions while keeping its own
// singletons. Identifiers lib has aliased are followed to their module.
func ModuleLoader(lib *library.Library) library.Loader {
	return library.LoaderFunc(func(identifier string) (library.Loaded, error) {
		name := identifier
		if target, ok := lib.Alias(identifier); ok {
			name = target
		}
		if m, ok := lib.Module(name); ok {
			return library.Foreign(m), nil
		}
		return library.Loaded{}, fmt.Errorf("%s does not define %q: %w", lib.ID(), identifier, library.ErrNotFound)
	})
}
