package providers

import (
	"fmt"
	"sync"

	"github.com/km-arc/go-library/framework/library"
)

// ── Provider interface ────────────────────────────────────────────────────────

// Provider contributes module definitions to a library.
//
// Register defines modules and must not resolve anything. Boot runs after
// every eager provider has registered, so it may resolve modules.
//
//	type ClockProvider struct{ providers.BaseProvider }
//
//	func (p *ClockProvider) Register(lib *library.Library) error {
//	    _, err := lib.Define("clock", nil, library.Func(time.Now))
//	    return err
//	}
type Provider interface {
	Register(lib *library.Library) error

	// Boot is called after all providers are registered.
	Boot(lib *library.Library) error

	// Provides returns the module names a deferred provider defines.
	Provides() []string

	// IsDeferred returns true if the provider should only register when
	// one of its Provides() names is first needed.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct with no-op Boot, Provides and
// IsDeferred.
type BaseProvider struct{}

func (p *BaseProvider) Boot(*library.Library) error { return nil }
func (p *BaseProvider) Provides() []string          { return nil }
func (p *BaseProvider) IsDeferred() bool            { return false }

// ── Registry ──────────────────────────────────────────────────────────────────

// Registry registers and boots providers against one library. It is also
// a library.Loader: when the library meets an unknown name that a deferred
// provider provides, the provider registers and the module is handed back.
type Registry struct {
	lib *library.Library

	mu         sync.Mutex
	eager      []Provider
	deferred   map[string]Provider // module name → provider
	registered map[Provider]bool
	booted     bool
}

// NewRegistry creates a registry bound to lib.
func NewRegistry(lib *library.Library) *Registry {
	return &Registry{
		lib:        lib,
		deferred:   make(map[string]Provider),
		registered: make(map[Provider]bool),
	}
}

// Register adds a provider and calls its Register method, unless deferred.
// Registering the same provider twice is a no-op.
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	if r.registered[p] {
		r.mu.Unlock()
		return nil
	}
	r.registered[p] = true

	if p.IsDeferred() {
		for _, name := range p.Provides() {
			r.deferred[name] = p
		}
		r.mu.Unlock()
		return nil
	}
	r.eager = append(r.eager, p)
	booted := r.booted
	r.mu.Unlock()

	if err := p.Register(r.lib); err != nil {
		return fmt.Errorf("providers: registering %T: %w", p, err)
	}
	// Late providers boot immediately.
	if booted {
		return r.boot(p)
	}
	return nil
}

// Boot calls Boot on every eager provider, once.
func (r *Registry) Boot() error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	eager := append([]Provider(nil), r.eager...)
	r.mu.Unlock()

	for _, p := range eager {
		if err := r.boot(p); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) boot(p Provider) error {
	if err := p.Boot(r.lib); err != nil {
		return fmt.Errorf("providers: booting %T: %w", p, err)
	}
	return nil
}

// Booted returns true if Boot has been called.
func (r *Registry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns the eager providers in registration order.
func (r *Registry) Providers() []Provider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Provider(nil), r.eager...)
}

// Deferred returns the names still waiting on a deferred provider.
func (r *Registry) Deferred() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.deferred))
	for n := range r.deferred {
		names = append(names, n)
	}
	return names
}

// Load implements library.Loader for deferred providers. A provider whose
// Register fails stays deferred, so a later lookup tries it again.
func (r *Registry) Load(identifier string) (library.Loaded, error) {
	r.mu.Lock()
	p, ok := r.deferred[identifier]
	r.mu.Unlock()

	if !ok {
		return library.Loaded{}, fmt.Errorf("no deferred provider for %q: %w", identifier, library.ErrNotFound)
	}

	if err := p.Register(r.lib); err != nil {
		return library.Loaded{}, fmt.Errorf("providers: registering %T: %w", p, err)
	}

	r.mu.Lock()
	for _, name := range p.Provides() {
		delete(r.deferred, name)
	}
	booted := r.booted
	r.mu.Unlock()

	if booted {
		if err := r.boot(p); err != nil {
			return library.Loaded{}, err
		}
	}

	m, defined := r.lib.Module(identifier)
	if !defined {
		return library.Loaded{}, fmt.Errorf("providers: %T provides %q but did not define it: %w", p, identifier, library.ErrNotFound)
	}
	return library.Foreign(m), nil
}
