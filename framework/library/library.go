package library

import (
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
)

// registry is the module table and alias table shared by every scope in a
// tree.
type registry struct {
	mu sync.RWMutex

	// name → module
	modules map[string]*Module

	// external identifier → canonical module name
	aliases map[string]string
}

func newRegistry() *registry {
	return &registry{
		modules: make(map[string]*Module),
		aliases: make(map[string]string),
	}
}

// canonical maps an identifier through the alias table (must hold mu).
func (r *registry) canonical(name string) string {
	if target, ok := r.aliases[name]; ok {
		return target
	}
	return name
}

func (r *registry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.modules))
	for n := range r.modules {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// hooks are resolution callbacks shared by a scope tree.
type hooks struct {
	mu             sync.RWMutex
	afterResolving []func(name string, instance any)
}

func (h *hooks) fire(name string, instance any) {
	h.mu.RLock()
	cbs := h.afterResolving
	h.mu.RUnlock()
	for _, cb := range cbs {
		cb(name, instance)
	}
}

// ── Library ───────────────────────────────────────────────────────────────────

// Library is a scope: a node in a tree of libraries that share module
// definitions and aliases, each with a view of the singleton cache.
//
// A Library is safe for concurrent use. Factories run on the goroutine that
// triggered them and must not resolve their own module again.
type Library struct {
	id     string
	root   *Library
	parent *Library

	mu       sync.Mutex
	children []*Library

	// resets lists the names invalidated to produce this scope.
	resets []string

	reg    *registry
	cache  *cache
	hooks  *hooks
	loader Loader
	logger *log.Logger
}

// Option configures a Library created with New.
type Option func(*Library)

// WithLoader sets the collaborator consulted for names the registry does
// not define.
func WithLoader(loader Loader) Option {
	return func(l *Library) {
		l.loader = loader
	}
}

// WithLogger routes the library's diagnostics to logger.
func WithLogger(logger *log.Logger) Option {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithID overrides the generated scope identity.
func WithID(id string) Option {
	return func(l *Library) {
		l.id = id
	}
}

// New creates an empty root library.
func New(opts ...Option) *Library {
	l := &Library{
		id:     "library@" + shortID(),
		reg:    newRegistry(),
		cache:  newCache(),
		hooks:  &hooks{},
		logger: log.New(io.Discard),
	}
	l.root = l
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var (
	defaultOnce    sync.Once
	defaultLibrary *Library
)

// Default returns the process-wide library, creating it on first use.
func Default() *Library {
	defaultOnce.Do(func() {
		defaultLibrary = New()
	})
	return defaultLibrary
}

// ── Scopes ────────────────────────────────────────────────────────────────────

// Clone creates a child scope that shares this scope's modules, aliases,
// loader and singleton cache. Instances resolved through either scope are
// visible to both until one of them is reset.
func (l *Library) Clone() *Library {
	child := &Library{
		id:     "library@" + shortID(),
		root:   l.root,
		parent: l,
		reg:    l.reg,
		cache:  l.cache,
		hooks:  l.hooks,
		loader: l.loader,
		logger: l.logger,
	}
	l.mu.Lock()
	l.children = append(l.children, child)
	l.mu.Unlock()
	return child
}

// forkAndReset returns a child scope whose cache hides names and their
// alias targets. With no names it returns l itself.
func (l *Library) forkAndReset(names []string) *Library {
	if len(names) == 0 {
		return l
	}
	child := l.Clone()
	child.resets = slices.Clone(names)

	hidden := slices.Clone(names)
	l.reg.mu.RLock()
	for _, n := range names {
		if target, ok := l.reg.aliases[n]; ok {
			hidden = append(hidden, target)
		}
	}
	l.reg.mu.RUnlock()

	child.cache = l.cache.fork(hidden)
	l.logger.Debug("reset scope", "parent", l.id, "scope", child.id, "names", names)
	return child
}

// ID returns the scope identity, e.g. "library@3f9a".
func (l *Library) ID() string { return l.id }

// Root returns the scope at the top of the tree.
func (l *Library) Root() *Library { return l.root }

// Parent returns the scope this one was cloned from, or nil for a root.
func (l *Library) Parent() *Library { return l.parent }

// Children returns the scopes cloned from this one.
func (l *Library) Children() []*Library {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.children)
}

// Resets returns the names that were reset to produce this scope.
func (l *Library) Resets() []string { return slices.Clone(l.resets) }

// Logger returns the logger the library reports to.
func (l *Library) Logger() *log.Logger { return l.logger }

// Cached reports whether name has a memoized instance visible in this scope.
func (l *Library) Cached(name string) bool {
	_, ok := l.cache.get(name)
	return ok
}

// Alias returns the canonical module name recorded for an external identifier.
func (l *Library) Alias(identifier string) (string, bool) {
	l.reg.mu.RLock()
	defer l.reg.mu.RUnlock()
	target, ok := l.reg.aliases[identifier]
	return target, ok
}

// AfterResolving registers a callback fired each time a factory's instance
// is cached, in any scope of the tree.
func (l *Library) AfterResolving(cb func(name string, instance any)) {
	l.hooks.mu.Lock()
	defer l.hooks.mu.Unlock()
	l.hooks.afterResolving = append(l.hooks.afterResolving, cb)
}
