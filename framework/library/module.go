package library

import (
	"slices"
)

// Factory builds an instance from resolved dependencies, one argument per
// declared dependency, in declaration order. A factory must not resolve
// its own module from inside its body; that call waits on itself.
type Factory func(args ...any) (any, error)

// Module is a named unit of work. It is not modified after Define.
type Module struct {
	Name         string
	Dependencies []Dependency
	Factory      Factory
}

// Ref returns a specifier referring to m, for use in other dependency lists.
func (m *Module) Ref() Dependency { return Name(m.Name) }

// DependencyNames returns the names m refers to, skipping collectives and
// inline factories.
func (m *Module) DependencyNames() []string {
	var out []string
	for _, d := range m.Dependencies {
		if d.kind == KindName {
			out = append(out, d.name)
		}
	}
	return out
}

// ── Registration ──────────────────────────────────────────────────────────────

// Define registers a module. Redefining a name replaces its factory and
// dependencies but leaves any cached instance alone; use Reset for that.
//
//	lib.Define("turtle", nil, func(...any) (any, error) { return "in the sun", nil })
//	lib.Define("rider", library.Names("turtle"), library.Func(func(turtle string) string {
//	    return "rider rides " + turtle
//	}))
func (l *Library) Define(name string, deps []Dependency, factory Factory) (*Module, error) {
	m, err := newModule(name, deps, factory)
	if err != nil {
		return nil, err
	}
	l.addModule(m)
	l.logger.Debug("defined module", "scope", l.id, "module", name, "dependencies", len(deps))
	return m, nil
}

// MustDefine is like Define but panics on a malformed definition.
func (l *Library) MustDefine(name string, deps []Dependency, factory Factory) *Module {
	m, err := l.Define(name, deps, factory)
	if err != nil {
		panic(err)
	}
	return m
}

// Export defines a module and immediately resolves it in this scope,
// returning the instance.
func (l *Library) Export(name string, deps []Dependency, factory Factory) (any, error) {
	m, err := l.Define(name, deps, factory)
	if err != nil {
		return nil, err
	}
	return l.generate(m, nil)
}

func newModule(name string, deps []Dependency, factory Factory) (*Module, error) {
	if name == "" {
		return nil, &DefinitionError{Arg: "name", Got: name}
	}
	if factory == nil {
		return nil, &DefinitionError{Arg: "factory", Got: factory}
	}
	for _, d := range deps {
		if d.kind == KindInvalid || d.kind == KindReset {
			return nil, &DefinitionError{Arg: "dependencies", Got: deps}
		}
	}
	return &Module{
		Name:         name,
		Dependencies: slices.Clone(deps),
		Factory:      factory,
	}, nil
}

func (l *Library) addModule(m *Module) {
	l.reg.mu.Lock()
	l.reg.modules[m.Name] = m
	l.reg.mu.Unlock()
}

// Module returns the definition registered under name.
func (l *Library) Module(name string) (*Module, bool) {
	l.reg.mu.RLock()
	defer l.reg.mu.RUnlock()
	m, ok := l.reg.modules[name]
	return m, ok
}

// Modules returns the sorted names of every defined module.
func (l *Library) Modules() []string {
	return l.reg.names()
}
