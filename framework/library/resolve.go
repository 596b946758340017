package library

import (
	"slices"
)

// ── Resolution ────────────────────────────────────────────────────────────────

// Using resolves deps and calls consumer with the results, returning what
// consumer returns. Reset specifiers make the resolution happen in a new
// child scope in which the reset modules, and everything depending on them,
// are rebuilt; this scope is left untouched.
//
// Either every dependency resolves and consumer runs, or consumer is not
// called and the first error is returned.
//
//	lib.Using([]library.Dependency{library.Reset("bird"), library.Name("nest")},
//	    library.Func(func(bird *Bird, nest *Nest) { ... }))
func (l *Library) Using(deps []Dependency, consumer Factory) (any, error) {
	if consumer == nil {
		return nil, &DefinitionError{Arg: "consumer", Got: consumer}
	}

	scope, plain, err := l.scopeFor(deps)
	if err != nil {
		return nil, err
	}

	args, err := scope.resolveAll(plain, nil, "")
	if err != nil {
		return nil, err
	}
	return consumer(args...)
}

// scopeFor turns reset specifiers back into names and returns the scope
// those names should be resolved in.
func (l *Library) scopeFor(deps []Dependency) (*Library, []Dependency, error) {
	var resets []string
	plain := slices.Clone(deps)
	for i, d := range plain {
		if d.kind == KindReset {
			resets = append(resets, d.name)
			plain[i] = Name(d.name)
		}
	}
	if len(resets) == 0 {
		return l, plain, nil
	}

	closure, err := l.ResetClosure(resets)
	if err != nil {
		return nil, nil, err
	}
	return l.forkAndReset(closure), plain, nil
}

// resolveAll resolves deps left to right. path holds the modules currently
// being built; forName is the module whose dependency list this is.
func (l *Library) resolveAll(deps []Dependency, path []string, forName string) ([]any, error) {
	args := make([]any, 0, len(deps))
	for i, d := range deps {
		v, err := l.resolveOne(i, d, path, forName)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

func (l *Library) resolveOne(index int, d Dependency, path []string, forName string) (any, error) {
	switch d.kind {
	case KindName:
		return l.resolveName(d.name, path, forName)
	case KindCollective:
		return cloneTemplate(d.template)
	case KindInline:
		if d.produce == nil {
			return nil, &InvalidDependencyError{Index: index, Got: d}
		}
		return d.produce()
	case KindReset:
		// Only Using may carry resets, and scopeFor has already rewritten them.
		return nil, &InvalidDependencyError{Index: index, Got: d}
	default:
		return nil, &InvalidDependencyError{Index: index, Got: d}
	}
}

func (l *Library) resolveName(name string, path []string, forName string) (any, error) {
	if e, ok := l.cache.get(name); ok {
		return e.value, nil
	}

	l.reg.mu.RLock()
	m, defined := l.reg.modules[name]
	alias, aliased := l.reg.aliases[name]
	l.reg.mu.RUnlock()

	switch {
	case defined:
		return l.generate(m, path)
	case aliased && alias != name:
		return l.resolveName(alias, path, forName)
	default:
		return l.external(name, path, forName)
	}
}

// generate builds m's instance in this scope, or returns the one another
// goroutine just built.
func (l *Library) generate(m *Module, path []string) (any, error) {
	if slices.Contains(path, m.Name) {
		cycle := append(slices.Clone(path), m.Name)
		return nil, &CycleError{Cycle: cycle[slices.Index(cycle, m.Name):]}
	}

	v, err, _ := l.cache.flight.Do(m.Name, func() (any, error) {
		if e, ok := l.cache.get(m.Name); ok {
			return e.value, nil
		}

		args, err := l.resolveAll(m.Dependencies, append(slices.Clone(path), m.Name), m.Name)
		if err != nil {
			return nil, err
		}

		instance, err := m.Factory(args...)
		if err != nil {
			return nil, &FactoryError{Module: m.Name, Err: err}
		}
		if isNil(instance) {
			return nil, &NilInstanceError{Module: m.Name}
		}

		e := l.cache.set(m.Name, instance)
		l.logger.Debug("instantiated module", "scope", l.id, "module", m.Name, "instance", e.id)
		l.hooks.fire(m.Name, instance)
		return instance, nil
	})
	return v, err
}
