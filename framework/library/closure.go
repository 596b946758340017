package library

import (
	"slices"
)

// ResetClosure returns every name that must be invalidated together with
// names: the names themselves plus every module that depends on any of
// them, directly or transitively. Aliases are followed when comparing, so
// a module reached through an external identifier and through its
// canonical name counts once.
//
// A name being reset must be known to this scope (defined, aliased or
// cached). A name that only appears in some module's dependency list and
// is otherwise undefined is a leaf: it has no dependencies of its own.
func (l *Library) ResetClosure(names []string) ([]string, error) {
	l.reg.mu.RLock()
	defer l.reg.mu.RUnlock()

	visited := make(map[string]bool)
	var out []string
	add := func(name string) {
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}

	for _, n := range names {
		canonical := l.reg.canonical(n)
		_, defined := l.reg.modules[canonical]
		_, aliased := l.reg.aliases[n]
		if !defined && !aliased && !l.Cached(n) {
			known := make([]string, 0, len(l.reg.modules))
			for k := range l.reg.modules {
				known = append(known, k)
			}
			slices.Sort(known)
			return nil, &UnknownModuleError{Name: n, Known: known}
		}
		visited[canonical] = true
		add(n)
	}

	modules := make([]string, 0, len(l.reg.modules))
	for name := range l.reg.modules {
		modules = append(modules, name)
	}
	slices.Sort(modules)

	for grew := true; grew; {
		grew = false
		for _, name := range modules {
			if visited[name] {
				continue
			}
			if l.dependsOnVisited(l.reg.modules[name], visited) {
				visited[name] = true
				add(name)
				grew = true
			}
		}
	}

	slices.Sort(out)
	return out, nil
}

// dependsOnVisited reports whether one of m's name dependencies, after
// alias resolution, is already in the closure (must hold reg.mu).
// Collectives and inline factories never depend on anything.
func (l *Library) dependsOnVisited(m *Module, visited map[string]bool) bool {
	for _, d := range m.Dependencies {
		if d.kind != KindName {
			continue
		}
		if visited[l.reg.canonical(d.name)] {
			return true
		}
	}
	return false
}
