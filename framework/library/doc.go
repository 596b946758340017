// Package library is a dependency-injection runtime built around named
// modules and memoized singletons.
//
// # Overview
//
// A module is a name, an ordered list of dependencies and a factory. The
// first time a module is needed its dependencies are resolved depth-first,
// left to right, the factory runs, and the instance is cached for the scope.
// Every later request in the same scope returns the identical instance.
//
//	lib := library.New()
//
//	lib.MustDefine("turtle", nil, library.Func(func() string {
//	    return "in the sun"
//	}))
//
//	lib.MustDefine("rider", library.Names("turtle"), library.Func(func(turtle string) string {
//	    return "rider rides " + turtle
//	}))
//
//	lib.Using(library.Names("rider"), library.Func(func(rider string) {
//	    fmt.Println(rider) // rider rides in the sun
//	}))
//
// # Dependency specifiers
//
//   - Name("x"): the module (or external identifier) x
//   - Collective(tmpl): a fresh deep copy of tmpl for each factory run
//   - Reset("x"): x rebuilt in a new scope, legal only in Using
//   - Inline(fn): fn's result, never cached
//
// # Collectives and resets
//
// A collective is shared by everything one factory invocation builds, and
// starts pristine whenever that factory runs again:
//
//	lib.MustDefine("bird", []library.Dependency{
//	    library.Collective(map[string]any{"nests": []string{}}),
//	}, newBird)
//
// Reset("bird") invalidates bird and every module that depends on it,
// directly or transitively, and resolves in a child scope. The original
// scope keeps its instances:
//
//	lib.Using([]library.Dependency{library.Reset("bird")}, consumer)
//
// # Scopes
//
// Clone creates a child scope that shares modules, aliases and the cache
// with its parent. A reset creates a child whose cache is an overlay: reset
// names are hidden, everything else falls through to the parent.
// Dump reports the tree.
//
// # External modules
//
// Names the registry does not define are handed to a Loader. A loader may
// return an opaque value (cached under the identifier) or a module from
// another library, which is registered here and aliased so that the
// identifier and the canonical name resolve to the same instance.
//
//	lib := library.New(library.WithLoader(loader.Chain(scripts, providers)))
package library
