package library

import (
	"fmt"
	"strconv"
)

// Kind tags the variant held by a Dependency.
type Kind uint8

const (
	// KindInvalid is the zero Kind; resolving it is an error.
	KindInvalid Kind = iota
	// KindName refers to a module (or external identifier) by name.
	KindName
	// KindCollective carries a template that is deep-copied on every use.
	KindCollective
	// KindReset invalidates a module and its dependents before resolution.
	// Only legal in the dependency list passed to Using.
	KindReset
	// KindInline is an ad-hoc producer called directly, never cached.
	KindInline
)

func (k Kind) String() string {
	switch k {
	case KindName:
		return "name"
	case KindCollective:
		return "collective"
	case KindReset:
		return "reset"
	case KindInline:
		return "inline"
	default:
		return "invalid"
	}
}

// Dependency is a dependency specifier. Build one with Name, Names,
// Collective, Reset, Inline or (*Module).Ref.
type Dependency struct {
	kind     Kind
	name     string
	template any
	produce  func() (any, error)
}

// Name refers to the module (or external identifier) called name.
func Name(name string) Dependency {
	return Dependency{kind: KindName, name: name}
}

// Names is shorthand for a list of Name dependencies.
//
//	lib.Define("rider", library.Names("turtle", "saddle"), factory)
func Names(names ...string) []Dependency {
	deps := make([]Dependency, len(names))
	for i, n := range names {
		deps[i] = Name(n)
	}
	return deps
}

// Collective wraps template so that every module declaring it receives a
// fresh deep copy each time its factory runs.
func Collective(template any) Dependency {
	return Dependency{kind: KindCollective, template: template}
}

// Reset resolves name after invalidating its cached instance and every
// module that depends on it, in a new scope.
func Reset(name string) Dependency {
	return Dependency{kind: KindReset, name: name}
}

// Inline passes the result of fn straight to the consumer.
func Inline(fn func() (any, error)) Dependency {
	return Dependency{kind: KindInline, produce: fn}
}

// Kind returns the variant tag.
func (d Dependency) Kind() Kind { return d.kind }

// Target returns the module name for KindName and KindReset, "" otherwise.
func (d Dependency) Target() string {
	if d.kind == KindName || d.kind == KindReset {
		return d.name
	}
	return ""
}

// Template returns the collective template, nil for other kinds.
func (d Dependency) Template() any {
	if d.kind == KindCollective {
		return d.template
	}
	return nil
}

func (d Dependency) String() string {
	switch d.kind {
	case KindName:
		return strconv.Quote(d.name)
	case KindReset:
		return "reset(" + strconv.Quote(d.name) + ")"
	case KindCollective:
		return fmt.Sprintf("collective(%v)", d.template)
	case KindInline:
		return "inline"
	default:
		return "<invalid dependency>"
	}
}
