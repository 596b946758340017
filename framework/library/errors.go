package library

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var (
	// ErrInvalidDefinition is matched by every error Define returns.
	ErrInvalidDefinition = errors.New("library: invalid definition")

	// ErrResolution is matched by errors raised while turning dependencies
	// into instances (bad specifiers, failing or empty factories, cycles).
	ErrResolution = errors.New("library: resolution failed")

	// ErrNotFound is the condition a Loader reports for an identifier it
	// cannot load. Loaders should wrap it; the library matches it with errors.Is.
	ErrNotFound = errors.New("library: not found")
)

// ── Definition errors ─────────────────────────────────────────────────────────

// DefinitionError describes a malformed argument passed to Define.
type DefinitionError struct {
	// Arg is the offending argument: "name", "factory", "dependencies" or "consumer".
	Arg string
	// Got is what was actually passed.
	Got any
}

func (e *DefinitionError) Error() string {
	switch e.Arg {
	case "name":
		return fmt.Sprintf("library: define expects a name as the first argument, but you passed %#v", e.Got)
	case "factory":
		return fmt.Sprintf("library: define needs some kind of function but you gave it %#v", e.Got)
	case "consumer":
		return fmt.Sprintf("library: using needs a consumer function but you gave it %#v", e.Got)
	default:
		return fmt.Sprintf("library: you passed %v between the name and the function, but that's not a list of dependencies we can use", e.Got)
	}
}

func (e *DefinitionError) Unwrap() error { return ErrInvalidDefinition }

// ── Resolution errors ─────────────────────────────────────────────────────────

// InvalidDependencyError is returned for a specifier that is none of the
// known kinds (usually a zero Dependency).
type InvalidDependencyError struct {
	Index int
	Got   Dependency
}

func (e *InvalidDependencyError) Error() string {
	return "library: dependency #" + strconv.Itoa(e.Index) +
		" is not a module name, collective, reset or inline factory (got " + e.Got.String() + ")"
}

func (e *InvalidDependencyError) Unwrap() error { return ErrResolution }

// NilInstanceError is returned when a factory produces no value.
type NilInstanceError struct{ Module string }

func (e *NilInstanceError) Error() string {
	return "library: the factory for " + strconv.Quote(e.Module) + " didn't return anything"
}

func (e *NilInstanceError) Unwrap() error { return ErrResolution }

// FactoryError wraps an error returned by a module's factory.
type FactoryError struct {
	Module string
	Err    error
}

func (e *FactoryError) Error() string {
	return "library: factory for " + strconv.Quote(e.Module) + ": " + e.Err.Error()
}

func (e *FactoryError) Unwrap() []error { return []error{ErrResolution, e.Err} }

// ArityError reports a function whose parameter count does not match the
// dependency list it is called with. Got counts the arguments provided, or
// the parameters the function declares when Declared is set.
type ArityError struct {
	Expected int
	Got      int
	Declared bool
}

func (e *ArityError) Error() string {
	if e.Declared {
		return fmt.Sprintf("library: function should take %d arguments, but it declares %d", e.Expected, e.Got)
	}
	return fmt.Sprintf("library: function should take %d arguments, but %d were provided", e.Expected, e.Got)
}

func (e *ArityError) Unwrap() error { return ErrResolution }

// ArgumentTypeError reports a resolved value that cannot be passed to the
// parameter at Index of a function adapted with Func.
type ArgumentTypeError struct {
	Index int
	Want  string
	Got   string
}

func (e *ArgumentTypeError) Error() string {
	return fmt.Sprintf("library: argument #%d should be %s but the dependency resolved to %s", e.Index, e.Want, e.Got)
}

func (e *ArgumentTypeError) Unwrap() error { return ErrResolution }

// WrongTypeError is returned by Resolve when the instance is not a T.
type WrongTypeError struct {
	Name string
	Want string
	Got  string
}

func (e *WrongTypeError) Error() string {
	return "library: " + strconv.Quote(e.Name) + " resolved to " + e.Got + ", not " + e.Want
}

func (e *WrongTypeError) Unwrap() error { return ErrResolution }

// CycleError indicates modules that depend on each other.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return "library: dependency cycle detected: " + strings.Join(e.Cycle, " -> ")
}

func (e *CycleError) Unwrap() error { return ErrResolution }

// UnknownModuleError is returned when a reset names something the library
// has never heard of.
type UnknownModuleError struct {
	Name  string
	Known []string
}

func (e *UnknownModuleError) Error() string {
	return "library: trying to figure out what depends on " + strconv.Quote(e.Name) +
		", but that doesn't seem like a module name we know about (known modules: " +
		strings.Join(e.Known, ", ") + ")"
}

func (e *UnknownModuleError) Unwrap() error { return ErrResolution }

// ── External bridge errors ────────────────────────────────────────────────────

// NotFoundError is the loader's not-found failure enriched with what the
// library knows. It still matches ErrNotFound.
type NotFoundError struct {
	Identifier string
	// For is the module whose dependency list asked for Identifier, if any.
	For   string
	Known []string
	Err   error
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	b.WriteString("library: could not find module ")
	b.WriteString(strconv.Quote(e.Identifier))
	if e.For != "" {
		b.WriteString(". We were trying to load it for ")
		b.WriteString(strconv.Quote(e.For))
	}
	if e.Miscapitalized() {
		b.WriteString(" (is '")
		b.WriteString(e.Identifier)
		b.WriteString("' capitalized right? usually modules are lowercase.)")
	}
	b.WriteString(". The library knows about modules [")
	b.WriteString(strings.Join(e.Known, ", "))
	b.WriteString("]")
	if e.Err != nil && e.Err != ErrNotFound {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Miscapitalized reports whether the identifier contains an uppercase letter.
func (e *NotFoundError) Miscapitalized() bool {
	return strings.IndexFunc(e.Identifier, unicode.IsUpper) >= 0
}

func (e *NotFoundError) Unwrap() error { return e.Err }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NeverMentionedError is returned when the loader returns neither a value
// nor a module.
type NeverMentionedError struct {
	Identifier string
	Library    string
}

func (e *NeverMentionedError) Error() string {
	return "library: you don't seem to have ever mentioned a " + strconv.Quote(e.Identifier) + " module to " + e.Library
}

func (e *NeverMentionedError) Unwrap() error { return ErrResolution }

// EmptyValueError is returned when a loader's value is an empty map or an
// empty struct, which usually means its source forgot to export anything.
type EmptyValueError struct {
	Identifier string
	Type       string
}

func (e *EmptyValueError) Error() string {
	return "library: " + strconv.Quote(e.Identifier) + " just returned an empty " + e.Type + ". Did it forget to export something?"
}

func (e *EmptyValueError) Unwrap() error { return ErrResolution }

// LoaderError wraps any loader failure other than not-found.
type LoaderError struct {
	Identifier string
	Err        error
}

func (e *LoaderError) Error() string {
	return "library: loading " + strconv.Quote(e.Identifier) + ": " + e.Err.Error()
}

func (e *LoaderError) Unwrap() error { return e.Err }
