package library

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Loader resolves identifiers the registry does not define. Implementations
// report an unknown identifier with an error wrapping ErrNotFound.
type Loader interface {
	Load(identifier string) (Loaded, error)
}

// LoaderFunc adapts a plain function to Loader.
type LoaderFunc func(identifier string) (Loaded, error)

// Load implements Loader.
func (f LoaderFunc) Load(identifier string) (Loaded, error) { return f(identifier) }

// Loaded is what a Loader found: either an opaque value, cached as-is under
// the identifier, or a module definition from another library, which is
// registered here and resolved like a local module.
type Loaded struct {
	value  any
	module *Module
}

// Value wraps an opaque loader result.
func Value(v any) Loaded { return Loaded{value: v} }

// Foreign wraps a module definition that belongs to some library.
func Foreign(m *Module) Loaded { return Loaded{module: m} }

// Module returns the foreign module, if that is what was loaded.
func (r Loaded) Module() (*Module, bool) { return r.module, r.module != nil }

// Value returns the opaque value, if that is what was loaded.
func (r Loaded) Value() (any, bool) { return r.value, r.module == nil && !isNil(r.value) }

// IsZero reports whether nothing was loaded.
func (r Loaded) IsZero() bool { return r.module == nil && isNil(r.value) }

// ── External resolution ───────────────────────────────────────────────────────

func (l *Library) external(identifier string, path []string, forName string) (any, error) {
	if l.loader == nil {
		return nil, l.notFound(identifier, forName, ErrNotFound)
	}

	v, err, _ := l.cache.flight.Do("external:"+identifier, func() (any, error) {
		if e, ok := l.cache.get(identifier); ok {
			return e.value, nil
		}

		l.logger.Debug("loading external module", "scope", l.id, "identifier", identifier, "for", forName)
		loaded, err := l.loader.Load(identifier)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, l.notFound(identifier, forName, err)
			}
			return nil, &LoaderError{Identifier: identifier, Err: err}
		}

		if m, ok := loaded.Module(); ok {
			if err := l.adopt(identifier, m); err != nil {
				return nil, err
			}
			return nil, errAdopted
		}
		if value, ok := loaded.Value(); ok {
			if isEmptyObject(value) {
				return nil, &EmptyValueError{Identifier: identifier, Type: fmt.Sprintf("%T", value)}
			}
			e := l.cache.set(identifier, value)
			l.logger.Debug("cached external value", "scope", l.id, "identifier", identifier, "instance", e.id)
			return value, nil
		}
		return nil, &NeverMentionedError{Identifier: identifier, Library: l.id}
	})
	if errors.Is(err, errAdopted) {
		// The identifier now names a module or an alias; resolve it the
		// canonical way so either spelling reaches the same instance.
		return l.resolveName(identifier, path, forName)
	}
	return v, err
}

// errAdopted signals, inside the single-flight call, that a foreign module
// was registered and resolution should start over.
var errAdopted = errors.New("library: foreign module adopted")

// adopt registers a foreign module and aliases identifier to it.
func (l *Library) adopt(identifier string, m *Module) error {
	if m.Name == "" || m.Factory == nil {
		return &NeverMentionedError{Identifier: identifier, Library: l.id}
	}

	l.reg.mu.Lock()
	if _, known := l.reg.modules[m.Name]; !known {
		l.reg.modules[m.Name] = m
	}
	if m.Name != identifier {
		l.reg.aliases[identifier] = m.Name
	}
	l.reg.mu.Unlock()

	if m.Name != identifier && !strings.Contains(identifier, "/") {
		l.logger.Warn("external identifier returned a module under another name",
			"identifier", identifier, "module", m.Name)
	}
	return nil
}

func (l *Library) notFound(identifier, forName string, err error) error {
	return &NotFoundError{
		Identifier: identifier,
		For:        forName,
		Known:      l.Modules(),
		Err:        err,
	}
}

// isEmptyObject reports an empty map or a struct without fields, directly
// or behind a pointer. Loaders produce these when a source defined nothing.
func isEmptyObject(v any) bool {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		return rv.Len() == 0
	case reflect.Struct:
		return rv.NumField() == 0
	}
	return false
}
