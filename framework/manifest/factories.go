package manifest

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/km-arc/go-library/framework/library"
)

// Builder turns a module block into a library factory.
type Builder func(m Module) (library.Factory, error)

// FactoryTable maps the factory names a manifest may use to builders.
type FactoryTable map[string]Builder

// Builtins returns a table with the built-in factories:
//
//   - value: the module's literal value
//   - list: the resolved dependencies as a []any
//   - format: fmt.Sprintf(args.format, dependencies...)
//   - map: dependencies keyed by depends_on name, then collective name
func Builtins() FactoryTable {
	return FactoryTable{
		"value":  valueFactory,
		"list":   listFactory,
		"format": formatFactory,
		"map":    mapFactory,
	}
}

// With returns a copy of t with extra builders added.
func (t FactoryTable) With(extra FactoryTable) FactoryTable {
	out := maps.Clone(t)
	if out == nil {
		out = FactoryTable{}
	}
	maps.Copy(out, extra)
	return out
}

// Names returns the factory names, sorted.
func (t FactoryTable) Names() []string {
	return slices.Sorted(maps.Keys(t))
}

func valueFactory(m Module) (library.Factory, error) {
	if !m.HasValue {
		return nil, errors.New("value factory needs a value attribute")
	}
	v := m.Value
	return func(...any) (any, error) { return v, nil }, nil
}

func listFactory(Module) (library.Factory, error) {
	return func(args ...any) (any, error) {
		return slices.Clone(args), nil
	}, nil
}

func formatFactory(m Module) (library.Factory, error) {
	format, ok := m.Args["format"].(string)
	if !ok {
		return nil, errors.New(`format factory needs a string args.format`)
	}
	return func(args ...any) (any, error) {
		return fmt.Sprintf(format, args...), nil
	}, nil
}

func mapFactory(m Module) (library.Factory, error) {
	keys := slices.Clone(m.DependsOn)
	for _, c := range m.Collectives {
		keys = append(keys, c.Name)
	}
	return func(args ...any) (any, error) {
		if len(args) != len(keys) {
			return nil, &library.ArityError{Expected: len(keys), Got: len(args)}
		}
		out := make(map[string]any, len(keys))
		for i, k := range keys {
			out[k] = args[i]
		}
		return out, nil
	}, nil
}
