package library

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/copystructure"
)

// Cloner lets a collective template produce its own copies. Templates that
// do not implement it are deep-copied structurally; unexported struct
// fields are not copied that way.
type Cloner interface {
	Clone() any
}

// cloneTemplate returns a fresh copy of a collective template, never the
// template itself.
func cloneTemplate(template any) (any, error) {
	if c, ok := template.(Cloner); ok {
		return c.Clone(), nil
	}
	if template == nil {
		return nil, nil
	}
	v, err := copystructure.Copy(template)
	if err != nil {
		return nil, fmt.Errorf("%w: copying collective %T: %w", ErrResolution, template, err)
	}
	return v, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
