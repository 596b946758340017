package library

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeFor[error]()

// Func adapts a typed Go function to a Factory, so that
//
//	library.Func(func(turtle string) string { return "rider rides " + turtle })
//
// can be used as a factory or a Using consumer. Each resolved dependency
// must be assignable to the matching parameter. fn may return nothing, a
// value, an error, or a value and an error.
//
// Func panics if fn is not a function or has an unsupported result list.
// Calling the adapted factory with the wrong number of dependencies returns
// an *ArityError.
func Func(fn any) Factory {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		panic(fmt.Sprintf("library: Func expects a function, got %T", fn))
	}
	t := v.Type()
	switch {
	case t.NumOut() > 2,
		t.NumOut() == 2 && t.Out(1) != errorType:
		panic(fmt.Sprintf("library: Func cannot adapt %s: results must be (), (T), (error) or (T, error)", t))
	}

	return func(args ...any) (any, error) {
		in, err := callArgs(t, args)
		if err != nil {
			return nil, err
		}
		return results(t, v.Call(in))
	}
}

// Arity returns the number of parameters fn declares, or -1 when fn is not
// a function.
func Arity(fn any) int {
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func {
		return -1
	}
	return t.NumIn()
}

func callArgs(t reflect.Type, args []any) ([]reflect.Value, error) {
	fixed := t.NumIn()
	if t.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, &ArityError{Expected: fixed, Got: len(args)}
		}
	} else if len(args) != fixed {
		return nil, &ArityError{Expected: fixed, Got: len(args)}
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		pt := paramType(t, i)
		if a == nil {
			if !nillable(pt) {
				return nil, &ArgumentTypeError{Index: i, Want: pt.String(), Got: "nil"}
			}
			in[i] = reflect.Zero(pt)
			continue
		}
		av := reflect.ValueOf(a)
		if !av.Type().AssignableTo(pt) {
			return nil, &ArgumentTypeError{Index: i, Want: pt.String(), Got: av.Type().String()}
		}
		in[i] = av
	}
	return in, nil
}

func paramType(t reflect.Type, i int) reflect.Type {
	if t.IsVariadic() && i >= t.NumIn()-1 {
		return t.In(t.NumIn() - 1).Elem()
	}
	return t.In(i)
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return true
	}
	return false
}

func results(t reflect.Type, out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if t.Out(0) == errorType {
			return nil, asError(out[0])
		}
		return valueOf(out[0]), nil
	default:
		return valueOf(out[0]), asError(out[1])
	}
}

func valueOf(v reflect.Value) any {
	if nillable(v.Type()) && v.IsNil() {
		return nil
	}
	return v.Interface()
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve resolves name in l and type-asserts the instance.
//
//	rider, err := library.Resolve[string](lib, "rider")
func Resolve[T any](l *Library, name string) (T, error) {
	var zero T
	instance, err := l.resolveName(name, nil, "")
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, &WrongTypeError{
			Name: name,
			Want: reflect.TypeFor[T]().String(),
			Got:  fmt.Sprintf("%T", instance),
		}
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](l *Library, name string) T {
	typed, err := Resolve[T](l, name)
	if err != nil {
		panic(err)
	}
	return typed
}
