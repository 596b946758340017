// Package librarytest runs library consumers as Go subtests.
//
//	librarytest.Run(t, lib, "rider rides the turtle", library.Names("rider"),
//	    func(t *testing.T, rider string) {
//	        assert.Equal(t, "rider rides in the sun", rider)
//	    })
package librarytest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-library/framework/library"
)

// Run resolves deps in lib and calls fn inside a subtest named description.
// fn takes the subtest's *testing.T followed by one parameter per
// dependency. A mismatched fn is reported as an *library.ArityError before
// any subtest starts; resolution failures fail the subtest.
func Run(t *testing.T, lib *library.Library, description string, deps []library.Dependency, fn any) error {
	t.Helper()

	if want, got := len(deps)+1, library.Arity(fn); got != want {
		return &library.ArityError{Expected: want, Got: got, Declared: true}
	}

	body := library.Func(fn)
	t.Run(description, func(t *testing.T) {
		_, err := lib.Using(deps, func(args ...any) (any, error) {
			return body(append([]any{t}, args...)...)
		})
		require.NoError(t, err)
	})
	return nil
}
