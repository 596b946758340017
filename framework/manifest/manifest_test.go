package manifest_test

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-library/framework/library"
	"github.com/km-arc/go-library/framework/manifest"
)

const birds = `
module "turtle" {
  value = "in the sun"
}

module "rider" {
  depends_on = ["turtle"]
  factory    = "format"
  args       = { format = "rider rides %s" }
}

module "bird" {
  factory = "map"
  collective "state" {
    template = { nests = [] }
  }
}

module "settings" {
  value = { port = 8080, debug = true, tags = ["a", "b"] }
}

module "everything" {
  depends_on = ["turtle", "rider"]
  factory    = "list"
}
`

func TestParse(t *testing.T) {
	t.Parallel()

	f, err := manifest.Parse([]byte(birds), "birds.hcl")
	require.NoError(t, err)
	require.Len(t, f.Modules, 5)

	rider := f.Modules[1]
	assert.Equal(t, "rider", rider.Name)
	assert.Equal(t, []string{"turtle"}, rider.DependsOn)
	assert.Equal(t, "format", rider.Factory)
	assert.Equal(t, map[string]any{"format": "rider rides %s"}, rider.Args)
	assert.False(t, rider.HasValue)

	bird := f.Modules[2]
	require.Len(t, bird.Collectives, 1)
	assert.Equal(t, "state", bird.Collectives[0].Name)
	assert.Equal(t, map[string]any{"nests": []any{}}, bird.Collectives[0].Template)

	deps := bird.Dependencies()
	require.Len(t, deps, 1)
	assert.Equal(t, library.KindCollective, deps[0].Kind())

	settings := f.Modules[3]
	assert.True(t, settings.HasValue)
	assert.Equal(t, map[string]any{
		"port":  float64(8080),
		"debug": true,
		"tags":  []any{"a", "b"},
	}, settings.Value)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"syntax", `module "x" {`, "failed to parse"},
		{"unknown attribute", `module "x" { colour = "red" }`, "failed to decode"},
		{"value and factory", `module "x" {
  value   = 1
  factory = "list"
}`, "mutually exclusive"},
		{"neither", `module "x" {}`, "needs either a value or a factory"},
		{"args not an object", `module "x" {
  factory = "list"
  args    = ["a"]
}`, "args must be an object"},
		{"duplicate", `module "x" { value = 1 }
module "x" { value = 2 }`, "declared more than once"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manifest.Parse([]byte(tt.src), "bad.hcl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_ManifestErrorCarriesContext(t *testing.T) {
	t.Parallel()

	_, err := manifest.Parse([]byte(`module "lonely" {}`), "app.hcl")
	var me *manifest.ManifestError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "app.hcl", me.Filename)
	assert.Equal(t, "lonely", me.Module)
	assert.EqualError(t, err, `manifest: app.hcl: module "lonely": needs either a value or a factory`)
}

func TestApply(t *testing.T) {
	t.Parallel()

	f, err := manifest.Parse([]byte(birds), "birds.hcl")
	require.NoError(t, err)

	lib := library.New()
	require.NoError(t, f.Apply(lib, manifest.Builtins()))
	assert.Equal(t, []string{"bird", "everything", "rider", "settings", "turtle"}, lib.Modules())

	assert.Equal(t, "rider rides in the sun", library.MustResolve[string](lib, "rider"))
	assert.Equal(t, []any{"in the sun", "rider rides in the sun"}, library.MustResolve[[]any](lib, "everything"))

	bird := library.MustResolve[map[string]any](lib, "bird")
	assert.Equal(t, map[string]any{"state": map[string]any{"nests": []any{}}}, bird)
}

func TestApply_CollectiveIsFreshAfterReset(t *testing.T) {
	t.Parallel()

	f, err := manifest.Parse([]byte(birds), "birds.hcl")
	require.NoError(t, err)
	lib := library.New()
	require.NoError(t, f.Apply(lib, manifest.Builtins()))

	bird := library.MustResolve[map[string]any](lib, "bird")
	state := bird["state"].(map[string]any)
	state["nests"] = append(state["nests"].([]any), "oak")

	_, err = lib.Using([]library.Dependency{library.Reset("bird")}, library.Func(func(fresh map[string]any) {
		assert.Equal(t, []any{}, fresh["state"].(map[string]any)["nests"])
	}))
	require.NoError(t, err)
	assert.Equal(t, []any{"oak"}, state["nests"])
}

func TestApply_UnknownFactory(t *testing.T) {
	t.Parallel()

	f, err := manifest.Parse([]byte(`
module "ok" { value = 1 }
module "db" { factory = "postgres" }
`), "db.hcl")
	require.NoError(t, err)

	lib := library.New()
	err = f.Apply(lib, manifest.Builtins())
	var me *manifest.ManifestError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "db", me.Module)
	assert.Contains(t, err.Error(), `unknown factory "postgres"`)
	assert.Empty(t, lib.Modules(), "nothing is defined when one module is invalid")
}

func TestApply_CustomFactory(t *testing.T) {
	t.Parallel()

	f, err := manifest.Parse([]byte(`
module "port" { value = 8080 }
module "addr" {
  depends_on = ["port"]
  factory    = "addr"
  args       = { host = "localhost" }
}
`), "custom.hcl")
	require.NoError(t, err)

	table := manifest.Builtins().With(manifest.FactoryTable{
		"addr": func(m manifest.Module) (library.Factory, error) {
			host, _ := m.Args["host"].(string)
			if host == "" {
				return nil, errors.New("host required")
			}
			return library.Func(func(port float64) string {
				return host + ":" + strconv.FormatFloat(port, 'f', -1, 64)
			}), nil
		},
	})
	assert.Equal(t, []string{"addr", "format", "list", "map", "value"}, table.Names())

	lib := library.New()
	require.NoError(t, f.Apply(lib, table))
	assert.Equal(t, "localhost:8080", library.MustResolve[string](lib, "addr"))
}

func TestApply_FormatNeedsArgs(t *testing.T) {
	t.Parallel()

	f, err := manifest.Parse([]byte(`module "x" { factory = "format" }`), "x.hcl")
	require.NoError(t, err)
	assert.ErrorContains(t, f.Apply(library.New(), manifest.Builtins()), "args.format")
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "library.hcl")
	require.NoError(t, os.WriteFile(path, []byte(birds), 0o644))

	f, err := manifest.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Filename)
	assert.Len(t, f.Modules, 5)

	_, err = manifest.LoadFile(filepath.Join(t.TempDir(), "missing.hcl"))
	assert.Error(t, err)
}
