package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-library/framework/config"
	"github.com/km-arc/go-library/framework/validation"
)

// ── helpers ──────────────────────────────────────────────────────────────────

// unset clears key for the duration of the test.
func unset(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "none.env")
}

// ── Load ─────────────────────────────────────────────────────────────────────

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_NAME", "APP_ENV", "APP_DEBUG", "LIBRARY_LOG_LEVEL",
		"LIBRARY_LOG_FORMAT", "LIBRARY_MANIFEST", "LIBRARY_SCRIPTS_DIR", "LIBRARY_SCRIPT_TIMEOUT",
		"INSPECT_ENABLED", "INSPECT_PORT"} {
		unset(t, k)
	}

	cfg := config.Load(missingEnvFile(t))

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"App.Name", cfg.App.Name, "library"},
		{"App.Env", cfg.App.Env, "local"},
		{"App.Debug", cfg.App.Debug, false},
		{"Log.Level", cfg.Log.Level, "info"},
		{"Log.Format", cfg.Log.Format, "text"},
		{"Library.Manifest", cfg.Library.Manifest, ""},
		{"Library.ScriptsDir", cfg.Library.ScriptsDir, ""},
		{"Library.ScriptTimeout", cfg.Library.ScriptTimeout, time.Duration(0)},
		{"Inspect.Enabled", cfg.Inspect.Enabled, false},
		{"Inspect.Port", cfg.Inspect.Port, "8081"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}

	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("APP_NAME", "aviary")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LIBRARY_LOG_FORMAT", "json")
	t.Setenv("LIBRARY_MANIFEST", "library.hcl")
	t.Setenv("INSPECT_ENABLED", "true")
	t.Setenv("INSPECT_PORT", "9000")

	cfg := config.Load(missingEnvFile(t))

	assert.Equal(t, "aviary", cfg.App.Name)
	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "library.hcl", cfg.Library.Manifest)
	assert.True(t, cfg.Inspect.Enabled)
	assert.Equal(t, "9000", cfg.Inspect.Port)
}

func TestLoad_DebugRaisesDefaultLogLevel(t *testing.T) {
	unset(t, "LIBRARY_LOG_LEVEL")
	t.Setenv("APP_DEBUG", "true")

	cfg := config.Load(missingEnvFile(t))
	assert.True(t, cfg.App.Debug)
	assert.Equal(t, "debug", cfg.Log.Level)

	t.Setenv("LIBRARY_LOG_LEVEL", "warn")
	assert.Equal(t, "warn", config.Load(missingEnvFile(t)).Log.Level)
}

func TestLoad_InvalidBoolFallsBack(t *testing.T) {
	t.Setenv("APP_DEBUG", "notabool")
	assert.False(t, config.Load(missingEnvFile(t)).App.Debug)
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	unset(t, "LIBRARY_SCRIPTS_DIR")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("LIBRARY_SCRIPTS_DIR=./scripts\n"), 0o644))

	cfg := config.Load(path)
	assert.Equal(t, "./scripts", cfg.Library.ScriptsDir)
}

func TestLoad_ScriptTimeoutSeconds(t *testing.T) {
	t.Setenv("LIBRARY_SCRIPT_TIMEOUT", "3")
	assert.Equal(t, 3*time.Second, config.Load(missingEnvFile(t)).Library.ScriptTimeout)

	t.Setenv("LIBRARY_SCRIPT_TIMEOUT", "soon")
	assert.Zero(t, config.Load(missingEnvFile(t)).Library.ScriptTimeout)
}

// ── Validate ─────────────────────────────────────────────────────────────────

func TestValidate(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("LIBRARY_LOG_LEVEL", "loud")
	t.Setenv("INSPECT_PORT", "99999")

	err := config.Load(missingEnvFile(t)).Validate()
	require.Error(t, err)

	var bag *validation.Errors
	require.ErrorAs(t, err, &bag)
	assert.Equal(t, []string{"APP_ENV", "INSPECT_PORT", "LIBRARY_LOG_LEVEL"}, bag.Fields())
}

func TestValidate_NegativeScriptTimeout(t *testing.T) {
	cfg := config.Load(missingEnvFile(t))
	cfg.App = config.AppConfig{Name: "aviary", Env: "testing"}
	cfg.Log = config.LogConfig{Level: "info", Format: "text"}
	cfg.Inspect.Port = "8081"
	cfg.Library.ScriptTimeout = -2 * time.Second

	var bag *validation.Errors
	require.ErrorAs(t, cfg.Validate(), &bag)
	assert.Equal(t, []string{"LIBRARY_SCRIPT_TIMEOUT"}, bag.Fields())
}

// ── helpers: Get / GetInt / GetBool ──────────────────────────────────────────

func TestGet(t *testing.T) {
	t.Setenv("LIBRARY_TEST_KEY", "hello")
	assert.Equal(t, "hello", config.Get("LIBRARY_TEST_KEY", "default"))
	assert.Equal(t, "fallback", config.Get("LIBRARY_MISSING_KEY_XYZ", "fallback"))
}

func TestGetInt(t *testing.T) {
	t.Setenv("LIBRARY_TEST_INT", "42")
	assert.Equal(t, 42, config.GetInt("LIBRARY_TEST_INT", 0))

	t.Setenv("LIBRARY_TEST_INT", "abc")
	assert.Equal(t, 7, config.GetInt("LIBRARY_TEST_INT", 7))
	assert.Equal(t, 3, config.GetInt("LIBRARY_MISSING_INT_XYZ", 3))
}

func TestGetBool(t *testing.T) {
	t.Setenv("LIBRARY_TEST_BOOL", "true")
	assert.True(t, config.GetBool("LIBRARY_TEST_BOOL", false))
	assert.True(t, config.GetBool("LIBRARY_MISSING_BOOL_XYZ", true))
}
