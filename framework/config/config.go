package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/km-arc/go-library/framework/validation"
)

// Config is the central typed configuration struct.
type Config struct {
	App     AppConfig
	Log     LogConfig
	Library LibraryConfig
	Inspect InspectConfig
}

type AppConfig struct {
	Name  string
	Env   string // local | production | testing
	Debug bool
}

type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // text | json | logfmt
}

// LibraryConfig points at the module sources loaded at boot.
type LibraryConfig struct {
	Manifest      string        // HCL manifest path, optional
	ScriptsDir    string        // directory of .risor scripts, optional
	ScriptTimeout time.Duration // per-script evaluation limit, 0 for none
}

// InspectConfig controls the HTTP inspect server.
type InspectConfig struct {
	Enabled bool
	Port    string
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	debug := GetBool("APP_DEBUG", false)
	level := "info"
	if debug {
		level = "debug"
	}

	return &Config{
		App: AppConfig{
			Name:  Get("APP_NAME", "library"),
			Env:   Get("APP_ENV", "local"),
			Debug: debug,
		},
		Log: LogConfig{
			Level:  Get("LIBRARY_LOG_LEVEL", level),
			Format: Get("LIBRARY_LOG_FORMAT", "text"),
		},
		Library: LibraryConfig{
			Manifest:      Get("LIBRARY_MANIFEST", ""),
			ScriptsDir:    Get("LIBRARY_SCRIPTS_DIR", ""),
			ScriptTimeout: time.Duration(GetInt("LIBRARY_SCRIPT_TIMEOUT", 0)) * time.Second,
		},
		Inspect: InspectConfig{
			Enabled: GetBool("INSPECT_ENABLED", false),
			Port:    Get("INSPECT_PORT", "8081"),
		},
	}
}

// Validate checks the loaded values. The returned error is a
// *validation.Errors listing every invalid setting.
func (c *Config) Validate() error {
	return validation.Make(map[string]string{
		"APP_NAME":               c.App.Name,
		"APP_ENV":                c.App.Env,
		"LIBRARY_LOG_LEVEL":      c.Log.Level,
		"LIBRARY_LOG_FORMAT":     c.Log.Format,
		"INSPECT_PORT":           c.Inspect.Port,
		"LIBRARY_SCRIPT_TIMEOUT": strconv.Itoa(int(c.Library.ScriptTimeout / time.Second)),
	}, validation.Rules{
		"APP_NAME":               "required|alpha_dash",
		"APP_ENV":                "required|in:local,production,testing",
		"LIBRARY_LOG_LEVEL":      "required|in:debug,info,warn,error",
		"LIBRARY_LOG_FORMAT":     "required|in:text,json,logfmt",
		"INSPECT_PORT":           "required|integer|gte:1|lte:65535",
		"LIBRARY_SCRIPT_TIMEOUT": "integer|gte:0",
	}).Err()
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
