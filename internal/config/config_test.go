package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://overpass-api.de/api/interpreter", cfg.Overpass.Endpoint)
	assert.Equal(t, []int{429, 502, 503, 504}, cfg.Overpass.BusyStatusCodes)
	assert.Equal(t, []string{"Dispatcher_Client", "too busy", "timeout", "rate limit"}, cfg.Overpass.BusyHints)
	assert.Equal(t, 120*time.Second, cfg.Overpass.RequestTimeout())
	assert.Equal(t, 180*time.Second, cfg.Overpass.MaxWaitSearch())
	assert.Equal(t, 600*time.Second, cfg.Overpass.MaxWaitGeometry())
	assert.Equal(t, 3000, cfg.Overpass.RetryBaseDelayMs)
	assert.Equal(t, 20000, cfg.Overpass.RetryMaxDelayMs)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Nominatim.BaseURL)
	assert.Equal(t, 10, cfg.Nominatim.Limit)
	assert.InDelta(t, 1.0, cfg.Nominatim.RatePerSec, 0.001)
	assert.Equal(t, 30, cfg.Nominatim.TimeoutSecs)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "de", cfg.Messages.Language)
	assert.Equal(t, 2, cfg.Collect.Concurrency)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
overpass:
  endpoint: https://overpass.example.org/api/interpreter
  busy_hints:
    - "server load too high"
  max_wait_geom_ms: 900000
log:
  level: debug
  format: console
messages:
  language: en
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://overpass.example.org/api/interpreter", cfg.Overpass.Endpoint)
	assert.Equal(t, []string{"server load too high"}, cfg.Overpass.BusyHints)
	assert.Equal(t, 15*time.Minute, cfg.Overpass.MaxWaitGeometry())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "en", cfg.Messages.Language)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, 120000, cfg.Overpass.RequestTimeoutMs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
overpass:
  retry_base_delay_ms: 1000
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("GEOQUERY_OVERPASS_RETRY_BASE_DELAY_MS", "5000")
	t.Setenv("GEOQUERY_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, 5000, cfg.Overpass.RetryBaseDelayMs)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("GEOQUERY_SERVER_PORT", "3000")
	t.Setenv("GEOQUERY_COLLECT_CONCURRENCY", "4")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Collect.Concurrency)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("overpass: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Overpass.Endpoint = "https://overpass-api.de/api/interpreter"
	cfg.Overpass.RequestTimeoutMs = 120000
	cfg.Overpass.MaxWaitSearchMs = 180000
	cfg.Overpass.MaxWaitGeomMs = 600000
	cfg.Overpass.RetryBaseDelayMs = 3000
	cfg.Overpass.RetryMaxDelayMs = 20000
	cfg.Nominatim.BaseURL = "https://nominatim.openstreetmap.org"
	cfg.Collect.Concurrency = 2
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateQuery_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("query"))
}

func TestValidateQuery_MissingFields(t *testing.T) {
	cfg := validDefaults()
	cfg.Overpass.Endpoint = ""
	cfg.Overpass.MaxWaitSearchMs = 0
	cfg.Nominatim.BaseURL = ""

	err := cfg.Validate("query")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "overpass.endpoint is required")
	assert.Contains(t, err.Error(), "overpass.max_wait_search_ms must be > 0")
	assert.Contains(t, err.Error(), "nominatim.base_url is required")
}

func TestValidateQuery_IgnoresPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0
	assert.NoError(t, cfg.Validate("query"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateConcurrency(t *testing.T) {
	cfg := validDefaults()
	cfg.Collect.Concurrency = 0

	err := cfg.Validate("query")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "collect.concurrency must be >= 1")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
