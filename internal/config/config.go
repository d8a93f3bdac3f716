package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Overpass  OverpassConfig  `yaml:"overpass" mapstructure:"overpass"`
	Nominatim NominatimConfig `yaml:"nominatim" mapstructure:"nominatim"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Messages  MessagesConfig  `yaml:"messages" mapstructure:"messages"`
	Collect   CollectConfig   `yaml:"collect" mapstructure:"collect"`
}

// OverpassConfig configures the Overpass query client and its retry budget.
type OverpassConfig struct {
	Endpoint         string   `yaml:"endpoint" mapstructure:"endpoint"`
	BusyStatusCodes  []int    `yaml:"busy_status_codes" mapstructure:"busy_status_codes"`
	BusyHints        []string `yaml:"busy_hints" mapstructure:"busy_hints"`
	RequestTimeoutMs int      `yaml:"request_timeout_ms" mapstructure:"request_timeout_ms"`
	MaxWaitSearchMs  int      `yaml:"max_wait_search_ms" mapstructure:"max_wait_search_ms"`
	MaxWaitGeomMs    int      `yaml:"max_wait_geom_ms" mapstructure:"max_wait_geom_ms"`
	RetryBaseDelayMs int      `yaml:"retry_base_delay_ms" mapstructure:"retry_base_delay_ms"`
	RetryMaxDelayMs  int      `yaml:"retry_max_delay_ms" mapstructure:"retry_max_delay_ms"`
	UserAgent        string   `yaml:"user_agent" mapstructure:"user_agent"`
}

// RequestTimeout returns the per-attempt timeout.
func (c OverpassConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

// MaxWaitSearch returns the overall budget for quick queries.
func (c OverpassConfig) MaxWaitSearch() time.Duration {
	return time.Duration(c.MaxWaitSearchMs) * time.Millisecond
}

// MaxWaitGeometry returns the overall budget for geometry queries.
func (c OverpassConfig) MaxWaitGeometry() time.Duration {
	return time.Duration(c.MaxWaitGeomMs) * time.Millisecond
}

// NominatimConfig configures place search.
type NominatimConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Limit       int     `yaml:"limit" mapstructure:"limit"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// MessagesConfig selects the language of user-facing messages.
type MessagesConfig struct {
	Language string `yaml:"language" mapstructure:"language"`
}

// CollectConfig configures the collect command.
type CollectConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOQUERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("overpass.endpoint", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.busy_status_codes", []int{429, 502, 503, 504})
	v.SetDefault("overpass.busy_hints", []string{"Dispatcher_Client", "too busy", "timeout", "rate limit"})
	v.SetDefault("overpass.request_timeout_ms", 120000)
	v.SetDefault("overpass.max_wait_search_ms", 180000)
	v.SetDefault("overpass.max_wait_geom_ms", 600000)
	v.SetDefault("overpass.retry_base_delay_ms", 3000)
	v.SetDefault("overpass.retry_max_delay_ms", 20000)
	v.SetDefault("overpass.user_agent", "geoquery/1.0")
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.limit", 10)
	v.SetDefault("nominatim.rate_per_sec", 1.0)
	v.SetDefault("nominatim.timeout_secs", 30)
	v.SetDefault("nominatim.user_agent", "geoquery/1.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("messages.language", "de")
	v.SetDefault("collect.concurrency", 2)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes: "query"
// (search, objects, geometry, collect) and "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "query", "serve":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Overpass.Endpoint == "" {
		errs = append(errs, "overpass.endpoint is required")
	}
	if c.Overpass.RequestTimeoutMs <= 0 {
		errs = append(errs, "overpass.request_timeout_ms must be > 0")
	}
	if c.Overpass.MaxWaitSearchMs <= 0 {
		errs = append(errs, "overpass.max_wait_search_ms must be > 0")
	}
	if c.Overpass.MaxWaitGeomMs <= 0 {
		errs = append(errs, "overpass.max_wait_geom_ms must be > 0")
	}
	if c.Overpass.RetryBaseDelayMs < 0 || c.Overpass.RetryMaxDelayMs < 0 {
		errs = append(errs, "overpass retry delays must be >= 0")
	}
	if c.Nominatim.BaseURL == "" {
		errs = append(errs, "nominatim.base_url is required")
	}
	if c.Collect.Concurrency < 1 {
		errs = append(errs, "collect.concurrency must be >= 1")
	}
	if mode == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, "server.port must be > 0 and <= 65535")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
