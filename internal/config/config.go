// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bdmet/climate-cli/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	OWM       OWMConfig       `yaml:"owm" mapstructure:"owm"`
	Nominatim NominatimConfig `yaml:"nominatim" mapstructure:"nominatim"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Collect   CollectConfig   `yaml:"collect" mapstructure:"collect"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the dataset directory.
type DataConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// GeocodeConfig locates the geocode cache artifacts.
type GeocodeConfig struct {
	CachePath     string `yaml:"cache_path" mapstructure:"cache_path"`
	ResponsesPath string `yaml:"responses_path" mapstructure:"responses_path"`
}

// OWMConfig holds OpenWeatherMap credentials and endpoints.
type OWMConfig struct {
	APIKey     string `yaml:"api_key" mapstructure:"api_key"`
	WeatherURL string `yaml:"weather_url" mapstructure:"weather_url"`
	AirURL     string `yaml:"air_url" mapstructure:"air_url"`
}

// NominatimConfig holds the geocoding service endpoint.
type NominatimConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// FetchConfig controls the shared rate-limited fetch client.
type FetchConfig struct {
	MinIntervalMs    int     `yaml:"min_interval_ms" mapstructure:"min_interval_ms"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries       int     `yaml:"max_retries" mapstructure:"max_retries"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
	UserAgent        string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// MinInterval returns the configured inter-request spacing.
func (c FetchConfig) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalMs) * time.Millisecond
}

// Timeout returns the per-call HTTP timeout.
func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// RetryConfig converts the fetch settings into a resilience.RetryConfig.
// MaxRetries counts retries, so total attempts is MaxRetries+1.
func (c FetchConfig) RetryConfig() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	if c.MaxRetries >= 0 {
		cfg.MaxAttempts = c.MaxRetries + 1
	}
	if c.InitialBackoffMs > 0 {
		cfg.InitialBackoff = time.Duration(c.InitialBackoffMs) * time.Millisecond
	}
	if c.MaxBackoffMs > 0 {
		cfg.MaxBackoff = time.Duration(c.MaxBackoffMs) * time.Millisecond
	}
	if c.JitterFraction >= 0 {
		cfg.JitterFraction = c.JitterFraction
	}
	return cfg
}

// CollectConfig controls the collection run.
type CollectConfig struct {
	Timezone string `yaml:"timezone" mapstructure:"timezone"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml (optional) and CLIMATE_-prefixed
// environment variables. The OpenWeatherMap key is also read from the bare
// OWM_API_KEY variable for .env compatibility.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CLIMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("owm.api_key", "CLIMATE_OWM_API_KEY", "OWM_API_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind env")
	}

	v.SetDefault("data.dir", "data")
	v.SetDefault("geocode.cache_path", "cache/districts_geocoded.csv")
	v.SetDefault("geocode.responses_path", "cache/geocode_responses.db")
	v.SetDefault("owm.weather_url", "https://api.openweathermap.org/data/2.5/weather")
	v.SetDefault("owm.air_url", "https://api.openweathermap.org/data/2.5/air_pollution")
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("fetch.min_interval_ms", 1000)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 5)
	v.SetDefault("fetch.initial_backoff_ms", 1000)
	v.SetDefault("fetch.max_backoff_ms", 16000)
	v.SetDefault("fetch.jitter_fraction", 0.25)
	v.SetDefault("fetch.user_agent", "bd-districts-collector/1.0")
	v.SetDefault("collect.timezone", "Asia/Dhaka")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// ValidateOWM checks that an API credential is present for collection runs.
func (c *Config) ValidateOWM() error {
	if c.OWM.APIKey == "" {
		return eris.New("config: missing OpenWeatherMap API key (set OWM_API_KEY or pass --api-key)")
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
