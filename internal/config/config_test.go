package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes into dir for the duration of the test, restoring the
// previous working directory on cleanup (stand-in for t.Chdir, which
// requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir()) // no config.yaml present

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, "cache/districts_geocoded.csv", cfg.Geocode.CachePath)
	assert.Equal(t, "cache/geocode_responses.db", cfg.Geocode.ResponsesPath)
	assert.Equal(t, "https://nominatim.openstreetmap.org/search", cfg.Nominatim.BaseURL)
	assert.Equal(t, "https://api.openweathermap.org/data/2.5/weather", cfg.OWM.WeatherURL)
	assert.Equal(t, "https://api.openweathermap.org/data/2.5/air_pollution", cfg.OWM.AirURL)
	assert.Equal(t, 1000, cfg.Fetch.MinIntervalMs)
	assert.Equal(t, 5, cfg.Fetch.MaxRetries)
	assert.Equal(t, "Asia/Dhaka", cfg.Collect.Timezone)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CLIMATE_FETCH_MIN_INTERVAL_MS", "250")
	t.Setenv("CLIMATE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Fetch.MinIntervalMs)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_LegacyAPIKeyEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("OWM_API_KEY", "legacy-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", cfg.OWM.APIKey)
	assert.NoError(t, cfg.ValidateOWM())
}

func TestValidateOWM_MissingKey(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.ValidateOWM())
}

func TestFetchConfig_Conversions(t *testing.T) {
	fc := FetchConfig{
		MinIntervalMs:    1000,
		TimeoutSecs:      30,
		MaxRetries:       5,
		InitialBackoffMs: 1000,
		MaxBackoffMs:     16000,
		JitterFraction:   0.25,
	}

	assert.Equal(t, time.Second, fc.MinInterval())
	assert.Equal(t, 30*time.Second, fc.Timeout())

	rc := fc.RetryConfig()
	assert.Equal(t, 6, rc.MaxAttempts, "5 retries on top of the initial attempt")
	assert.Equal(t, time.Second, rc.InitialBackoff)
	assert.Equal(t, 16*time.Second, rc.MaxBackoff)
	assert.Equal(t, 0.25, rc.JitterFraction)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	require.Error(t, err)
}
