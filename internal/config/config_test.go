package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment does not leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENWEATHER_API_KEY", "OPENWEATHER_BASE_URL", "HTTP_TIMEOUT", "UPSTREAM_RATE_PER_MINUTE",
		"CACHE_PURGE_INTERVAL", "WARM_CITIES", "WARM_INTERVAL", "NEGATIVE_CACHE_TTL",
		"COALESCE_FETCHES", "LOG_LEVEL", "LOG_FORMAT", "PORT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENWEATHER_API_KEY", "abc")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "abc", cfg.OpenWeatherAPIKey)
	assert.Equal(t, "https://api.openweathermap.org/data/2.5/", cfg.OpenWeatherBaseURL)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 60, cfg.UpstreamRatePerMinute)
	assert.Equal(t, 5*time.Minute, cfg.CachePurgeInterval)
	assert.Empty(t, cfg.WarmCities)
	assert.Equal(t, 10*time.Minute, cfg.WarmInterval)
	assert.Zero(t, cfg.NegativeCacheTTL)
	assert.False(t, cfg.CoalesceFetches)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoad_RequiresAPIKey(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	assert.ErrorContains(t, err, "OPENWEATHER_API_KEY")
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENWEATHER_API_KEY", "abc")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("UPSTREAM_RATE_PER_MINUTE", "0")
	t.Setenv("WARM_CITIES", " Paris, London ,,Tokyo ")
	t.Setenv("NEGATIVE_CACHE_TTL", "1m")
	t.Setenv("COALESCE_FETCHES", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 0, cfg.UpstreamRatePerMinute)
	assert.Equal(t, []string{"Paris", "London", "Tokyo"}, cfg.WarmCities)
	assert.Equal(t, time.Minute, cfg.NegativeCacheTTL)
	assert.True(t, cfg.CoalesceFetches)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "9000", cfg.Port)

	_, isJSON := cfg.NewLogger().Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"HTTP_TIMEOUT":             "soon",
		"UPSTREAM_RATE_PER_MINUTE": "-1",
		"WARM_INTERVAL":            "10",
		"COALESCE_FETCHES":         "maybe",
		"LOG_LEVEL":                "loud",
		"LOG_FORMAT":               "xml",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("OPENWEATHER_API_KEY", "abc")
			t.Setenv(key, val)

			_, err := Load()
			assert.ErrorContains(t, err, key)
		})
	}
}
