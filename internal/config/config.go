package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type AppConfig struct {
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string

	// HTTPTimeout bounds every outbound upstream request.
	HTTPTimeout time.Duration

	// UpstreamRatePerMinute caps outbound calls (0 = unlimited).
	UpstreamRatePerMinute int

	// Cache maintenance.
	CachePurgeInterval time.Duration // 0 disables the purge job
	WarmCities         []string
	WarmInterval       time.Duration

	// Optional retrieval behaviour, both off by default.
	NegativeCacheTTL time.Duration
	CoalesceFetches  bool

	LogLevel  logrus.Level
	LogFormat string

	Port string
}

// Load reads configuration from environment with sensible defaults. A .env
// file in the working directory is loaded first when present.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("no .env file loaded")
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	if cfg.OpenWeatherAPIKey == "" {
		return nil, fmt.Errorf("OPENWEATHER_API_KEY is required")
	}
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5/")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.UpstreamRatePerMinute, err = getenvInt("UPSTREAM_RATE_PER_MINUTE", 60); err != nil {
		return nil, err
	}
	if cfg.UpstreamRatePerMinute < 0 {
		return nil, fmt.Errorf("invalid UPSTREAM_RATE_PER_MINUTE: must not be negative")
	}

	if cfg.CachePurgeInterval, err = getenvDuration("CACHE_PURGE_INTERVAL", "5m"); err != nil {
		return nil, err
	}
	cfg.WarmCities = splitList(os.Getenv("WARM_CITIES"))
	if cfg.WarmInterval, err = getenvDuration("WARM_INTERVAL", "10m"); err != nil {
		return nil, err
	}

	if cfg.NegativeCacheTTL, err = getenvDuration("NEGATIVE_CACHE_TTL", "0"); err != nil {
		return nil, err
	}
	if cfg.CoalesceFetches, err = getenvBool("COALESCE_FETCHES", false); err != nil {
		return nil, err
	}

	if cfg.LogLevel, err = logrus.ParseLevel(getenvDefault("LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogFormat = strings.ToLower(getenvDefault("LOG_FORMAT", "text"))
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: want text or json", cfg.LogFormat)
	}

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

// NewLogger builds the process logger from the configured level and format.
func (c *AppConfig) NewLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(c.LogLevel)
	if c.LogFormat == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
