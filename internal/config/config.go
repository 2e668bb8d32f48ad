package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds app configuration loaded from .env, YAML and environment.
type Config struct {
	WeatherAPIKey     string
	WeatherAPIBaseURL string
	WeatherIconURL    string
	WeatherAPITimeout time.Duration

	// Outbound pacing shared by all upstream calls; 0 disables it.
	RateLimitRPS   int
	RateLimitBurst int

	GeolocationURL string

	HistoryLimit  int
	CityMaxLength int

	ChartDays   int
	ChartWidth  int
	ChartHeight int

	// MetricsAddr, when set, serves /metrics and /health on that address.
	MetricsAddr string

	// /health reports degraded when upstream errors reach this share of calls in the window.
	HealthDegradedWindow   time.Duration
	HealthDegradedErrorPct int
}

type fileConfig struct {
	WeatherAPI struct {
		BaseURL        string `yaml:"base_url"`
		IconURL        string `yaml:"icon_url"`
		Timeout        string `yaml:"timeout"`
		RateLimitRPS   *int   `yaml:"rate_limit_rps"`
		RateLimitBurst int    `yaml:"rate_limit_burst"`
	} `yaml:"weather_api"`

	Geolocation struct {
		URL string `yaml:"url"`
	} `yaml:"geolocation"`

	History struct {
		Limit int `yaml:"limit"`
	} `yaml:"history"`

	Validation struct {
		CityMaxLength int `yaml:"city_max_length"`
	} `yaml:"validation"`

	Chart struct {
		Days   int `yaml:"days"`
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"chart"`

	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`

	Health struct {
		DegradedWindow   string `yaml:"degraded_window"`
		DegradedErrorPct int    `yaml:"degraded_error_pct"`
	} `yaml:"health"`
}

type secretsFile struct {
	WeatherAPIKey string `yaml:"weather_api_key"`
}

// Load reads an optional .env file, then config/{ENV_NAME}.yaml (default dev) and
// config/secrets.yaml relative to CONFIG_DIR's parent or the working directory.
// A missing YAML file means defaults; the desktop app has to start from anywhere.
// The API key comes from WEATHER_API_KEY or the secrets file and is required.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	if err := godotenv.Load(filepath.Join(cwd, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env file: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}
	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		configDir = filepath.Join(cwd, "config")
	}

	var fc fileConfig
	configPath := filepath.Join(configDir, env+".yaml")
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// defaults
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	cfg.WeatherAPIKey = strings.TrimSpace(os.Getenv("WEATHER_API_KEY"))
	if cfg.WeatherAPIKey == "" {
		secretsData, err := os.ReadFile(filepath.Join(configDir, "secrets.yaml"))
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read secrets file: %w", err)
			}
		} else {
			var sec secretsFile
			if err := yaml.Unmarshal(secretsData, &sec); err != nil {
				return nil, fmt.Errorf("parse secrets file: %w", err)
			}
			cfg.WeatherAPIKey = strings.TrimSpace(sec.WeatherAPIKey)
		}
	}
	if cfg.WeatherAPIKey == "" {
		return nil, fmt.Errorf("WEATHER_API_KEY required (set env, .env or config/secrets.yaml weather_api_key)")
	}

	cfg.WeatherAPIBaseURL = stringOr(fc.WeatherAPI.BaseURL, "https://api.openweathermap.org")
	cfg.WeatherIconURL = stringOr(fc.WeatherAPI.IconURL, "https://openweathermap.org")
	cfg.WeatherAPITimeout = parseDurationOrZero(fc.WeatherAPI.Timeout, 10*time.Second)

	cfg.RateLimitRPS = 1
	if fc.WeatherAPI.RateLimitRPS != nil {
		cfg.RateLimitRPS = *fc.WeatherAPI.RateLimitRPS
	}
	cfg.RateLimitBurst = fc.WeatherAPI.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 10
	}

	cfg.GeolocationURL = stringOr(fc.Geolocation.URL, "https://ipinfo.io/json")

	cfg.HistoryLimit = intOr(fc.History.Limit, 5)
	cfg.CityMaxLength = intOr(fc.Validation.CityMaxLength, 100)
	cfg.ChartDays = intOr(fc.Chart.Days, 5)
	cfg.ChartWidth = intOr(fc.Chart.Width, 500)
	cfg.ChartHeight = intOr(fc.Chart.Height, 300)

	cfg.MetricsAddr = strings.TrimSpace(os.Getenv("METRICS_ADDR"))
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = strings.TrimSpace(fc.Metrics.Addr)
	}

	cfg.HealthDegradedWindow = parseDurationOrZero(fc.Health.DegradedWindow, time.Minute)
	cfg.HealthDegradedErrorPct = intOr(fc.Health.DegradedErrorPct, 50)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func stringOr(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

func intOr(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (validate rejects them).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

func validate(cfg *Config) error {
	if cfg.WeatherAPITimeout <= 0 {
		return fmt.Errorf("weather_api.timeout must be positive")
	}
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("weather_api.rate_limit_rps must be >= 0, got %d", cfg.RateLimitRPS)
	}
	// One lookup is up to 1 + 1 + ChartDays calls; a smaller burst stalls every lookup.
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst < cfg.ChartDays+2 {
		cfg.RateLimitBurst = cfg.ChartDays + 2
	}
	if cfg.HealthDegradedWindow <= 0 {
		return fmt.Errorf("health.degraded_window must be positive")
	}
	if cfg.HealthDegradedErrorPct > 100 {
		return fmt.Errorf("health.degraded_error_pct must be <= 100, got %d", cfg.HealthDegradedErrorPct)
	}
	for name, u := range map[string]string{
		"weather_api.base_url": cfg.WeatherAPIBaseURL,
		"weather_api.icon_url": cfg.WeatherIconURL,
		"geolocation.url":      cfg.GeolocationURL,
	} {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("%s must be an http(s) URL, got %q", name, u)
		}
	}
	return nil
}
