// Package config resolves runtime settings from an optional YAML file, an
// optional .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/neexbeast/weatherwidget/internal/render"
	"github.com/neexbeast/weatherwidget/internal/weather"
)

// ErrMissingAPIKey is returned when no provider credential was supplied.
var ErrMissingAPIKey = errors.New("OPENWEATHER_API_KEY is not set")

// Config holds every runtime setting.
type Config struct {
	Port        string `yaml:"port"`
	APIKey      string `yaml:"api_key"`
	Endpoint    string `yaml:"endpoint"`
	IconBase    string `yaml:"icon_base"`
	DefaultCity string `yaml:"default_city"`
	Timezone    string `yaml:"timezone"`
	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`
	BearerToken string `yaml:"bearer_token"`
	LogLevel    string `yaml:"log_level"`
	// HTTPTimeoutSeconds bounds each provider request. Zero disables it.
	HTTPTimeoutSeconds int `yaml:"http_timeout_seconds"`
}

// Defaults returns the settings used when nothing overrides them.
func Defaults() Config {
	return Config{
		Port:               "8080",
		Endpoint:           weather.DefaultEndpoint,
		IconBase:           render.DefaultIconBase,
		DefaultCity:        "Toronto",
		LogLevel:           "info",
		HTTPTimeoutSeconds: 10,
	}
}

// Load builds a Config. The YAML file named by WEATHER_CONFIG is read first,
// then .env (if present) is merged into the environment without overriding
// variables already set, then environment variables win.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("WEATHER_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Port, "PORT")
	setString(&cfg.APIKey, "OPENWEATHER_API_KEY")
	setString(&cfg.Endpoint, "OPENWEATHER_ENDPOINT")
	setString(&cfg.IconBase, "OPENWEATHER_ICON_BASE")
	setString(&cfg.DefaultCity, "DEFAULT_CITY")
	setString(&cfg.Timezone, "DISPLAY_TIMEZONE")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.BearerToken, "BEARER_TOKEN")
	setString(&cfg.LogLevel, "LOG_LEVEL")

	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.HTTPTimeoutSeconds = n
		} else {
			slog.Warn("ignoring invalid HTTP_TIMEOUT_SECONDS", "value", v)
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate reports settings that would prevent startup.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.DefaultCity == "" {
		return errors.New("default city must not be empty")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the display time zone. Empty means the host's local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// HTTPTimeout is HTTPTimeoutSeconds as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// SlogLevel maps LogLevel onto slog; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
