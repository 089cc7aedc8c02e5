package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataPath        string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Per-user dashboard state.
	SessionTTL      time.Duration
	SessionCapacity int

	SceneCacheSize int

	// Map styling, from STYLE_PATH when set.
	StylePath string
	Style     Style
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	sessionTTL, err := parsePositiveDuration("SESSION_TTL", "30m")
	if err != nil {
		return nil, err
	}

	sessionCapacity, err := parsePositiveInt("SESSION_CAPACITY", 1000)
	if err != nil {
		return nil, err
	}

	sceneCacheSize, err := parsePositiveInt("SCENE_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataPath:        envOrDefault("DATA_PATH", "data/migration_mq.csv"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		SessionTTL:      sessionTTL,
		SessionCapacity: sessionCapacity,
		SceneCacheSize:  sceneCacheSize,
		StylePath:       os.Getenv("STYLE_PATH"),
		Style:           DefaultStyle(),
	}

	if cfg.DataPath == "" {
		return nil, errors.New("DATA_PATH is required")
	}

	if cfg.StylePath != "" {
		style, err := LoadStyle(cfg.StylePath)
		if err != nil {
			return nil, fmt.Errorf("STYLE_PATH: %w", err)
		}
		cfg.Style = style
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}
