package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultProviderURL     = "https://api.open-meteo.com/v1/forecast"
	defaultRequestTimeout  = 30 * time.Second
	defaultProviderRetries = 3
	defaultPort            = 8080
	defaultCoordEpsilon    = 0.0001
)

// Config holds environment-driven settings for the service.
type Config struct {
	DatabaseURL     string
	ProviderURL     string
	RequestTimeout  time.Duration
	ProviderRetries int
	Port            int
	CoordEpsilon    float64
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		ProviderURL:     defaultProviderURL,
		RequestTimeout:  defaultRequestTimeout,
		ProviderRetries: defaultProviderRetries,
		Port:            defaultPort,
		CoordEpsilon:    defaultCoordEpsilon,
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	if v := strings.TrimSpace(os.Getenv("OPENMETEO_URL")); v != "" {
		cfg.ProviderURL = v
	}

	if v := strings.TrimSpace(os.Getenv("PROVIDER_REQUEST_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid PROVIDER_REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}

	if v := strings.TrimSpace(os.Getenv("PROVIDER_MAX_RETRIES")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("invalid PROVIDER_MAX_RETRIES: %s", v)
		}
		cfg.ProviderRetries = n
	}

	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return cfg, fmt.Errorf("invalid PORT: %s", v)
		}
		cfg.Port = port
	}

	if v := strings.TrimSpace(os.Getenv("COORDINATE_EPSILON")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return cfg, fmt.Errorf("invalid COORDINATE_EPSILON: %s", v)
		}
		cfg.CoordEpsilon = f
	}

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
