package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Forecast API the map sessions fetch from. Defaults to this service's own endpoint.
	ForecastAPIURL  string
	ForecastTimeout time.Duration

	// Open-Meteo Marine upstream.
	MarineAPIURL    string
	MarineTimeout   time.Duration
	MarineRetries   int
	MarineCacheSize int
	MarineCacheTTL  time.Duration

	LandMaskEnabled bool
	LandMaskPath    string // GeoJSON land polygons; empty leaves land to the upstream

	// Forecast record publishing.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	forecastTimeout, err := parsePositiveDuration("FORECAST_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	marineTimeout, err := parsePositiveDuration("MARINE_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration("MARINE_CACHE_TTL", "10m")
	if err != nil {
		return nil, err
	}

	retries, err := parseIntInRange("MARINE_RETRIES", 3, 1, 10)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseIntInRange("MARINE_CACHE_SIZE", 1000, 0, 1_000_000)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	httpAddr := sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080")

	cfg := &Config{
		HTTPAddr:        httpAddr,
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ForecastAPIURL:  sharedcfg.EnvOrDefault("FORECAST_API_URL", selfURL(httpAddr)),
		ForecastTimeout: forecastTimeout,

		MarineAPIURL:    sharedcfg.EnvOrDefault("MARINE_API_URL", "https://marine-api.open-meteo.com/v1/marine"),
		MarineTimeout:   marineTimeout,
		MarineRetries:   retries,
		MarineCacheSize: cacheSize,
		MarineCacheTTL:  cacheTTL,

		LandMaskEnabled: os.Getenv("LANDMASK_ENABLED") != "false",
		LandMaskPath:    os.Getenv("LANDMASK_PATH"),

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "marine-forecasts"),
	}

	if err := validateURL("FORECAST_API_URL", cfg.ForecastAPIURL); err != nil {
		return nil, err
	}
	if err := validateURL("MARINE_API_URL", cfg.MarineAPIURL); err != nil {
		return nil, err
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}

	return cfg, nil
}

// selfURL is the base URL this service answers on when listening at addr.
// An empty or unspecified host means localhost.
func selfURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseIntInRange(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be an integer between %d and %d", key, lo, hi)
	}
	return n, nil
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
