package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Geocoding provider (Nominatim).
	NominatimURL     string
	NominatimTimeout time.Duration

	// POI provider (Overpass).
	OverpassURL     string
	OverpassTimeout time.Duration

	// UserAgent identifies this service to the free OSM providers,
	// which require a descriptive client identifier.
	UserAgent string

	// RequestInterval is the fixed delay between outbound provider calls.
	RequestInterval time.Duration
	// CategoryInterval is the extra pacing delay between category
	// searches within a single multi-category discovery request.
	CategoryInterval time.Duration

	GeocodeCacheSize int

	// Kafka telemetry event configuration.
	KafkaBrokers     []string
	KafkaEventsTopic string
	EventsEnabled    bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	nominatimTimeout, err := parsePositiveDuration("NOMINATIM_TIMEOUT", "12s")
	if err != nil {
		return nil, err
	}
	overpassTimeout, err := parsePositiveDuration("OVERPASS_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	requestInterval, err := parsePositiveDuration("REQUEST_INTERVAL", "400ms")
	if err != nil {
		return nil, err
	}
	categoryInterval, err := parsePositiveDuration("CATEGORY_INTERVAL", "1s")
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("GEOCODE_CACHE_SIZE", 5000)
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	eventsEnabled := len(brokers) > 0
	if v := os.Getenv("EVENTS_ENABLED"); v != "" {
		eventsEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		NominatimURL:     envOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimTimeout: nominatimTimeout,
		OverpassURL:      envOrDefault("OVERPASS_URL", "https://overpass-api.de"),
		OverpassTimeout:  overpassTimeout,
		UserAgent:        envOrDefault("USER_AGENT", "wanderplan-places-discovery/1.0 (+https://wanderplan.app)"),

		RequestInterval:  requestInterval,
		CategoryInterval: categoryInterval,
		GeocodeCacheSize: cacheSize,

		KafkaBrokers:     brokers,
		KafkaEventsTopic: envOrDefault("KAFKA_EVENTS_TOPIC", "discovery-events"),
		EventsEnabled:    eventsEnabled,
	}

	if cfg.UserAgent == "" {
		return nil, errors.New("USER_AGENT is required")
	}
	if cfg.KafkaEventsTopic == "" {
		return nil, errors.New("KAFKA_EVENTS_TOPIC is required")
	}
	if cfg.EventsEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("EVENTS_ENABLED is true but KAFKA_BROKERS is not set")
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
		return 0, fmt.Errorf("invalid %s", key)
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
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
