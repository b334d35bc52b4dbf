// Package config provides environment-driven configuration for the kbequiv server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Oracle backends.
const (
	BackendGraphKB  = "graphkb"
	BackendPostgres = "postgres"
	BackendFile     = "file"
)

// Trace exporters.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	Port        string
	ListenHost  string
	LogLevel    string
	CORSOrigins []string
	APIKey      Secret

	RateLimitRPS   int
	RateLimitBurst int

	OracleBackend string

	GraphKBURL        string
	GraphKBUsername   string
	GraphKBPassword   Secret
	GraphKBPageSize   int
	GraphKBMaxRetries int
	GraphKBRateLimit  float64
	GraphKBCacheSize  int

	DatabaseURL   Secret
	DBMaxConns    int
	RunMigrations bool

	GraphFile string

	TargetClass      string
	AliasDepth       int
	DirectionalDepth int
	EquivalencyEdges []string
	DirectionalEdges []string
	QueryTimeout     time.Duration
	BatchSize        int
	BatchConcurrency int

	TracesExporter string
	OTLPEndpoint   string
	OTLPInsecure   bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            envOrDefault("PORT", "3040"),
		ListenHost:      envOrDefault("LISTEN_HOST", "127.0.0.1"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		APIKey:          Secret(envOrDefault("API_KEY", "")),
		OracleBackend:   envOrDefault("ORACLE_BACKEND", BackendGraphKB),
		GraphKBURL:      envOrDefault("GRAPHKB_URL", "https://graphkb-api.bcgsc.ca/api"),
		GraphKBUsername: envOrDefault("GRAPHKB_USERNAME", ""),
		GraphKBPassword: Secret(envOrDefault("GRAPHKB_PASSWORD", "")),
		DatabaseURL:     Secret(envOrDefault("DATABASE_URL", "")),
		RunMigrations:   envOrDefault("RUN_MIGRATIONS", "false") == "true",
		GraphFile:       envOrDefault("GRAPH_FILE", ""),
		TargetClass:     strings.TrimSpace(envOrDefault("TARGET_CLASS", "")),
		TracesExporter:  envOrDefault("OTEL_TRACES_EXPORTER", ExporterNone),
		OTLPEndpoint:    envOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTLPInsecure:    envOrDefault("OTEL_EXPORTER_OTLP_INSECURE", "false") == "true",
	}

	ints := []struct {
		key      string
		fallback int
		min, max int
		dst      *int
	}{
		{"RATE_LIMIT_RPS", 20, 1, 10_000, &cfg.RateLimitRPS},
		{"RATE_LIMIT_BURST", 40, 1, 10_000, &cfg.RateLimitBurst},
		{"GRAPHKB_PAGE_SIZE", 1000, 1, 10_000, &cfg.GraphKBPageSize},
		{"GRAPHKB_MAX_RETRIES", 3, 0, 10, &cfg.GraphKBMaxRetries},
		{"GRAPHKB_CACHE_SIZE", 1024, 0, 1_000_000, &cfg.GraphKBCacheSize},
		{"DB_MAX_CONNS", 10, 1, 100, &cfg.DBMaxConns},
		{"ALIAS_DEPTH", 5, 0, 25, &cfg.AliasDepth},
		{"DIRECTIONAL_DEPTH", 5, 0, 25, &cfg.DirectionalDepth},
		{"BATCH_SIZE", 100, 1, 10_000, &cfg.BatchSize},
		{"BATCH_CONCURRENCY", 4, 1, 64, &cfg.BatchConcurrency},
	}

	for _, spec := range ints {
		v, err := envInt(spec.key, spec.fallback, spec.min, spec.max)
		if err != nil {
			return nil, err
		}

		*spec.dst = v
	}

	rateLimit, err := strconv.ParseFloat(envOrDefault("GRAPHKB_RATE_LIMIT", "10"), 64)
	if err != nil || rateLimit < 0 {
		return nil, fmt.Errorf("GRAPHKB_RATE_LIMIT must be a non-negative number")
	}
	cfg.GraphKBRateLimit = rateLimit

	timeout, err := time.ParseDuration(envOrDefault("QUERY_TIMEOUT", "60s"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("QUERY_TIMEOUT must be a positive duration (e.g. 60s)")
	}
	cfg.QueryTimeout = timeout

	cfg.CORSOrigins = splitList(envOrDefault("CORS_ORIGINS", "http://localhost:3002"))
	cfg.EquivalencyEdges = splitList(os.Getenv("EQUIVALENCY_EDGES"))
	cfg.DirectionalEdges = splitList(os.Getenv("DIRECTIONAL_EDGES"))

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func envInt(key string, fallback, minVal, maxVal int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < minVal || v > maxVal {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, minVal, maxVal)
	}

	return v, nil
}

// splitList splits a comma-separated value, trimming blanks.
func splitList(raw string) []string {
	var out []string

	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
