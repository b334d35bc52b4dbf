package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/persistorai/kbequiv/internal/resolver"
)

func (c *Config) validate() error {
	validators := []func() error{
		c.validateNetwork,
		c.validateLogLevel,
		c.validateCORS,
		c.validateBackend,
		c.validateEdgeSets,
		c.validateTracing,
	}

	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) validateNetwork() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid integer: %w", err)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Loopback for local deployments; 0.0.0.0/:: for containers where the network boundary
	// is enforced externally.
	validHosts := map[string]bool{
		"127.0.0.1": true,
		"::1":       true,
		"localhost": true,
		"0.0.0.0":   true,
		"::":        true,
	}
	if !validHosts[c.ListenHost] {
		return fmt.Errorf("LISTEN_HOST must be a loopback address or 0.0.0.0/:: for containers (got %q)", c.ListenHost)
	}

	return nil
}

func (c *Config) validateLogLevel() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error (got %q)", c.LogLevel)
	}
}

func (c *Config) validateCORS() error {
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return fmt.Errorf("CORS_ORIGINS must not contain wildcard '*'")
		}
		if strings.ContainsAny(origin, "*?[]") {
			return fmt.Errorf("CORS_ORIGINS must not contain glob characters (*?[]), got %q", origin)
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS contains invalid origin %q (must have scheme and host)", origin)
		}
	}

	return nil
}

func (c *Config) validateBackend() error {
	switch c.OracleBackend {
	case BackendGraphKB:
		return c.validateGraphKB()
	case BackendPostgres:
		return c.validateDatabase()
	case BackendFile:
		if c.GraphFile == "" {
			return fmt.Errorf("GRAPH_FILE is required when ORACLE_BACKEND is file")
		}

		if _, err := os.Stat(c.GraphFile); err != nil {
			return fmt.Errorf("GRAPH_FILE is not readable: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("ORACLE_BACKEND must be 'graphkb', 'postgres' or 'file', got %q", c.OracleBackend)
	}
}

func (c *Config) validateGraphKB() error {
	u, err := url.ParseRequestURI(c.GraphKBURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("GRAPHKB_URL is not a valid URL: %q", c.GraphKBURL)
	}

	if u.Scheme != "https" && !isLocalhost(c.GraphKBURL) {
		return fmt.Errorf("GRAPHKB_URL must use HTTPS for non-localhost connections")
	}

	if (c.GraphKBUsername == "") != (c.GraphKBPassword.Value() == "") {
		return fmt.Errorf("GRAPHKB_USERNAME and GRAPHKB_PASSWORD must be set together")
	}

	return nil
}

func (c *Config) validateDatabase() error {
	if c.DatabaseURL.Value() == "" {
		return fmt.Errorf("DATABASE_URL is required when ORACLE_BACKEND is postgres")
	}

	dbURL, err := url.Parse(c.DatabaseURL.Value())
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	if dbURL.Scheme != "postgres" && dbURL.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL scheme must be postgres:// or postgresql://")
	}

	if dbURL.Hostname() == "" {
		return fmt.Errorf("DATABASE_URL must include a host")
	}

	dbHost := dbURL.Hostname()
	if dbHost != "localhost" && dbHost != "127.0.0.1" && dbHost != "::1" {
		if dbURL.Query().Get("sslmode") == "disable" {
			return fmt.Errorf("DATABASE_URL sslmode=disable is not allowed for non-local host %q", dbHost)
		}
	}

	return nil
}

// validateEdgeSets applies the resolver's own overlap rule to the default edge sets.
func (c *Config) validateEdgeSets() error {
	if _, err := c.Classification(); err != nil {
		return fmt.Errorf("EQUIVALENCY_EDGES/DIRECTIONAL_EDGES: %w", err)
	}

	return nil
}

func (c *Config) validateTracing() error {
	switch c.TracesExporter {
	case ExporterNone, ExporterStdout, ExporterOTLP:
		return nil
	default:
		return fmt.Errorf("OTEL_TRACES_EXPORTER must be 'none', 'stdout' or 'otlp', got %q", c.TracesExporter)
	}
}

// Classification returns the default edge classification, substituting the built-in set for
// whichever of EQUIVALENCY_EDGES and DIRECTIONAL_EDGES is unset.
func (c *Config) Classification() (resolver.Classification, error) {
	eq := c.EquivalencyEdges
	if len(eq) == 0 {
		eq = resolver.DefaultEquivalencyEdges
	}

	dir := c.DirectionalEdges
	if len(dir) == 0 {
		dir = resolver.DefaultDirectionalEdges
	}

	return resolver.NewClassification(eq, dir)
}

// isLocalhost returns true if the given address points to a loopback address.
func isLocalhost(addr string) bool {
	u, err := url.Parse(addr)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
