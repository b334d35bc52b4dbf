package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/persistorai/kbequiv/internal/config"
	"github.com/persistorai/kbequiv/internal/resolver"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ORACLE_BACKEND", "graphkb")
	t.Setenv("GRAPHKB_USERNAME", "reader")
	t.Setenv("GRAPHKB_PASSWORD", "secret")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000")
}

func TestLoad_ValidConfig(t *testing.T) {
	setValidEnv(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Port != "3040" {
		t.Errorf("expected default port 3040, got %s", cfg.Port)
	}

	if cfg.Addr() != "127.0.0.1:3040" {
		t.Errorf("expected addr 127.0.0.1:3040, got %s", cfg.Addr())
	}

	if cfg.OracleBackend != config.BackendGraphKB {
		t.Errorf("expected graphkb backend, got %s", cfg.OracleBackend)
	}

	if cfg.GraphKBPassword.Value() != "secret" {
		t.Error("expected GRAPHKB_PASSWORD to be loaded")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setValidEnv(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"GraphKBURL", cfg.GraphKBURL, "https://graphkb-api.bcgsc.ca/api"},
		{"GraphKBPageSize", cfg.GraphKBPageSize, 1000},
		{"GraphKBMaxRetries", cfg.GraphKBMaxRetries, 3},
		{"GraphKBRateLimit", cfg.GraphKBRateLimit, 10.0},
		{"GraphKBCacheSize", cfg.GraphKBCacheSize, 1024},
		{"DBMaxConns", cfg.DBMaxConns, 10},
		{"AliasDepth", cfg.AliasDepth, 5},
		{"DirectionalDepth", cfg.DirectionalDepth, 5},
		{"QueryTimeout", cfg.QueryTimeout, 60 * time.Second},
		{"BatchSize", cfg.BatchSize, 100},
		{"BatchConcurrency", cfg.BatchConcurrency, 4},
		{"TracesExporter", cfg.TracesExporter, config.ExporterNone},
		{"TargetClass", cfg.TargetClass, ""},
		{"RunMigrations", cfg.RunMigrations, false},
	}

	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoad_EdgeLists(t *testing.T) {
	setValidEnv(t)
	t.Setenv("EQUIVALENCY_EDGES", " AliasOf, Infers ,,")
	t.Setenv("DIRECTIONAL_EDGES", "SubClassOf")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Join(cfg.EquivalencyEdges, "|") != "AliasOf|Infers" {
		t.Errorf("EquivalencyEdges = %v", cfg.EquivalencyEdges)
	}

	cls, err := cfg.Classification()
	if err != nil {
		t.Fatalf("Classification: %v", err)
	}

	if cls.Classify("CrossReferenceOf") != resolver.Unclassified {
		t.Error("custom equivalency list should replace the default")
	}

	if cls.Classify("SubClassOf") != resolver.Directional {
		t.Error("SubClassOf should be directional")
	}
}

func TestLoad_FileBackend(t *testing.T) {
	setValidEnv(t)

	path := filepath.Join(t.TempDir(), "graph.yaml")
	if err := os.WriteFile(path, []byte("vertices: []\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ORACLE_BACKEND", "file")
	t.Setenv("GRAPH_FILE", path)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.GraphFile != path {
		t.Errorf("GraphFile = %s", cfg.GraphFile)
	}
}

func TestLoad_ErrorCases(t *testing.T) {
	tests := []struct {
		name         string
		envOverrides map[string]string
		envClear     []string
		wantErr      string
	}{
		{
			name:         "invalid PORT zero",
			envOverrides: map[string]string{"PORT": "0"},
			wantErr:      "PORT must be between 1 and 65535",
		},
		{
			name:         "invalid PORT non-numeric",
			envOverrides: map[string]string{"PORT": "abc"},
			wantErr:      "PORT must be a valid integer",
		},
		{
			name:         "invalid LISTEN_HOST",
			envOverrides: map[string]string{"LISTEN_HOST": "192.168.1.1"},
			wantErr:      "LISTEN_HOST must be a loopback address or 0.0.0.0/:: for containers",
		},
		{
			name:         "invalid LOG_LEVEL",
			envOverrides: map[string]string{"LOG_LEVEL": "verbose"},
			wantErr:      "LOG_LEVEL must be one of",
		},
		{
			name:         "CORS wildcard",
			envOverrides: map[string]string{"CORS_ORIGINS": "*"},
			wantErr:      "CORS_ORIGINS must not contain wildcard",
		},
		{
			name:         "CORS invalid origin",
			envOverrides: map[string]string{"CORS_ORIGINS": "not-a-url"},
			wantErr:      "CORS_ORIGINS contains invalid origin",
		},
		{
			name:         "unknown backend",
			envOverrides: map[string]string{"ORACLE_BACKEND": "neo4j"},
			wantErr:      "ORACLE_BACKEND must be",
		},
		{
			name:         "graphkb plain http remote",
			envOverrides: map[string]string{"GRAPHKB_URL": "http://graphkb.example.org/api"},
			wantErr:      "GRAPHKB_URL must use HTTPS",
		},
		{
			name:     "graphkb username without password",
			envClear: []string{"GRAPHKB_PASSWORD"},
			wantErr:  "GRAPHKB_USERNAME and GRAPHKB_PASSWORD must be set together",
		},
		{
			name:         "postgres without DATABASE_URL",
			envOverrides: map[string]string{"ORACLE_BACKEND": "postgres"},
			envClear:     []string{"DATABASE_URL"},
			wantErr:      "DATABASE_URL is required",
		},
		{
			name:         "postgres wrong scheme",
			envOverrides: map[string]string{"ORACLE_BACKEND": "postgres", "DATABASE_URL": "mysql://localhost/db"},
			wantErr:      "DATABASE_URL scheme must be",
		},
		{
			name:         "file backend without GRAPH_FILE",
			envOverrides: map[string]string{"ORACLE_BACKEND": "file"},
			envClear:     []string{"GRAPH_FILE"},
			wantErr:      "GRAPH_FILE is required",
		},
		{
			name:         "file backend missing file",
			envOverrides: map[string]string{"ORACLE_BACKEND": "file", "GRAPH_FILE": "/nonexistent/graph.yaml"},
			wantErr:      "GRAPH_FILE is not readable",
		},
		{
			name:         "alias depth too high",
			envOverrides: map[string]string{"ALIAS_DEPTH": "26"},
			wantErr:      "ALIAS_DEPTH must be an integer between 0 and 25",
		},
		{
			name:         "directional depth negative",
			envOverrides: map[string]string{"DIRECTIONAL_DEPTH": "-1"},
			wantErr:      "DIRECTIONAL_DEPTH must be an integer between 0 and 25",
		},
		{
			name:         "batch size zero",
			envOverrides: map[string]string{"BATCH_SIZE": "0"},
			wantErr:      "BATCH_SIZE must be an integer between 1 and 10000",
		},
		{
			name:         "db max conns non-numeric",
			envOverrides: map[string]string{"DB_MAX_CONNS": "abc"},
			wantErr:      "DB_MAX_CONNS must be an integer between 1 and 100",
		},
		{
			name:         "negative rate limit",
			envOverrides: map[string]string{"GRAPHKB_RATE_LIMIT": "-1"},
			wantErr:      "GRAPHKB_RATE_LIMIT must be a non-negative number",
		},
		{
			name:         "bad timeout",
			envOverrides: map[string]string{"QUERY_TIMEOUT": "soon"},
			wantErr:      "QUERY_TIMEOUT must be a positive duration",
		},
		{
			name:         "overlapping edge sets",
			envOverrides: map[string]string{"EQUIVALENCY_EDGES": "AliasOf,SubClassOf"},
			wantErr:      "misconfigured edge sets",
		},
		{
			name:         "unknown trace exporter",
			envOverrides: map[string]string{"OTEL_TRACES_EXPORTER": "jaeger"},
			wantErr:      "OTEL_TRACES_EXPORTER must be",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setValidEnv(t)
			for _, k := range tc.envClear {
				t.Setenv(k, "")
			}
			for k, v := range tc.envOverrides {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %q", tc.wantErr, err.Error())
			}
		})
	}
}

func TestSecret_Redacted(t *testing.T) {
	s := config.Secret("hunter2")

	if s.String() != "[REDACTED]" || s.GoString() != "[REDACTED]" {
		t.Error("secret must not print its value")
	}

	text, _ := s.MarshalText()
	if string(text) != "[REDACTED]" {
		t.Errorf("MarshalText = %s", text)
	}
}
