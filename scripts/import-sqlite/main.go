// Package main imports a knowledge-graph snapshot from SQLite into the kbequiv
// PostgreSQL tables (kb_vertices, kb_edges) so the server can run with
// ORACLE_BACKEND=postgres.
//
// The SQLite file must contain:
//
//	vertices(id TEXT, class TEXT, name TEXT, display_name TEXT, attributes TEXT)
//	edges(source TEXT, target TEXT, class TEXT)
//
// Usage:
//
//	SQLITE_PATH=/path/to/kb.sqlite DATABASE_URL=postgres://... go run ./scripts/import-sqlite
//
// The target schema must already exist (run the server once with RUN_MIGRATIONS=true).
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	_ "modernc.org/sqlite"
)

// config holds environment-driven import settings.
type config struct {
	SQLitePath  string
	DatabaseURL string
	Replace     bool
	DryRun      bool
}

// skippedEdge records an edge that was not imported.
type skippedEdge struct {
	Source string
	Target string
	Class  string
	Reason string
}

// report holds the final import summary.
type report struct {
	Source           string
	Target           string
	VerticesRead     int
	VerticesInserted int
	VerticesVerified int
	EdgesRead        int
	EdgesInserted    int
	EdgesSkipped     int
	EdgesVerified    int
	SkippedEdges     []skippedEdge
	SpotChecks       []string
	Duration         time.Duration
	DryRun           bool
	Err              error
}

func main() {
	cfg := loadConfig()
	if cfg.DatabaseURL == "" && !cfg.DryRun {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	slog.Info("starting import",
		"sqlite", cfg.SQLitePath,
		"replace", cfg.Replace,
		"dry_run", cfg.DryRun,
	)

	start := time.Now()
	r, err := runImport(context.Background(), cfg)
	r.Duration = time.Since(start)
	if err != nil {
		r.Err = err
		slog.Error("import failed", "error", err)
	}
	printReport(os.Stdout, &r)
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads configuration from environment variables.
func loadConfig() config {
	return config{
		SQLitePath:  envOr("SQLITE_PATH", "kb.sqlite"),
		DatabaseURL: envOr("DATABASE_URL", ""),
		Replace:     isTrue(os.Getenv("REPLACE")),
		DryRun:      isTrue(os.Getenv("DRY_RUN")),
	}
}

// runImport executes the full import pipeline inside one PostgreSQL transaction.
func runImport(ctx context.Context, cfg config) (report, error) {
	r := report{
		Source: cfg.SQLitePath,
		Target: sanitizeURL(cfg.DatabaseURL),
		DryRun: cfg.DryRun,
	}

	lite, err := sql.Open("sqlite", "file:"+cfg.SQLitePath+"?mode=ro")
	if err != nil {
		return r, fmt.Errorf("open sqlite: %w", err)
	}
	defer lite.Close()

	vertices, err := readVertices(ctx, lite)
	if err != nil {
		return r, fmt.Errorf("read vertices: %w", err)
	}
	r.VerticesRead = len(vertices)
	slog.Info("read vertices from sqlite", "count", r.VerticesRead)

	edges, err := readEdges(ctx, lite)
	if err != nil {
		return r, fmt.Errorf("read edges: %w", err)
	}
	r.EdgesRead = len(edges)
	slog.Info("read edges from sqlite", "count", r.EdgesRead)

	edges, r.SkippedEdges = filterEdges(edges, vertexSet(vertices))
	r.EdgesSkipped = len(r.SkippedEdges)

	if cfg.DryRun {
		slog.Info("dry run, skipping PostgreSQL writes")
		r.VerticesInserted = r.VerticesRead
		r.EdgesInserted = len(edges)
		return r, nil
	}

	conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return r, fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return r, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if cfg.Replace {
		if _, err := tx.Exec(ctx, `TRUNCATE kb_edges, kb_vertices`); err != nil {
			return r, fmt.Errorf("truncate: %w", err)
		}
		slog.Info("existing graph removed")
	}

	if r.VerticesInserted, err = insertVertices(ctx, tx, vertices); err != nil {
		return r, fmt.Errorf("insert vertices: %w", err)
	}
	slog.Info("inserted vertices", "count", r.VerticesInserted)

	if r.EdgesInserted, err = insertEdges(ctx, tx, edges); err != nil {
		return r, fmt.Errorf("insert edges: %w", err)
	}
	slog.Info("inserted edges", "count", r.EdgesInserted, "skipped", r.EdgesSkipped)

	if r.VerticesVerified, err = countRows(ctx, tx, "kb_vertices"); err != nil {
		return r, fmt.Errorf("verify vertex count: %w", err)
	}
	if r.EdgesVerified, err = countRows(ctx, tx, "kb_edges"); err != nil {
		return r, fmt.Errorf("verify edge count: %w", err)
	}

	r.SpotChecks = spotCheck(ctx, tx, vertices)

	if err := tx.Commit(ctx); err != nil {
		return r, fmt.Errorf("commit: %w", err)
	}
	slog.Info("transaction committed")
	return r, nil
}
