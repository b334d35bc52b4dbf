package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/url"
	"os"

	"github.com/jackc/pgx/v5"
)

// sanitizeURL removes credentials from a database URL for display.
func sanitizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[unparseable URL]"
	}
	u.User = nil
	return u.String()
}

// envOr returns the environment variable value or a default.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func isTrue(v string) bool {
	return v == "true" || v == "1"
}

// allowedTables is the set of table names that countRows may query.
var allowedTables = map[string]bool{
	"kb_vertices": true,
	"kb_edges":    true,
}

// countRows counts rows in a knowledge-graph table.
func countRows(ctx context.Context, tx pgx.Tx, table string) (int, error) {
	if !allowedTables[table] {
		return 0, fmt.Errorf("disallowed table name: %s", table)
	}

	var count int
	sanitized := pgx.Identifier{table}.Sanitize()
	err := tx.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s", sanitized)).Scan(&count)
	return count, err
}

// spotCheck compares up to 5 random vertices between SQLite and PostgreSQL.
func spotCheck(ctx context.Context, tx pgx.Tx, vertices []vertex) []string {
	if len(vertices) == 0 {
		return nil
	}
	count := min(5, len(vertices))
	var checks []string

	for _, idx := range rand.Perm(len(vertices))[:count] {
		v := vertices[idx]
		var pgClass, pgName string
		err := tx.QueryRow(ctx,
			`SELECT class, name FROM kb_vertices WHERE id = $1`, v.ID,
		).Scan(&pgClass, &pgName)
		if err != nil {
			checks = append(checks, fmt.Sprintf("FAIL %s: not found in postgres: %v", v.ID, err))
			continue
		}
		if pgClass == v.Class && pgName == v.Name {
			checks = append(checks, fmt.Sprintf("ok   %s: class=%s, name=%s", v.ID, pgClass, pgName))
		} else {
			checks = append(checks, fmt.Sprintf("FAIL %s: mismatch pg(%s/%s) vs sqlite(%s/%s)",
				v.ID, pgClass, pgName, v.Class, v.Name))
		}
	}
	return checks
}

// printReport writes the final import summary.
func printReport(w io.Writer, r *report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== kbequiv Import Report ===")
	if r.DryRun {
		fmt.Fprintln(w, "MODE: DRY RUN (no changes made)")
	}
	fmt.Fprintf(w, "Source: %s\n", r.Source)
	if r.Target != "" {
		fmt.Fprintf(w, "Target: %s\n", r.Target)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Vertices: %d read -> %d written -> %d in table %s\n",
		r.VerticesRead, r.VerticesInserted, r.VerticesVerified, status(r.DryRun, r.VerticesInserted, r.VerticesVerified))
	fmt.Fprintf(w, "Edges:    %d read -> %d written (%d skipped) -> %d in table %s\n",
		r.EdgesRead, r.EdgesInserted, r.EdgesSkipped, r.EdgesVerified, status(r.DryRun, r.EdgesInserted, r.EdgesVerified))

	if len(r.SkippedEdges) > 0 {
		fmt.Fprintln(w, "\nSkipped edges:")
		for _, s := range r.SkippedEdges {
			fmt.Fprintf(w, "  - %s -[%s]-> %s (reason: %s)\n", s.Source, s.Class, s.Target, s.Reason)
		}
	}

	if len(r.SpotChecks) > 0 {
		fmt.Fprintln(w, "\nSpot checks:")
		for _, c := range r.SpotChecks {
			fmt.Fprintf(w, "  %s\n", c)
		}
	}

	fmt.Fprintf(w, "\nDuration: %.1fs\n", r.Duration.Seconds())
	if r.Err != nil {
		fmt.Fprintf(w, "Status: FAILED: %v\n", r.Err)
	} else {
		fmt.Fprintln(w, "Status: SUCCESS")
	}
}

// status marks whether the table holds at least what this run wrote. Tables
// may hold more when the import merges into an existing graph.
func status(dryRun bool, written, inTable int) string {
	switch {
	case dryRun:
		return "(dry run)"
	case inTable >= written:
		return "[ok]"
	default:
		return "[MISMATCH]"
	}
}
