package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
)

// insertBatchSize is the number of rows queued per pgx batch.
const insertBatchSize = 500

// vertex is a knowledge-base record read from SQLite.
type vertex struct {
	ID          string
	Class       string
	Name        string
	DisplayName sql.NullString
	Attributes  sql.NullString
}

// edge is a classified relation read from SQLite.
type edge struct {
	Source string
	Target string
	Class  string
}

// readVertices reads every row of the vertices table.
func readVertices(ctx context.Context, db *sql.DB) ([]vertex, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, class, name, display_name, attributes FROM vertices ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vertices []vertex
	for rows.Next() {
		var v vertex
		if err := rows.Scan(&v.ID, &v.Class, &v.Name, &v.DisplayName, &v.Attributes); err != nil {
			return nil, fmt.Errorf("scan vertex: %w", err)
		}
		vertices = append(vertices, v)
	}
	return vertices, rows.Err()
}

// readEdges reads every row of the edges table.
func readEdges(ctx context.Context, db *sql.DB) ([]edge, error) {
	rows, err := db.QueryContext(ctx, `SELECT source, target, class FROM edges`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []edge
	for rows.Next() {
		var e edge
		if err := rows.Scan(&e.Source, &e.Target, &e.Class); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// vertexSet creates a set of vertex IDs for fast lookup.
func vertexSet(vertices []vertex) map[string]bool {
	m := make(map[string]bool, len(vertices))
	for i := range vertices {
		m[vertices[i].ID] = true
	}
	return m
}

// filterEdges drops edges that would violate the kb_edges constraints.
func filterEdges(edges []edge, ids map[string]bool) ([]edge, []skippedEdge) {
	kept := make([]edge, 0, len(edges))
	var skipped []skippedEdge

	for _, e := range edges {
		reason := ""
		switch {
		case e.Class == "":
			reason = "missing class"
		case !ids[e.Source]:
			reason = "source vertex not found"
		case !ids[e.Target]:
			reason = "target vertex not found"
		}

		if reason != "" {
			skipped = append(skipped, skippedEdge{e.Source, e.Target, e.Class, reason})
			continue
		}
		kept = append(kept, e)
	}
	return kept, skipped
}

// insertVertices upserts vertices in batches and returns the number written.
func insertVertices(ctx context.Context, tx pgx.Tx, vertices []vertex) (int, error) {
	inserted := 0
	for i := 0; i < len(vertices); i += insertBatchSize {
		end := min(i+insertBatchSize, len(vertices))

		batch := &pgx.Batch{}
		for _, v := range vertices[i:end] {
			batch.Queue(
				`INSERT INTO kb_vertices (id, class, name, display_name, attributes)
				 VALUES ($1, $2, $3, $4, $5)
				 ON CONFLICT (id) DO UPDATE SET
				     class = EXCLUDED.class, name = EXCLUDED.name,
				     display_name = EXCLUDED.display_name, attributes = EXCLUDED.attributes`,
				v.ID, v.Class, v.Name, v.DisplayName.String, normalizeJSON(v.ID, v.Attributes),
			)
		}

		n, err := sendBatch(ctx, tx, batch)
		if err != nil {
			return inserted, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		inserted += n
	}
	return inserted, nil
}

// insertEdges inserts edges in batches, ignoring duplicates, and returns the number written.
func insertEdges(ctx context.Context, tx pgx.Tx, edges []edge) (int, error) {
	inserted := 0
	for i := 0; i < len(edges); i += insertBatchSize {
		end := min(i+insertBatchSize, len(edges))

		batch := &pgx.Batch{}
		for _, e := range edges[i:end] {
			batch.Queue(
				`INSERT INTO kb_edges (source, target, class) VALUES ($1, $2, $3)
				 ON CONFLICT DO NOTHING`,
				e.Source, e.Target, e.Class,
			)
		}

		n, err := sendBatch(ctx, tx, batch)
		if err != nil {
			return inserted, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		inserted += n
	}
	return inserted, nil
}

// sendBatch executes every queued statement and sums the affected rows.
func sendBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) (int, error) {
	results := tx.SendBatch(ctx, batch)

	affected := 0
	for range batch.Len() {
		tag, err := results.Exec()
		if err != nil {
			results.Close() //nolint:errcheck // first error wins.
			return affected, err
		}
		affected += int(tag.RowsAffected())
	}
	return affected, results.Close()
}

// normalizeJSON ensures an attributes value is a JSON object, defaulting to "{}".
func normalizeJSON(id string, s sql.NullString) string {
	if !s.Valid || s.String == "" {
		return "{}"
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal([]byte(s.String), &obj) != nil {
		slog.Warn("attributes are not a JSON object, using empty object", "id", id)
		return "{}"
	}
	return s.String
}
