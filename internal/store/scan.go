package store

import (
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/kbequiv/internal/models"
)

// vertexColumns lists the columns selected for vertex queries.
const vertexColumns = `id, class, name, display_name, attributes`

// edgeColumns selects an edge with both endpoints joined as s and t.
const edgeColumns = `e.source, e.target, e.class,
	s.id, s.class, s.name, s.display_name, s.attributes,
	t.id, t.class, t.name, t.display_name, t.attributes`

// vertexDest returns scan destinations for one vertex plus the raw attributes buffer.
func vertexDest(v *models.Vertex, attrs *[]byte) []any {
	return []any{&v.ID, &v.Class, &v.Name, &v.DisplayName, attrs}
}

func decodeAttributes(v *models.Vertex, raw []byte) error {
	if len(raw) == 0 {
		return nil
	}

	var attrs map[string]any
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return fmt.Errorf("unmarshalling attributes of vertex %s: %w", v.ID, err)
	}

	if len(attrs) > 0 {
		v.Attributes = attrs
	}

	return nil
}

// scanVertex scans a single row into a models.Vertex.
func scanVertex(scan func(dest ...any) error) (*models.Vertex, error) {
	var v models.Vertex
	var attrs []byte

	if err := scan(vertexDest(&v, &attrs)...); err != nil {
		return nil, err
	}

	if err := decodeAttributes(&v, attrs); err != nil {
		return nil, err
	}

	return &v, nil
}

// scanEdge scans a single row into a models.Edge with both endpoint vertices.
func scanEdge(scan func(dest ...any) error) (*models.Edge, error) {
	var e models.Edge
	var src, dst models.Vertex
	var srcAttrs, dstAttrs []byte

	dest := []any{&e.Source, &e.Target, &e.Class}
	dest = append(dest, vertexDest(&src, &srcAttrs)...)
	dest = append(dest, vertexDest(&dst, &dstAttrs)...)

	if err := scan(dest...); err != nil {
		return nil, err
	}

	if err := decodeAttributes(&src, srcAttrs); err != nil {
		return nil, err
	}

	if err := decodeAttributes(&dst, dstAttrs); err != nil {
		return nil, err
	}

	e.SourceVertex = &src
	e.TargetVertex = &dst

	return &e, nil
}

// collectVertices scans all rows into a vertex slice.
func collectVertices(rows pgx.Rows) ([]models.Vertex, error) {
	vertices := make([]models.Vertex, 0, 4)

	for rows.Next() {
		v, err := scanVertex(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning vertex row: %w", err)
		}

		vertices = append(vertices, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vertex rows: %w", err)
	}

	return vertices, nil
}

// collectEdges scans all rows into an edge slice.
func collectEdges(rows pgx.Rows) ([]models.Edge, error) {
	edges := make([]models.Edge, 0, 16)

	for rows.Next() {
		e, err := scanEdge(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning edge row: %w", err)
		}

		edges = append(edges, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating edge rows: %w", err)
	}

	return edges, nil
}
