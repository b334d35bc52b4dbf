package store

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/kbequiv/internal/dbpool"
	"github.com/persistorai/kbequiv/internal/models"
)

// edgePageSize is the LIMIT of each edge page.
const edgePageSize = 1000

const edgeSelect = `SELECT ` + edgeColumns + `
	FROM kb_edges e
	JOIN kb_vertices s ON s.id = e.source
	JOIN kb_vertices t ON t.id = e.target
	WHERE e.class = ANY($2) AND `

const edgePage = ` ORDER BY 1, 2, 3 LIMIT $3 OFFSET $4`

var edgeQueries = map[models.Orientation]string{
	models.OrientationOut:    edgeSelect + `e.source = ANY($1)` + edgePage,
	models.OrientationIn:     edgeSelect + `e.target = ANY($1)` + edgePage,
	models.OrientationEither: `(` + edgeSelect + `e.source = ANY($1)) UNION (` + edgeSelect + `e.target = ANY($1))` + edgePage,
}

// GraphStore answers oracle queries from the knowledge-graph tables.
type GraphStore struct {
	Base
}

// NewGraphStore creates a new GraphStore.
func NewGraphStore(pool *dbpool.Pool, log *logrus.Logger) *GraphStore {
	return &GraphStore{Base: Base{Pool: pool, Log: log}}
}

// FindVerticesByExactName returns vertices whose name equals name ignoring case, restricted to
// class unless class is empty.
func (s *GraphStore) FindVerticesByExactName(ctx context.Context, class, name string) ([]models.Vertex, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding vertices: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // read-only transaction.

	rows, err := tx.Query(ctx,
		`SELECT `+vertexColumns+` FROM kb_vertices
		WHERE lower(name) = lower($1) AND ($2::text = '' OR class = $2)
		ORDER BY id`, name, class)
	if err != nil {
		return nil, fmt.Errorf("querying vertices by name: %w", err)
	}
	defer rows.Close()

	return collectVertices(rows)
}

// FindEdges returns the edges of edgeClasses incident to vertexIDs on the side selected by
// orientation, paging through the result inside one read-only transaction. An edge matching
// on both sides is returned once.
func (s *GraphStore) FindEdges(ctx context.Context, vertexIDs, edgeClasses []string, orientation models.Orientation) ([]models.Edge, error) {
	if len(vertexIDs) == 0 || len(edgeClasses) == 0 {
		return nil, nil
	}

	query, ok := edgeQueries[orientation]
	if !ok {
		return nil, fmt.Errorf("unsupported orientation %d", orientation)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding edges: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // read-only transaction.

	var edges []models.Edge

	for offset := 0; ; offset += edgePageSize {
		rows, err := tx.Query(ctx, query, vertexIDs, edgeClasses, edgePageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("querying %s edges at offset %d: %w", orientation, offset, err)
		}

		page, err := collectEdges(rows)
		rows.Close()

		if err != nil {
			return nil, err
		}

		edges = append(edges, page...)

		if len(page) < edgePageSize {
			break
		}
	}

	s.Log.WithFields(logrus.Fields{
		"ids":         len(vertexIDs),
		"orientation": orientation.String(),
		"edges":       len(edges),
	}).Debug("store.find_edges")

	return edges, nil
}

// Ping verifies database connectivity.
func (s *GraphStore) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return s.Pool.HealthCheck(ctx)
}

// Counts returns the number of vertices and edges stored.
func (s *GraphStore) Counts(ctx context.Context) (vertices, edges int64, err error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err = s.Pool.QueryRow(ctx,
		`SELECT (SELECT count(*) FROM kb_vertices), (SELECT count(*) FROM kb_edges)`).Scan(&vertices, &edges)
	if err != nil {
		return 0, 0, fmt.Errorf("counting graph: %w", err)
	}

	return vertices, edges, nil
}
