package resolver_test

import (
	"context"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/persistorai/kbequiv/internal/memgraph"
	"github.com/persistorai/kbequiv/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return log
}

// mockOracle records calls and delegates to the configured functions.
type mockOracle struct {
	mu    sync.Mutex
	calls []string

	findVertices func(ctx context.Context, class, name string) ([]models.Vertex, error)
	findEdges    func(ctx context.Context, ids, classes []string, o models.Orientation) ([]models.Edge, error)
}

func (m *mockOracle) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockOracle) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}

	return n
}

func (m *mockOracle) FindVerticesByExactName(ctx context.Context, class, name string) ([]models.Vertex, error) {
	m.record("FindVerticesByExactName")
	return m.findVertices(ctx, class, name)
}

func (m *mockOracle) FindEdges(ctx context.Context, ids, classes []string, o models.Orientation) ([]models.Edge, error) {
	m.record("FindEdges")
	return m.findEdges(ctx, ids, classes, o)
}

// graphSpec is a compact fixture: vertices as id→name (class Disease) and edges as
// [source, target, class] triples.
type graphSpec struct {
	vertices map[string]string
	order    []string
	edges    [][3]string
}

func buildGraph(t *testing.T, spec graphSpec) *memgraph.Graph {
	t.Helper()

	g := memgraph.New()
	for _, id := range spec.order {
		require.NoError(t, g.AddVertex(models.Vertex{ID: id, Class: "Disease", Name: spec.vertices[id]}))
	}

	for _, e := range spec.edges {
		require.NoError(t, g.AddEdge(e[0], e[1], e[2]))
	}

	return g
}

// breastGraph is the A/B/C/D scenario graph.
func breastGraph(t *testing.T) *memgraph.Graph {
	t.Helper()

	return buildGraph(t, graphSpec{
		vertices: map[string]string{
			"A": "breast adenocarcinoma",
			"B": "breast carcinoma",
			"C": "carcinoma",
			"D": "thyroid carcinoma",
		},
		order: []string{"A", "B", "C", "D"},
		edges: [][3]string{
			{"A", "B", "AliasOf"},
			{"B", "C", "SubClassOf"},
		},
	})
}

func ids(vertices []models.Vertex) []string {
	out := make([]string, len(vertices))
	for i, v := range vertices {
		out[i] = v.ID
	}

	return out
}
