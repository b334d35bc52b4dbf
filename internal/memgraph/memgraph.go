// Package memgraph provides an in-memory knowledge graph that answers the resolver's oracle
// queries. It backs the "file" oracle backend and serves as a deterministic test fixture.
package memgraph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/persistorai/kbequiv/internal/models"
)

// Sentinel errors for graph construction.
var (
	ErrMissingID       = errors.New("vertex id is required")
	ErrDuplicateVertex = errors.New("duplicate vertex id")
	ErrUnknownVertex   = errors.New("unknown vertex")
)

type edgeRecord struct {
	source string
	target string
	class  string
}

// Graph is an RWMutex-guarded in-memory vertex/edge store. Safe for concurrent use.
type Graph struct {
	mu       sync.RWMutex
	vertices map[string]models.Vertex
	order    []string
	edges    []edgeRecord
	out      map[string][]int
	in       map[string][]int

	findVertexCalls atomic.Int64
	findEdgeCalls   atomic.Int64
}

// CallCounts reports how many oracle queries a Graph has answered.
type CallCounts struct {
	FindVertices int64
	FindEdges    int64
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		vertices: make(map[string]models.Vertex),
		out:      make(map[string][]int),
		in:       make(map[string][]int),
	}
}

// AddVertex inserts a vertex. Ids must be unique and non-empty.
func (g *Graph) AddVertex(v models.Vertex) error {
	if v.ID == "" {
		return ErrMissingID
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.vertices[v.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateVertex, v.ID)
	}

	g.vertices[v.ID] = v
	g.order = append(g.order, v.ID)

	return nil
}

// AddEdge inserts a source→target edge of class. Both endpoints must already exist.
func (g *Graph) AddEdge(source, target, class string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, id := range []string{source, target} {
		if _, ok := g.vertices[id]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownVertex, id)
		}
	}

	idx := len(g.edges)
	g.edges = append(g.edges, edgeRecord{source: source, target: target, class: class})
	g.out[source] = append(g.out[source], idx)
	g.in[target] = append(g.in[target], idx)

	return nil
}

// FindVerticesByExactName returns vertices of class whose name matches name ignoring case.
// An empty class matches every class. Results follow insertion order.
func (g *Graph) FindVerticesByExactName(ctx context.Context, class, name string) ([]models.Vertex, error) {
	g.findVertexCalls.Add(1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []models.Vertex

	for _, id := range g.order {
		v := g.vertices[id]
		if class != "" && v.Class != class {
			continue
		}

		if strings.EqualFold(v.Name, name) {
			out = append(out, v)
		}
	}

	return out, nil
}

// FindEdges returns the edges of the given classes incident to vertexIDs on the side selected
// by orientation. Each edge appears at most once, annotated with both endpoint vertices.
func (g *Graph) FindEdges(ctx context.Context, vertexIDs, edgeClasses []string, orientation models.Orientation) ([]models.Edge, error) {
	g.findEdgeCalls.Add(1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(edgeClasses))
	for _, c := range edgeClasses {
		wanted[c] = struct{}{}
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[int]struct{})
	var out []models.Edge

	collect := func(indexes []int) {
		for _, idx := range indexes {
			if _, dup := seen[idx]; dup {
				continue
			}

			rec := g.edges[idx]
			if _, ok := wanted[rec.class]; !ok {
				continue
			}

			seen[idx] = struct{}{}
			out = append(out, g.annotate(rec))
		}
	}

	for _, id := range vertexIDs {
		if orientation != models.OrientationIn {
			collect(g.out[id])
		}

		if orientation != models.OrientationOut {
			collect(g.in[id])
		}
	}

	return out, nil
}

// Ping always succeeds; the graph is in-process.
func (g *Graph) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Calls returns the number of oracle queries answered so far.
func (g *Graph) Calls() CallCounts {
	return CallCounts{
		FindVertices: g.findVertexCalls.Load(),
		FindEdges:    g.findEdgeCalls.Load(),
	}
}

// Stats returns the vertex and edge counts.
func (g *Graph) Stats() (vertices, edges int) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.vertices), len(g.edges)
}

func (g *Graph) annotate(rec edgeRecord) models.Edge {
	src := g.vertices[rec.source]
	dst := g.vertices[rec.target]

	return models.Edge{
		Source:       rec.source,
		Target:       rec.target,
		Class:        rec.class,
		SourceVertex: &src,
		TargetVertex: &dst,
	}
}
