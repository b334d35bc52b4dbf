package resolver

import "github.com/persistorai/kbequiv/internal/models"

// Builder accumulates stage results into a ResolutionResult, deduplicating by vertex id.
// The first stage to add a vertex wins its provenance tag. Builder is not safe for concurrent
// use; the engine is its single writer.
type Builder struct {
	query    string
	class    string
	index    map[string]int
	vertices []models.StagedVertex
}

// NewBuilder creates an empty Builder for one resolution call.
func NewBuilder(query, targetClass string) *Builder {
	return &Builder{
		query: query,
		class: targetClass,
		index: make(map[string]int),
	}
}

// Add records vertices discovered by stage and returns how many were new.
func (b *Builder) Add(stage models.Stage, vertices []models.Vertex) int {
	added := 0

	for _, v := range vertices {
		if v.ID == "" {
			continue
		}

		if _, ok := b.index[v.ID]; ok {
			continue
		}

		b.index[v.ID] = len(b.vertices)
		b.vertices = append(b.vertices, models.StagedVertex{Vertex: v, Stage: stage})
		added++
	}

	return added
}

// Contains reports whether id has been added by any stage.
func (b *Builder) Contains(id string) bool {
	_, ok := b.index[id]
	return ok
}

// Len returns the number of distinct vertices added so far.
func (b *Builder) Len() int {
	return len(b.vertices)
}

// IDs returns the ids added so far in discovery order.
func (b *Builder) IDs() []string {
	ids := make([]string, len(b.vertices))
	for i, sv := range b.vertices {
		ids[i] = sv.Vertex.ID
	}

	return ids
}

// Build returns the result. The returned value does not alias the builder's state.
func (b *Builder) Build() *models.ResolutionResult {
	vertices := make([]models.StagedVertex, len(b.vertices))
	copy(vertices, b.vertices)

	return &models.ResolutionResult{
		Query:       b.query,
		TargetClass: b.class,
		Vertices:    vertices,
	}
}
