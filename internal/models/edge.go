package models

// Edge is a stored relation from Source to Target. The oracle annotates each edge with the
// vertex data of both endpoints when it is available.
type Edge struct {
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	Class        string  `json:"class"`
	SourceVertex *Vertex `json:"source_vertex,omitempty"`
	TargetVertex *Vertex `json:"target_vertex,omitempty"`
}

// Endpoint returns the vertex at the given end of the edge, falling back to a bare vertex
// carrying only the id when the oracle did not annotate it.
func (e *Edge) Endpoint(id string) Vertex {
	switch {
	case e.SourceVertex != nil && e.SourceVertex.ID == id:
		return *e.SourceVertex
	case e.TargetVertex != nil && e.TargetVertex.ID == id:
		return *e.TargetVertex
	default:
		return Vertex{ID: id}
	}
}
