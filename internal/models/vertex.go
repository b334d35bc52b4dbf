// Package models defines data types for ontology equivalence resolution.
package models

// Vertex is a record returned by the knowledge graph oracle.
// Vertices are treated as immutable once returned.
type Vertex struct {
	ID          string         `json:"id"`
	Class       string         `json:"class"`
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// Orientation selects which edge endpoints a FindEdges call matches against the given vertex ids.
type Orientation int

const (
	// OrientationEither matches edges whose source or target is in the id set.
	OrientationEither Orientation = iota
	// OrientationOut matches edges whose source is in the id set.
	OrientationOut
	// OrientationIn matches edges whose target is in the id set.
	OrientationIn
)

// String returns the lowercase orientation name.
func (o Orientation) String() string {
	switch o {
	case OrientationOut:
		return "out"
	case OrientationIn:
		return "in"
	default:
		return "either"
	}
}
