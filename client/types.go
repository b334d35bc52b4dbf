package client

// Resolution stages, in execution order.
const (
	StageNameMatch   = "NAME_MATCH"
	StageAlias       = "ALIAS"
	StageDirectional = "DIRECTIONAL"
	StageFinalAlias  = "FINAL_ALIAS"
)

// Stages lists every stage in execution order.
var Stages = []string{StageNameMatch, StageAlias, StageDirectional, StageFinalAlias}

// Vertex is a knowledge-base record.
type Vertex struct {
	ID          string         `json:"id"`
	Class       string         `json:"class"`
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// StagedVertex pairs a vertex with the stage that first discovered it.
type StagedVertex struct {
	Vertex Vertex `json:"vertex"`
	Stage  string `json:"stage"`
}

// Result is an equivalence set returned by the resolve endpoints.
type Result struct {
	Query       string         `json:"query"`
	TargetClass string         `json:"target_class,omitempty"`
	Vertices    []StagedVertex `json:"vertices"`
	Counts      map[string]int `json:"counts"`
}

// IDs returns the vertex ids in discovery order.
func (r *Result) IDs() []string {
	ids := make([]string, len(r.Vertices))
	for i, sv := range r.Vertices {
		ids[i] = sv.Vertex.ID
	}
	return ids
}

// ByStage returns the vertices first discovered in stage.
func (r *Result) ByStage(stage string) []Vertex {
	var out []Vertex
	for _, sv := range r.Vertices {
		if sv.Stage == stage {
			out = append(out, sv.Vertex)
		}
	}
	return out
}

// ResolveRequest is the body of POST /api/v1/resolve. Unset fields take the
// server defaults.
type ResolveRequest struct {
	Name             string   `json:"name"`
	TargetClass      string   `json:"target_class,omitempty"`
	EquivalencyEdges []string `json:"equivalency_edges,omitempty"`
	DirectionalEdges []string `json:"directional_edges,omitempty"`
	AliasDepth       *int     `json:"alias_depth,omitempty"`
	DirectionalDepth *int     `json:"directional_depth,omitempty"`
}

// Depth returns a pointer to d for use in ResolveRequest.
func Depth(d int) *int { return &d }

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Backend       string  `json:"backend"`
	SchemaVersion int     `json:"schema_version,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReadyResponse is the readiness payload.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
