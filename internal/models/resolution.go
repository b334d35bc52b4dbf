package models

import (
	"encoding/json"
	"fmt"
)

// Stage identifies the resolution stage that first discovered a vertex.
// Stages are ordered; a lower value means an earlier stage.
type Stage int

const (
	StageNameMatch Stage = iota + 1
	StageAlias
	StageDirectional
	StageFinalAlias
)

// Stages lists every stage in execution order.
var Stages = []Stage{StageNameMatch, StageAlias, StageDirectional, StageFinalAlias}

var stageNames = map[Stage]string{
	StageNameMatch:   "NAME_MATCH",
	StageAlias:       "ALIAS",
	StageDirectional: "DIRECTIONAL",
	StageFinalAlias:  "FINAL_ALIAS",
}

// String returns the canonical stage tag.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}

	return fmt.Sprintf("Stage(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	name, ok := stageNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown stage %d", int(s))
	}

	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(text []byte) error {
	for stage, name := range stageNames {
		if name == string(text) {
			*s = stage
			return nil
		}
	}

	return fmt.Errorf("unknown stage %q", string(text))
}

// StagedVertex pairs a vertex with the earliest stage that discovered it.
type StagedVertex struct {
	Vertex Vertex `json:"vertex"`
	Stage  Stage  `json:"stage"`
}

// ResolutionResult is the deduplicated equivalence set produced by one resolution call.
// Vertices iterate in order of first discovery.
type ResolutionResult struct {
	Query       string         `json:"query"`
	TargetClass string         `json:"target_class,omitempty"`
	Vertices    []StagedVertex `json:"vertices"`
}

// Len returns the number of vertices in the result.
func (r *ResolutionResult) Len() int {
	return len(r.Vertices)
}

// IsEmpty reports whether the name match found nothing.
func (r *ResolutionResult) IsEmpty() bool {
	return len(r.Vertices) == 0
}

// IDs returns the vertex ids in discovery order.
func (r *ResolutionResult) IDs() []string {
	ids := make([]string, len(r.Vertices))
	for i, sv := range r.Vertices {
		ids[i] = sv.Vertex.ID
	}

	return ids
}

// StageOf returns the provenance tag for id, or false if id is not in the result.
func (r *ResolutionResult) StageOf(id string) (Stage, bool) {
	for _, sv := range r.Vertices {
		if sv.Vertex.ID == id {
			return sv.Stage, true
		}
	}

	return 0, false
}

// Through returns every vertex discovered at or before stage, i.e. the cumulative vertex set
// after that stage completed.
func (r *ResolutionResult) Through(stage Stage) []Vertex {
	out := make([]Vertex, 0, len(r.Vertices))
	for _, sv := range r.Vertices {
		if sv.Stage <= stage {
			out = append(out, sv.Vertex)
		}
	}

	return out
}

// Counts returns the number of vertices first discovered in each stage.
func (r *ResolutionResult) Counts() map[Stage]int {
	counts := make(map[Stage]int, len(Stages))
	for _, s := range Stages {
		counts[s] = 0
	}

	for _, sv := range r.Vertices {
		counts[sv.Stage]++
	}

	return counts
}

// MarshalJSON adds per-stage counts to the serialized result.
func (r *ResolutionResult) MarshalJSON() ([]byte, error) {
	type plain ResolutionResult

	counts := make(map[string]int, len(Stages))
	for stage, n := range r.Counts() {
		counts[stage.String()] = n
	}

	vertices := r.Vertices
	if vertices == nil {
		vertices = []StagedVertex{}
	}

	p := plain(*r)
	p.Vertices = vertices

	return json.Marshal(struct {
		plain
		Counts map[string]int `json:"counts"`
	}{plain: p, Counts: counts})
}
