package models

import "strings"

// Request field limits.
const (
	maxNameLen      = 1000
	maxClassLen     = 100
	maxEdgeClasses  = 64
	maxEdgeClassLen = 100
)

// Depth bounds shared by the resolver and the request validators.
const (
	MaxDepthLimit           = 25
	DefaultAliasDepth       = 5
	DefaultDirectionalDepth = 5
)

// ResolveRequest is the payload of a resolution call. Nil depths and empty edge-class lists
// fall back to the server defaults.
type ResolveRequest struct {
	Name             string   `json:"name" form:"name" binding:"required"`
	TargetClass      string   `json:"target_class,omitempty" form:"class"`
	EquivalencyEdges []string `json:"equivalency_edges,omitempty" form:"equivalency_edges"`
	DirectionalEdges []string `json:"directional_edges,omitempty" form:"directional_edges"`
	AliasDepth       *int     `json:"alias_depth,omitempty" form:"alias_depth"`
	DirectionalDepth *int     `json:"directional_depth,omitempty" form:"directional_depth"`
}

// Validate checks field presence and limits. Edge-set overlap is checked by the resolver.
func (r *ResolveRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return ErrMissingName
	}

	if len(r.Name) > maxNameLen {
		return ErrFieldTooLong("name", maxNameLen)
	}

	if len(r.TargetClass) > maxClassLen {
		return ErrFieldTooLong("target_class", maxClassLen)
	}

	if err := validateEdgeClasses("equivalency_edges", r.EquivalencyEdges); err != nil {
		return err
	}

	if err := validateEdgeClasses("directional_edges", r.DirectionalEdges); err != nil {
		return err
	}

	if err := validateDepth(r.AliasDepth); err != nil {
		return err
	}

	return validateDepth(r.DirectionalDepth)
}

func validateEdgeClasses(field string, classes []string) error {
	if len(classes) > maxEdgeClasses {
		return &FieldError{Field: field, Reason: "too many edge classes"}
	}

	for _, c := range classes {
		if strings.TrimSpace(c) == "" {
			return &FieldError{Field: field, Reason: "edge class must not be empty"}
		}

		if len(c) > maxEdgeClassLen {
			return ErrFieldTooLong(field, maxEdgeClassLen)
		}
	}

	return nil
}

func validateDepth(d *int) error {
	if d == nil {
		return nil
	}

	if *d < 0 || *d > MaxDepthLimit {
		return ErrInvalidDepth
	}

	return nil
}
