package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/persistorai/kbequiv/internal/models"
)

// Category is the traversal category of an edge class.
type Category int

const (
	// Unclassified edge classes are ignored during traversal.
	Unclassified Category = iota
	// Equivalency edges are followed in both orientations as synonym/alias relations.
	Equivalency
	// Directional edges are followed in one orientation at a time (parent/child relations).
	Directional
)

// String returns the lowercase category name.
func (c Category) String() string {
	switch c {
	case Equivalency:
		return "equivalency"
	case Directional:
		return "directional"
	default:
		return "unclassified"
	}
}

// Default edge classes.
var (
	DefaultEquivalencyEdges = []string{"GeneralizationOf", "AliasOf", "CrossReferenceOf", "DeprecatedBy", "Infers"}
	DefaultDirectionalEdges = []string{"SubClassOf", "ElementOf"}
)

// Classification maps edge class names to traversal categories. It is immutable after
// construction and carried by value through a single resolution call.
type Classification struct {
	categories  map[string]Category
	equivalency []string
	directional []string
}

// NewClassification builds a classification from the two edge-class sets. Blank names are
// dropped and duplicates collapsed. A class present in both sets is rejected with
// models.ErrMisconfiguredEdgeSets.
func NewClassification(equivalency, directional []string) (Classification, error) {
	c := Classification{categories: make(map[string]Category, len(equivalency)+len(directional))}

	for _, name := range equivalency {
		name = strings.TrimSpace(name)
		if name == "" || c.categories[name] == Equivalency {
			continue
		}

		c.categories[name] = Equivalency
		c.equivalency = append(c.equivalency, name)
	}

	var overlap []string

	for _, name := range directional {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		switch c.categories[name] {
		case Equivalency:
			overlap = append(overlap, name)
		case Directional:
		default:
			c.categories[name] = Directional
			c.directional = append(c.directional, name)
		}
	}

	if len(overlap) > 0 {
		sort.Strings(overlap)

		return Classification{}, fmt.Errorf("%w: %s classified as both equivalency and directional",
			models.ErrMisconfiguredEdgeSets, strings.Join(overlap, ", "))
	}

	return c, nil
}

// DefaultClassification returns the built-in classification.
func DefaultClassification() Classification {
	c, err := NewClassification(DefaultEquivalencyEdges, DefaultDirectionalEdges)
	if err != nil {
		panic(err) // the defaults are disjoint
	}

	return c
}

// Classify returns the category of an edge class, or Unclassified.
func (c Classification) Classify(edgeClass string) Category {
	return c.categories[edgeClass]
}

// Classes returns the edge class names of a category in configuration order.
func (c Classification) Classes(category Category) []string {
	var src []string

	switch category {
	case Equivalency:
		src = c.equivalency
	case Directional:
		src = c.directional
	}

	if len(src) == 0 {
		return nil
	}

	out := make([]string, len(src))
	copy(out, src)

	return out
}

// IsZero reports whether the classification has no edge classes at all.
func (c Classification) IsZero() bool {
	return len(c.categories) == 0
}
