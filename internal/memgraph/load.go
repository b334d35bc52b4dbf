package memgraph

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/persistorai/kbequiv/internal/models"
)

// document is the YAML layout of a graph file.
type document struct {
	Vertices []vertexDoc `yaml:"vertices"`
	Edges    []edgeDoc   `yaml:"edges"`
}

type vertexDoc struct {
	ID          string         `yaml:"id"`
	Class       string         `yaml:"class"`
	Name        string         `yaml:"name"`
	DisplayName string         `yaml:"display_name"`
	Attributes  map[string]any `yaml:"attributes"`
}

type edgeDoc struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
	Class  string `yaml:"class"`
}

// Load decodes a YAML graph document:
//
//	vertices:
//	  - {id: "d1", class: Disease, name: breast adenocarcinoma}
//	edges:
//	  - {source: "d1", target: "d2", class: AliasOf}
func Load(r io.Reader) (*Graph, error) {
	var doc document

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding graph document: %w", err)
	}

	g := New()

	for i, v := range doc.Vertices {
		err := g.AddVertex(models.Vertex{
			ID:          v.ID,
			Class:       v.Class,
			Name:        v.Name,
			DisplayName: v.DisplayName,
			Attributes:  v.Attributes,
		})
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
	}

	for i, e := range doc.Edges {
		if e.Class == "" {
			return nil, fmt.Errorf("edge %d: class is required", i)
		}

		if err := g.AddEdge(e.Source, e.Target, e.Class); err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
	}

	return g, nil
}

// LoadFile reads a YAML graph document from path.
func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration.
	if err != nil {
		return nil, fmt.Errorf("opening graph file: %w", err)
	}
	defer f.Close()

	return Load(f)
}
