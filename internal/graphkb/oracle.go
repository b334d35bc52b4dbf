package graphkb

import (
	"context"
	"fmt"
	"strings"

	"github.com/persistorai/kbequiv/internal/models"
)

// anyVertexClass is the GraphKB base class of every vertex.
const anyVertexClass = "V"

// Record properties mapped onto Vertex fields rather than attributes.
var reservedProperties = map[string]struct{}{
	"@rid":        {},
	"@class":      {},
	"name":        {},
	"displayName": {},
	"out":         {},
	"in":          {},
}

// FindVerticesByExactName queries vertices of class named name and keeps the records whose
// name equals name ignoring case. An empty class searches every vertex class.
func (c *Client) FindVerticesByExactName(ctx context.Context, class, name string) ([]models.Vertex, error) {
	target := class
	if target == "" {
		target = anyVertexClass
	}

	records, err := c.Query(ctx, map[string]any{
		"target":  target,
		"filters": map[string]any{"name": name},
	})
	if err != nil {
		return nil, fmt.Errorf("finding %s vertices named %q: %w", target, name, err)
	}

	var out []models.Vertex

	for _, r := range records {
		v, ok := toVertex(r)
		if !ok || !strings.EqualFold(v.Name, name) {
			continue
		}

		out = append(out, v)
	}

	return out, nil
}

// FindEdges issues one query per edge class for edges incident to vertexIDs on the side
// selected by orientation. Endpoints are expanded one level so both vertices come back with
// their properties.
func (c *Client) FindEdges(ctx context.Context, vertexIDs, edgeClasses []string, orientation models.Orientation) ([]models.Edge, error) {
	if len(vertexIDs) == 0 || len(edgeClasses) == 0 {
		return nil, nil
	}

	filters := edgeFilters(vertexIDs, orientation)

	var out []models.Edge

	for _, class := range edgeClasses {
		records, err := c.Query(ctx, map[string]any{
			"target":    class,
			"filters":   filters,
			"neighbors": 1,
		})
		if err != nil {
			return nil, fmt.Errorf("finding %s edges: %w", class, err)
		}

		for _, r := range records {
			if e, ok := toEdge(r, class); ok {
				out = append(out, e)
			}
		}
	}

	return out, nil
}

// Ping checks that the API accepts an authenticated query.
func (c *Client) Ping(ctx context.Context) error {
	var resp queryResponse

	body := map[string]any{"target": "Source", "limit": 1, "skip": 0}
	if err := c.post(ctx, "query", body, &resp, true); err != nil {
		return fmt.Errorf("graphkb ping: %w", err)
	}

	return nil
}

func edgeFilters(ids []string, orientation models.Orientation) map[string]any {
	out := map[string]any{"out": ids, "operator": "IN"}
	in := map[string]any{"in": ids, "operator": "IN"}

	switch orientation {
	case models.OrientationOut:
		return out
	case models.OrientationIn:
		return in
	default:
		return map[string]any{"OR": []any{out, in}}
	}
}

func toVertex(r Record) (models.Vertex, bool) {
	id, _ := r["@rid"].(string)
	if id == "" {
		return models.Vertex{}, false
	}

	v := models.Vertex{ID: id}
	v.Class, _ = r["@class"].(string)
	v.Name, _ = r["name"].(string)
	v.DisplayName, _ = r["displayName"].(string)

	for k, val := range r {
		if _, skip := reservedProperties[k]; skip {
			continue
		}

		if v.Attributes == nil {
			v.Attributes = make(map[string]any)
		}

		v.Attributes[k] = val
	}

	return v, true
}

// toEdge maps an edge record whose out/in properties are either record ids or expanded
// vertex records.
func toEdge(r Record, class string) (models.Edge, bool) {
	e := models.Edge{Class: class}
	if c, ok := r["@class"].(string); ok && c != "" {
		e.Class = c
	}

	e.Source, e.SourceVertex = endpoint(r["out"])
	e.Target, e.TargetVertex = endpoint(r["in"])

	return e, e.Source != "" && e.Target != ""
}

func endpoint(raw any) (string, *models.Vertex) {
	switch val := raw.(type) {
	case string:
		return val, nil
	case map[string]any:
		v, ok := toVertex(Record(val))
		if !ok {
			return "", nil
		}

		return v.ID, &v
	default:
		return "", nil
	}
}
