// Package domain defines the canonical interfaces shared across layers (resolver core,
// oracle backends, service, REST). Consumers should depend on these interfaces rather
// than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/persistorai/kbequiv/internal/models"
)

// Oracle answers the two queries the resolver issues against the remote knowledge graph.
// Implementations own pagination and their retry policy; an error returned here is final.
type Oracle interface {
	// FindVerticesByExactName returns the vertices of class whose name equals name under
	// case-insensitive comparison. An empty class matches every class.
	FindVerticesByExactName(ctx context.Context, class, name string) ([]models.Vertex, error)

	// FindEdges returns every edge whose class is in edgeClasses and whose endpoint selected by
	// orientation is one of vertexIDs, annotated with endpoint vertex data.
	FindEdges(ctx context.Context, vertexIDs, edgeClasses []string, orientation models.Orientation) ([]models.Edge, error)
}

// Pinger is implemented by oracles that can report their reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Resolver computes equivalence sets for a query name.
type Resolver interface {
	Resolve(ctx context.Context, req models.ResolveRequest) (*models.ResolutionResult, error)
}

// EquivalenceService is the full resolution surface exposed to the REST layer and SDK.
type EquivalenceService interface {
	Resolver
	EquivalentFeatures(ctx context.Context, gene string) (*models.ResolutionResult, error)
	TermTree(ctx context.Context, term string) (*models.ResolutionResult, error)
	DiseaseTree(ctx context.Context, disease string) (*models.ResolutionResult, error)
}
