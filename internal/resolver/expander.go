package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/persistorai/kbequiv/internal/domain"
	"github.com/persistorai/kbequiv/internal/models"
)

// Expansion batching limits.
const (
	defaultBatchSize   = 100 // vertex ids per FindEdges call
	defaultConcurrency = 4   // concurrent FindEdges calls per hop
)

// Direction is the traversal policy applied to edges of the expanded category.
type Direction int

const (
	// Bidirectional treats edges as unordered; used for equivalency edges.
	Bidirectional Direction = iota
	// Forward follows edges from source to target only.
	Forward
	// Reverse follows edges from target to source only.
	Reverse
)

// String returns the lowercase direction name.
func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	default:
		return "bidirectional"
	}
}

func (d Direction) orientation() models.Orientation {
	switch d {
	case Forward:
		return models.OrientationOut
	case Reverse:
		return models.OrientationIn
	default:
		return models.OrientationEither
	}
}

// ExpandRequest describes one bounded breadth-first expansion.
type ExpandRequest struct {
	Seeds          []string
	Category       Category
	Classification Classification
	Direction      Direction
	MaxDepth       int

	// Known reports vertices already visited by earlier stages. They are never returned or
	// re-expanded. Known is only read, so concurrent expansions may share it.
	Known func(id string) bool
}

// Expander performs bounded breadth-first expansion against an Oracle, one hop per batch of
// FindEdges calls.
type Expander struct {
	oracle      domain.Oracle
	log         *logrus.Logger
	batchSize   int
	concurrency int
}

// NewExpander creates an Expander. Non-positive batch size or concurrency use the defaults.
func NewExpander(oracle domain.Oracle, log *logrus.Logger, batchSize, concurrency int) *Expander {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &Expander{oracle: oracle, log: log, batchSize: batchSize, concurrency: concurrency}
}

// Expand returns the vertices newly discovered within req.MaxDepth hops of req.Seeds, in
// discovery order. Each vertex is discovered at most once, so cycles terminate. A depth of 0
// performs no oracle calls. On failure nothing accumulated by this call is returned.
func (x *Expander) Expand(ctx context.Context, req ExpandRequest) ([]models.Vertex, error) {
	if len(req.Seeds) == 0 {
		return nil, models.ErrEmptySeedSet
	}

	classes := req.Classification.Classes(req.Category)
	if req.MaxDepth <= 0 || len(classes) == 0 {
		return nil, nil
	}

	it := newHopIterator(x, req, classes)

	for !it.done() {
		if err := it.next(ctx); err != nil {
			return nil, err
		}
	}

	return it.discovered, nil
}

// hopIterator advances one hop per call to next. Only the current frontier's ids are held for
// the next query; the graph itself is never materialized.
type hopIterator struct {
	x          *Expander
	req        ExpandRequest
	classes    []string
	seen       map[string]struct{}
	frontier   []string
	discovered []models.Vertex
	hop        int
}

func newHopIterator(x *Expander, req ExpandRequest, classes []string) *hopIterator {
	it := &hopIterator{
		x:        x,
		req:      req,
		classes:  classes,
		seen:     make(map[string]struct{}, len(req.Seeds)),
		frontier: make([]string, 0, len(req.Seeds)),
	}

	for _, id := range req.Seeds {
		if _, dup := it.seen[id]; dup {
			continue
		}

		it.seen[id] = struct{}{}
		it.frontier = append(it.frontier, id)
	}

	return it
}

func (it *hopIterator) done() bool {
	return it.hop >= it.req.MaxDepth || len(it.frontier) == 0
}

func (it *hopIterator) isKnown(id string) bool {
	if _, ok := it.seen[id]; ok {
		return true
	}

	return it.req.Known != nil && it.req.Known(id)
}

// next queries edges incident to the frontier and replaces it with the unseen neighbors.
func (it *hopIterator) next(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return classifyOracleError(ctx, err)
	}

	batches := chunk(it.frontier, it.x.batchSize)
	results := make([][]models.Edge, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(it.x.concurrency)

	for i, batch := range batches {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			edges, err := it.x.oracle.FindEdges(gctx, batch, it.classes, it.req.Direction.orientation())
			if err != nil {
				return err
			}

			results[i] = edges

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return classifyOracleError(ctx, err)
	}

	inFrontier := make(map[string]struct{}, len(it.frontier))
	for _, id := range it.frontier {
		inFrontier[id] = struct{}{}
	}

	next := make([]string, 0, len(it.frontier))

	visit := func(edge *models.Edge, from, to string) {
		if _, ok := inFrontier[from]; !ok || it.isKnown(to) {
			return
		}

		it.seen[to] = struct{}{}
		next = append(next, to)
		it.discovered = append(it.discovered, edge.Endpoint(to))
	}

	for _, edges := range results {
		for i := range edges {
			edge := &edges[i]
			if it.req.Classification.Classify(edge.Class) != it.req.Category {
				continue
			}

			switch it.req.Direction {
			case Forward:
				visit(edge, edge.Source, edge.Target)
			case Reverse:
				visit(edge, edge.Target, edge.Source)
			default:
				visit(edge, edge.Source, edge.Target)
				visit(edge, edge.Target, edge.Source)
			}
		}
	}

	it.x.log.WithFields(logrus.Fields{
		"category":   it.req.Category.String(),
		"direction":  it.req.Direction.String(),
		"hop":        it.hop + 1,
		"frontier":   len(it.frontier),
		"batches":    len(batches),
		"discovered": len(next),
	}).Debug("resolver.hop")

	it.frontier = next
	it.hop++

	return nil
}

// chunk splits ids into consecutive batches of at most size ids.
func chunk(ids []string, size int) [][]string {
	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batches = append(batches, ids[start:end])
	}

	return batches
}

// classifyOracleError maps an oracle or context error onto the resolution error taxonomy.
// Cancellation by the caller is ErrCancelled; anything else, including an expired deadline,
// is ErrQueryFailure with the cause preserved.
func classifyOracleError(ctx context.Context, err error) error {
	if errors.Is(err, models.ErrCancelled) || errors.Is(err, models.ErrQueryFailure) {
		return err
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%w: %w", models.ErrCancelled, context.Cause(ctx))
	}

	return fmt.Errorf("%w: %w", models.ErrQueryFailure, err)
}
