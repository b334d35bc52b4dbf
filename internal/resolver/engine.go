// Package resolver implements ontology equivalence resolution: a staged traversal of a remote
// knowledge graph that collects every vertex equivalent to, or hierarchically related to, a
// query name.
//
// A resolution runs four stages in a fixed order:
//
//  1. NAME_MATCH: vertices of the target class whose name equals the query (case-insensitive).
//  2. ALIAS: bidirectional expansion over equivalency edges.
//  3. DIRECTIONAL: forward and reverse expansion over directional edges, run concurrently.
//  4. FINAL_ALIAS: a second equivalency expansion from everything found so far.
//
// Each stage seeds from the cumulative set of the previous stages, so the stage sets grow
// monotonically. The oracle is queried hop by hop; no graph is held in memory.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/persistorai/kbequiv/internal/domain"
	"github.com/persistorai/kbequiv/internal/models"
)

const tracerName = "github.com/persistorai/kbequiv/internal/resolver"

// Config is the per-call resolution configuration.
type Config struct {
	Classification   Classification
	AliasDepth       int
	DirectionalDepth int
}

// DefaultConfig returns the default classification and depth bounds.
func DefaultConfig() Config {
	return Config{
		Classification:   DefaultClassification(),
		AliasDepth:       models.DefaultAliasDepth,
		DirectionalDepth: models.DefaultDirectionalDepth,
	}
}

// Validate checks the depth bounds.
func (c Config) Validate() error {
	if c.AliasDepth < 0 || c.AliasDepth > models.MaxDepthLimit {
		return fmt.Errorf("alias depth %d: %w", c.AliasDepth, models.ErrInvalidDepth)
	}

	if c.DirectionalDepth < 0 || c.DirectionalDepth > models.MaxDepthLimit {
		return fmt.Errorf("directional depth %d: %w", c.DirectionalDepth, models.ErrInvalidDepth)
	}

	return nil
}

// Engine orchestrates the resolution stages. It holds no per-call state, so one Engine may
// serve concurrent resolutions with different configurations.
type Engine struct {
	oracle   domain.Oracle
	expander *Expander
	log      *logrus.Logger
	tracer   trace.Tracer

	batchSize   int
	concurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithBatchSize sets the number of vertex ids sent per FindEdges call.
func WithBatchSize(n int) Option {
	return func(e *Engine) { e.batchSize = n }
}

// WithConcurrency sets the number of concurrent FindEdges calls per hop.
func WithConcurrency(n int) Option {
	return func(e *Engine) { e.concurrency = n }
}

// WithTracer overrides the OpenTelemetry tracer used for stage spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// NewEngine creates an Engine querying oracle.
func NewEngine(oracle domain.Oracle, log *logrus.Logger, opts ...Option) *Engine {
	e := &Engine{
		oracle: oracle,
		log:    log,
		tracer: otel.Tracer(tracerName),
	}

	for _, o := range opts {
		o(e)
	}

	e.expander = NewExpander(oracle, log, e.batchSize, e.concurrency)

	return e
}

// ResolveEquivalence builds a configuration from explicit edge-class sets and depth bounds and
// resolves queryName. Overlapping edge sets fail with models.ErrMisconfiguredEdgeSets before
// the oracle is contacted.
func (e *Engine) ResolveEquivalence(
	ctx context.Context,
	queryName, targetClass string,
	equivalencyEdges, directionalEdges []string,
	aliasDepth, directionalDepth int,
) (*models.ResolutionResult, error) {
	cls, err := NewClassification(equivalencyEdges, directionalEdges)
	if err != nil {
		return nil, err
	}

	return e.Resolve(ctx, queryName, targetClass, Config{
		Classification:   cls,
		AliasDepth:       aliasDepth,
		DirectionalDepth: directionalDepth,
	})
}

// Resolve runs the four stages for queryName. An empty name match is not an error: it returns
// an empty result without any expansion queries. Any oracle failure aborts the whole call with
// models.ErrQueryFailure; caller cancellation yields models.ErrCancelled. A blank queryName
// fails with models.ErrMissingName before the oracle is contacted.
func (e *Engine) Resolve(ctx context.Context, queryName, targetClass string, cfg Config) (*models.ResolutionResult, error) {
	if strings.TrimSpace(queryName) == "" {
		return nil, models.ErrMissingName
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "resolver.resolve", trace.WithAttributes(
		attribute.String("query", queryName),
		attribute.String("target_class", targetClass),
		attribute.Int("alias_depth", cfg.AliasDepth),
		attribute.Int("directional_depth", cfg.DirectionalDepth),
	))
	defer span.End()

	b := NewBuilder(queryName, targetClass)

	res, err := e.run(ctx, b, queryName, targetClass, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	span.SetAttributes(attribute.Int("vertices", res.Len()))

	return res, nil
}

func (e *Engine) run(ctx context.Context, b *Builder, queryName, targetClass string, cfg Config) (*models.ResolutionResult, error) {
	matches, err := e.matchName(ctx, queryName, targetClass)
	if err != nil {
		return nil, err
	}

	e.record(b, queryName, models.StageNameMatch, matches)

	if b.Len() == 0 {
		return b.Build(), nil
	}

	aliases, err := e.expandStage(ctx, "resolver.alias_resolve", ExpandRequest{
		Seeds:          b.IDs(),
		Category:       Equivalency,
		Classification: cfg.Classification,
		Direction:      Bidirectional,
		MaxDepth:       cfg.AliasDepth,
		Known:          b.Contains,
	})
	if err != nil {
		return nil, err
	}

	e.record(b, queryName, models.StageAlias, aliases)

	related, err := e.expandDirectional(ctx, b, cfg)
	if err != nil {
		return nil, err
	}

	e.record(b, queryName, models.StageDirectional, related)

	finals, err := e.expandStage(ctx, "resolver.final_alias_resolve", ExpandRequest{
		Seeds:          b.IDs(),
		Category:       Equivalency,
		Classification: cfg.Classification,
		Direction:      Bidirectional,
		MaxDepth:       cfg.AliasDepth,
		Known:          b.Contains,
	})
	if err != nil {
		return nil, err
	}

	e.record(b, queryName, models.StageFinalAlias, finals)

	return b.Build(), nil
}

// matchName queries the oracle for exact name matches and drops any record that does not
// satisfy the case-insensitive comparison or the class filter.
func (e *Engine) matchName(ctx context.Context, queryName, targetClass string) ([]models.Vertex, error) {
	ctx, span := e.tracer.Start(ctx, "resolver.name_match")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, classifyOracleError(ctx, err)
	}

	found, err := e.oracle.FindVerticesByExactName(ctx, targetClass, queryName)
	if err != nil {
		err = classifyOracleError(ctx, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	matches := make([]models.Vertex, 0, len(found))
	for _, v := range found {
		if !strings.EqualFold(v.Name, queryName) {
			continue
		}

		if targetClass != "" && v.Class != targetClass {
			continue
		}

		matches = append(matches, v)
	}

	span.SetAttributes(attribute.Int("discovered", len(matches)))

	return matches, nil
}

// expandDirectional runs the forward and reverse expansions concurrently against the same
// read-only visited view and merges their results once both complete.
func (e *Engine) expandDirectional(ctx context.Context, b *Builder, cfg Config) ([]models.Vertex, error) {
	ctx, span := e.tracer.Start(ctx, "resolver.directional_expand")
	defer span.End()

	seeds := b.IDs()
	results := make([][]models.Vertex, 2)

	g, gctx := errgroup.WithContext(ctx)

	for i, dir := range []Direction{Reverse, Forward} {
		g.Go(func() error {
			found, err := e.expander.Expand(gctx, ExpandRequest{
				Seeds:          seeds,
				Category:       Directional,
				Classification: cfg.Classification,
				Direction:      dir,
				MaxDepth:       cfg.DirectionalDepth,
				Known:          b.Contains,
			})
			if err != nil {
				return err
			}

			results[i] = found

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		err = classifyOracleError(ctx, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	merged := make([]models.Vertex, 0, len(results[0])+len(results[1]))
	merged = append(merged, results[0]...)
	merged = append(merged, results[1]...)

	span.SetAttributes(attribute.Int("discovered", len(merged)))

	return merged, nil
}

func (e *Engine) expandStage(ctx context.Context, name string, req ExpandRequest) ([]models.Vertex, error) {
	ctx, span := e.tracer.Start(ctx, name)
	defer span.End()

	found, err := e.expander.Expand(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("discovered", len(found)))

	return found, nil
}

func (e *Engine) record(b *Builder, queryName string, stage models.Stage, vertices []models.Vertex) {
	added := b.Add(stage, vertices)

	e.log.WithFields(logrus.Fields{
		"query":      queryName,
		"stage":      stage.String(),
		"discovered": added,
		"total":      b.Len(),
	}).Debug("resolver.stage")
}
