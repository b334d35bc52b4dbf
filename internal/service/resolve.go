// Package service provides business logic between API handlers and the resolution engine.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/kbequiv/internal/domain"
	"github.com/persistorai/kbequiv/internal/metrics"
	"github.com/persistorai/kbequiv/internal/models"
	"github.com/persistorai/kbequiv/internal/resolver"
)

// Domain classes used by the convenience lookups.
const (
	ClassFeature    = "Feature"
	ClassVocabulary = "Vocabulary"
	ClassDisease    = "Disease"
)

// Compile-time check: *ResolveService must satisfy domain.EquivalenceService.
var _ domain.EquivalenceService = (*ResolveService)(nil)

// Engine is the resolution entry point ResolveService depends on.
type Engine interface {
	Resolve(ctx context.Context, queryName, targetClass string, cfg resolver.Config) (*models.ResolutionResult, error)
}

// Defaults are the server-side values used when a request leaves a field unset.
type Defaults struct {
	TargetClass      string
	AliasDepth       int
	DirectionalDepth int
	Classification   resolver.Classification
	// Timeout bounds one resolution call. Zero means no server-side limit.
	Timeout time.Duration
}

// ResolveService fills request defaults, enforces the call timeout and records metrics
// around the engine.
type ResolveService struct {
	engine   Engine
	defaults Defaults
	log      *logrus.Logger
}

// NewResolveService creates a ResolveService. A zero Classification falls back to the
// built-in edge classes.
func NewResolveService(engine Engine, defaults Defaults, log *logrus.Logger) *ResolveService {
	if defaults.Classification.IsZero() {
		defaults.Classification = resolver.DefaultClassification()
	}

	return &ResolveService{engine: engine, defaults: defaults, log: log}
}

// Resolve validates req, applies defaults and runs the resolution.
func (s *ResolveService) Resolve(ctx context.Context, req models.ResolveRequest) (*models.ResolutionResult, error) {
	start := time.Now()

	res, err := s.resolve(ctx, req)

	s.observe(req, res, err, time.Since(start))

	return res, err
}

func (s *ResolveService) resolve(ctx context.Context, req models.ResolveRequest) (*models.ResolutionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cfg, err := s.config(req)
	if err != nil {
		return nil, err
	}

	class := req.TargetClass
	if class == "" {
		class = s.defaults.TargetClass
	}

	if s.defaults.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.defaults.Timeout)
		defer cancel()
	}

	return s.engine.Resolve(ctx, req.Name, class, cfg)
}

// config builds the per-call engine configuration. Each edge set the request omits is taken
// from the defaults independently.
func (s *ResolveService) config(req models.ResolveRequest) (resolver.Config, error) {
	cfg := resolver.Config{
		Classification:   s.defaults.Classification,
		AliasDepth:       s.defaults.AliasDepth,
		DirectionalDepth: s.defaults.DirectionalDepth,
	}

	if req.AliasDepth != nil {
		cfg.AliasDepth = *req.AliasDepth
	}

	if req.DirectionalDepth != nil {
		cfg.DirectionalDepth = *req.DirectionalDepth
	}

	if len(req.EquivalencyEdges) == 0 && len(req.DirectionalEdges) == 0 {
		return cfg, nil
	}

	eq := req.EquivalencyEdges
	if len(eq) == 0 {
		eq = s.defaults.Classification.Classes(resolver.Equivalency)
	}

	dir := req.DirectionalEdges
	if len(dir) == 0 {
		dir = s.defaults.Classification.Classes(resolver.Directional)
	}

	cls, err := resolver.NewClassification(eq, dir)
	if err != nil {
		return resolver.Config{}, err
	}

	cfg.Classification = cls

	return cfg, nil
}

// EquivalentFeatures resolves the Feature records equivalent to a gene name. Only
// equivalency edges are followed.
func (s *ResolveService) EquivalentFeatures(ctx context.Context, gene string) (*models.ResolutionResult, error) {
	zero := 0

	return s.Resolve(ctx, models.ResolveRequest{Name: gene, TargetClass: ClassFeature, DirectionalDepth: &zero})
}

// TermTree resolves a vocabulary term together with its subclass tree and their aliases.
func (s *ResolveService) TermTree(ctx context.Context, term string) (*models.ResolutionResult, error) {
	return s.Resolve(ctx, models.ResolveRequest{Name: term, TargetClass: ClassVocabulary})
}

// DiseaseTree resolves a disease name together with its subclass tree and their aliases.
func (s *ResolveService) DiseaseTree(ctx context.Context, disease string) (*models.ResolutionResult, error) {
	return s.Resolve(ctx, models.ResolveRequest{Name: disease, TargetClass: ClassDisease})
}

func (s *ResolveService) observe(req models.ResolveRequest, res *models.ResolutionResult, err error, elapsed time.Duration) {
	outcome := Outcome(res, err)

	metrics.ResolutionsTotal.WithLabelValues(outcome).Inc()
	metrics.ResolutionDuration.Observe(elapsed.Seconds())

	fields := logrus.Fields{
		"query":       req.Name,
		"class":       req.TargetClass,
		"outcome":     outcome,
		"duration_ms": elapsed.Milliseconds(),
	}

	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("resolve_" + outcome).Inc()
		s.log.WithFields(fields).WithError(err).Warn("resolve.failed")

		return
	}

	for stage, n := range res.Counts() {
		metrics.ResolutionSize.WithLabelValues(stage.String()).Observe(float64(n))
	}

	fields["vertices"] = res.Len()
	s.log.WithFields(fields).Info("resolve.done")
}

// Outcome labels a resolution for metrics and logs.
func Outcome(res *models.ResolutionResult, err error) string {
	switch {
	case err == nil && res != nil && res.IsEmpty():
		return "empty"
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrMisconfiguredEdgeSets):
		return "misconfigured"
	case models.IsValidationError(err):
		return "invalid"
	case errors.Is(err, models.ErrCancelled):
		return "cancelled"
	case errors.Is(err, models.ErrQueryFailure):
		return "query_failure"
	default:
		return "error"
	}
}
