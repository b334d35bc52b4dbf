package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/kbequiv/internal/domain"
	"github.com/persistorai/kbequiv/internal/metrics"
	"github.com/persistorai/kbequiv/internal/models"
)

// Compile-time checks.
var (
	_ domain.Oracle = (*InstrumentedOracle)(nil)
	_ domain.Pinger = (*InstrumentedOracle)(nil)
)

// InstrumentedOracle decorates an Oracle with call metrics and debug logging.
type InstrumentedOracle struct {
	next domain.Oracle
	log  *logrus.Logger
}

// NewInstrumentedOracle wraps next.
func NewInstrumentedOracle(next domain.Oracle, log *logrus.Logger) *InstrumentedOracle {
	return &InstrumentedOracle{next: next, log: log}
}

// FindVerticesByExactName delegates to the wrapped oracle.
func (o *InstrumentedOracle) FindVerticesByExactName(ctx context.Context, class, name string) ([]models.Vertex, error) {
	start := time.Now()
	vertices, err := o.next.FindVerticesByExactName(ctx, class, name)

	o.observe("find_vertices", start, err, logrus.Fields{
		"class":   class,
		"name":    name,
		"results": len(vertices),
	})

	return vertices, err
}

// FindEdges delegates to the wrapped oracle.
func (o *InstrumentedOracle) FindEdges(ctx context.Context, vertexIDs, edgeClasses []string, orientation models.Orientation) ([]models.Edge, error) {
	start := time.Now()
	edges, err := o.next.FindEdges(ctx, vertexIDs, edgeClasses, orientation)

	o.observe("find_edges", start, err, logrus.Fields{
		"ids":         len(vertexIDs),
		"classes":     len(edgeClasses),
		"orientation": orientation.String(),
		"results":     len(edges),
	})

	return edges, err
}

// Ping reports the wrapped oracle's reachability. Oracles without a Ping are always reachable.
func (o *InstrumentedOracle) Ping(ctx context.Context) error {
	if p, ok := o.next.(domain.Pinger); ok {
		return p.Ping(ctx)
	}

	return nil
}

func (o *InstrumentedOracle) observe(operation string, start time.Time, err error, fields logrus.Fields) {
	elapsed := time.Since(start)

	outcome := "ok"

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		outcome = "cancelled"
	default:
		outcome = "error"
	}

	metrics.OracleCallsTotal.WithLabelValues(operation, outcome).Inc()
	metrics.OracleCallDuration.WithLabelValues(operation).Observe(elapsed.Seconds())

	fields["outcome"] = outcome
	fields["duration_ms"] = elapsed.Milliseconds()

	entry := o.log.WithFields(fields)
	if err != nil {
		entry = entry.WithError(err)
	}

	entry.Debug("oracle." + operation)
}
