package service

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/kbequiv/internal/models"
	"github.com/persistorai/kbequiv/internal/resolver"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return log
}

// engineCall captures the arguments of one Engine.Resolve call.
type engineCall struct {
	name     string
	class    string
	cfg      resolver.Config
	deadline bool
}

// mockEngine records calls and returns configured responses.
type mockEngine struct {
	mu    sync.Mutex
	calls []engineCall

	resolve func(ctx context.Context, name, class string, cfg resolver.Config) (*models.ResolutionResult, error)
}

func (m *mockEngine) Resolve(ctx context.Context, name, class string, cfg resolver.Config) (*models.ResolutionResult, error) {
	_, hasDeadline := ctx.Deadline()

	m.mu.Lock()
	m.calls = append(m.calls, engineCall{name: name, class: class, cfg: cfg, deadline: hasDeadline})
	m.mu.Unlock()

	if m.resolve == nil {
		return &models.ResolutionResult{Query: name, TargetClass: class}, nil
	}

	return m.resolve(ctx, name, class, cfg)
}

func (m *mockEngine) lastCall() engineCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls[len(m.calls)-1]
}

// mockOracle records calls and returns configured responses.
type mockOracle struct {
	mu    sync.Mutex
	calls []string

	findVertices func(ctx context.Context, class, name string) ([]models.Vertex, error)
	findEdges    func(ctx context.Context, ids, classes []string, o models.Orientation) ([]models.Edge, error)
}

func (m *mockOracle) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockOracle) FindVerticesByExactName(ctx context.Context, class, name string) ([]models.Vertex, error) {
	m.record("FindVerticesByExactName")
	return m.findVertices(ctx, class, name)
}

func (m *mockOracle) FindEdges(ctx context.Context, ids, classes []string, o models.Orientation) ([]models.Edge, error) {
	m.record("FindEdges")
	return m.findEdges(ctx, ids, classes, o)
}

// pingOracle adds a Ping to mockOracle.
type pingOracle struct {
	mockOracle
	err error
}

func (p *pingOracle) Ping(context.Context) error { return p.err }
