package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/kbequiv/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)

	return l
}

// doRequest performs an HTTP request against h and returns the recorder.
func doRequest(h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, http.NoBody)
	}

	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	return w
}

// mockService implements domain.EquivalenceService and records the last request.
type mockService struct {
	resolveFn func(ctx context.Context, req models.ResolveRequest) (*models.ResolutionResult, error)

	lastReq    models.ResolveRequest
	lastMethod string
	lastName   string
}

func (m *mockService) Resolve(ctx context.Context, req models.ResolveRequest) (*models.ResolutionResult, error) {
	m.lastMethod, m.lastReq = "Resolve", req

	return m.result(ctx, req)
}

func (m *mockService) EquivalentFeatures(ctx context.Context, gene string) (*models.ResolutionResult, error) {
	m.lastMethod, m.lastName = "EquivalentFeatures", gene

	return m.result(ctx, models.ResolveRequest{Name: gene})
}

func (m *mockService) TermTree(ctx context.Context, term string) (*models.ResolutionResult, error) {
	m.lastMethod, m.lastName = "TermTree", term

	return m.result(ctx, models.ResolveRequest{Name: term})
}

func (m *mockService) DiseaseTree(ctx context.Context, disease string) (*models.ResolutionResult, error) {
	m.lastMethod, m.lastName = "DiseaseTree", disease

	return m.result(ctx, models.ResolveRequest{Name: disease})
}

func (m *mockService) result(ctx context.Context, req models.ResolveRequest) (*models.ResolutionResult, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, req)
	}

	return sampleResult(req.Name), nil
}

func sampleResult(name string) *models.ResolutionResult {
	return &models.ResolutionResult{
		Query: name,
		Vertices: []models.StagedVertex{
			{Vertex: models.Vertex{ID: "#1:1", Class: "Disease", Name: name}, Stage: models.StageNameMatch},
			{Vertex: models.Vertex{ID: "#1:2", Class: "Disease", Name: name + " alias"}, Stage: models.StageAlias},
		},
	}
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error { return m.err }
