package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/persistorai/kbequiv/internal/api"
	"github.com/persistorai/kbequiv/internal/httputil"
	"github.com/persistorai/kbequiv/internal/middleware"
)

const testAPIKey = "test-api-key"

func newFullRouter(t *testing.T, svc *mockService) http.Handler {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return api.NewRouter(ctx, &api.RouterDeps{
		Log:            testLogger(),
		Service:        svc,
		Pinger:         &mockPinger{},
		APIKey:         testAPIKey,
		CORSOrigins:    []string{"http://localhost:3002"},
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		Version:        "test",
		Backend:        "file",
	})
}

func TestRouter_HealthIsPublic(t *testing.T) {
	t.Parallel()

	r := newFullRouter(t, &mockService{})

	for _, path := range []string{"/api/v1/health", "/api/v1/ready", "/metrics"} {
		if w := doRequest(r, http.MethodGet, path, ""); w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

func TestRouter_ResolveRequiresKey(t *testing.T) {
	t.Parallel()

	svc := &mockService{}
	r := newFullRouter(t, svc)

	w := doRequest(r, http.MethodPost, "/api/v1/resolve", `{"name":"x"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", w.Code)
	}
	if svc.lastMethod != "" {
		t.Fatal("service reached without authentication")
	}

	w = doRequest(r, http.MethodPost, "/api/v1/resolve", `{"name":"x"}`, "Authorization", "Bearer "+testAPIKey)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with key, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRouter_RoutesAndEscapedNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path       string
		wantMethod string
		wantName   string
	}{
		{"/api/v1/resolve?name=KRAS", "Resolve", ""},
		{"/api/v1/features/KRAS/equivalents", "EquivalentFeatures", "KRAS"},
		{"/api/v1/terms/loss%20of%20function/tree", "TermTree", "loss of function"},
		{"/api/v1/diseases/ER%2FPR%20positive/tree", "DiseaseTree", "ER/PR positive"},
	}

	for _, tt := range tests {
		t.Run(tt.wantMethod, func(t *testing.T) {
			t.Parallel()

			svc := &mockService{}
			r := newFullRouter(t, svc)

			w := doRequest(r, http.MethodGet, tt.path, "", "Authorization", "Bearer "+testAPIKey)

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
			}
			if svc.lastMethod != tt.wantMethod || svc.lastName != tt.wantName {
				t.Errorf("called %s(%q), want %s(%q)", svc.lastMethod, svc.lastName, tt.wantMethod, tt.wantName)
			}
		})
	}
}

func TestRouter_NotFoundIsJSON(t *testing.T) {
	t.Parallel()

	r := newFullRouter(t, &mockService{})

	w := doRequest(r, http.MethodGet, "/api/v1/nodes", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	var body httputil.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Code != "not_found" || body.RequestID == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestRouter_RequestIDAndSecurityHeaders(t *testing.T) {
	t.Parallel()

	r := newFullRouter(t, &mockService{})

	w := doRequest(r, http.MethodGet, "/api/v1/health", "")

	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	t.Parallel()

	r := newFullRouter(t, &mockService{})

	w := doRequest(r, http.MethodOptions, "/api/v1/resolve", "",
		"Origin", "http://localhost:3002",
		"Access-Control-Request-Method", "POST",
	)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3002" {
		t.Errorf("allow origin = %q", got)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "POST") {
		t.Errorf("allow methods = %q", w.Header().Get("Access-Control-Allow-Methods"))
	}
}
