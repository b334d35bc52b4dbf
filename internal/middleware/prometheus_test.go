package middleware_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/persistorai/kbequiv/internal/httputil"
	"github.com/persistorai/kbequiv/internal/metrics"
	"github.com/persistorai/kbequiv/internal/middleware"
)

func TestPrometheusMiddleware_LabelsRoutePattern(t *testing.T) {
	r := gin.New()
	r.Use(middleware.PrometheusMiddleware())
	r.GET("/test", okHandler)

	counter := metrics.RequestsTotal.WithLabelValues(http.MethodGet, "/test", "200")
	before := testutil.ToFloat64(counter)

	serve(r, "", nil)

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("requests_total = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(metrics.RequestsInFlight); got != 0 {
		t.Errorf("in-flight gauge = %v after request, want 0", got)
	}
}

func TestPrometheusMiddleware_Unmatched(t *testing.T) {
	r := gin.New()
	r.Use(middleware.PrometheusMiddleware())

	counter := metrics.RequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
	before := testutil.ToFloat64(counter)

	serve(r, "", nil)

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("unmatched requests_total = %v, want %v", got, before+1)
	}
}

func TestRejectionsAreCounted(t *testing.T) {
	r := gin.New()
	r.Use(middleware.APIKeyAuth("secret", quietLogger(), nil))
	r.GET("/test", okHandler)

	counter := metrics.ErrorsTotal.WithLabelValues(httputil.CodeUnauthorized)
	before := testutil.ToFloat64(counter)

	if w := serve(r, "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("errors_total{unauthorized} = %v, want %v", got, before+1)
	}
}
