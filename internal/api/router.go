package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/kbequiv/internal/domain"
	"github.com/persistorai/kbequiv/internal/httputil"
	"github.com/persistorai/kbequiv/internal/middleware"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log            *logrus.Logger
	Service        domain.EquivalenceService
	Pinger         domain.Pinger
	APIKey         string
	CORSOrigins    []string
	RateLimitRPS   int
	RateLimitBurst int
	Version        string
	Backend        string
	SchemaVersion  int
}

// Router-level limits.
const (
	maxBodySize      = 1 << 20
	defaultRateLimit = 20
	defaultRateBurst = 40
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(middleware.AccessLog(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))

	if len(deps.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			MaxAge:           1 * time.Hour,
			AllowCredentials: false,
		}))
	}

	rps, burst := deps.RateLimitRPS, deps.RateLimitBurst
	if rps <= 0 {
		rps = defaultRateLimit
	}
	if burst <= 0 {
		burst = defaultRateBurst
	}
	r.Use(middleware.NewRateLimiter(ctx, rps, burst).Handler())
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	health := NewHealthHandler(deps.Pinger, deps.Log, deps.Version, deps.Backend, deps.SchemaVersion)
	resolve := NewResolveHandler(deps.Service, deps.Log)

	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	guard := middleware.NewBruteForceGuard(ctx, deps.Log)
	api.Use(middleware.BruteForceMiddleware(guard))
	api.Use(middleware.APIKeyAuth(deps.APIKey, deps.Log, guard))

	api.POST("/resolve", resolve.Resolve)
	api.GET("/resolve", resolve.ResolveQuery)
	api.GET("/features/:name/equivalents", resolve.Features)
	api.GET("/terms/:name/tree", resolve.Terms)
	api.GET("/diseases/:name/tree", resolve.Diseases)
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
// Background goroutines started by the middleware stop when ctx is cancelled.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	// Ontology names may contain "/" so path parameters are matched on the escaped path.
	r.UseRawPath = true
	r.UnescapePathValues = true

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, httputil.CodeNotFound, "route not found")
	})

	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
