// Package graphkb implements the resolver oracle on top of the GraphKB REST API.
//
// The client authenticates with a token from POST /token, pages POST /query requests with
// limit/skip, retries transient failures with exponential backoff, throttles outbound requests
// and caches identical queries in-process.
package graphkb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultURL       = "https://graphkb-api.bcgsc.ca/api"
	DefaultPageSize  = 1000
	defaultRetryBase = time.Second
	defaultTimeout   = 60 * time.Second
)

// Config configures a Client.
type Config struct {
	BaseURL  string
	Username string
	Password string

	// PageSize is the limit sent with every query page.
	PageSize int
	// MaxRetries bounds retries of a single request on 429/5xx and transport errors.
	MaxRetries int
	// RetryBase is the first backoff interval; it doubles per attempt.
	RetryBase time.Duration
	// RateLimit caps outbound requests per second. Zero means unlimited.
	RateLimit float64
	// CacheSize is the number of cached query results. Zero disables the cache.
	CacheSize int

	HTTPClient *http.Client
}

// Record is one GraphKB record as returned by the API.
type Record map[string]any

// StatusError is a non-2xx response from GraphKB.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("graphkb: /%s: %d %s", e.Endpoint, e.StatusCode, e.Message)
	}

	return fmt.Sprintf("graphkb: /%s: %d %s", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
}

// Retryable reports whether the status is worth retrying.
func (e *StatusError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// Stats summarizes outbound request volume.
type Stats struct {
	Requests     int64     `json:"requests"`
	CacheHits    int64     `json:"cache_hits"`
	FirstRequest time.Time `json:"first_request"`
	LastRequest  time.Time `json:"last_request"`
	// Load is requests per second between the first and last request, or 0 with fewer than two.
	Load float64 `json:"load"`
}

// Client talks to a GraphKB API. Safe for concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	log     *logrus.Logger
	limiter *rate.Limiter
	cache   *lru.Cache[string, []Record]

	tokenMu sync.RWMutex
	token   string
	loginMu sync.Mutex

	requests  atomic.Int64
	cacheHits atomic.Int64
	timingMu  sync.Mutex
	first     time.Time
	last      time.Time
}

// New creates a Client. It does not contact the server; call Login or let the first 401
// trigger authentication.
func New(cfg Config, log *logrus.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultURL
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}

	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	if cfg.RetryBase <= 0 {
		cfg.RetryBase = defaultRetryBase
	}

	c := &Client{
		cfg:     cfg,
		http:    cfg.HTTPClient,
		log:     log,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}

	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}

	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(1, int(cfg.RateLimit)))
	}

	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, []Record](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating query cache: %w", err)
		}

		c.cache = cache
	}

	return c, nil
}

// Login exchanges the configured credentials for a token.
func (c *Client) Login(ctx context.Context) error {
	c.loginMu.Lock()
	defer c.loginMu.Unlock()

	return c.login(ctx)
}

func (c *Client) login(ctx context.Context) error {
	var resp struct {
		KBToken string `json:"kbToken"`
	}

	body := map[string]string{"username": c.cfg.Username, "password": c.cfg.Password}
	if err := c.post(ctx, "token", body, &resp, false); err != nil {
		return fmt.Errorf("graphkb login: %w", err)
	}

	if resp.KBToken == "" {
		return errors.New("graphkb login: response carried no token")
	}

	c.tokenMu.Lock()
	c.token = resp.KBToken
	c.tokenMu.Unlock()

	c.log.WithField("user", c.cfg.Username).Info("graphkb.login")

	return nil
}

// refreshLogin logs in again unless another caller already replaced the rejected token.
func (c *Client) refreshLogin(ctx context.Context, rejected string) error {
	c.loginMu.Lock()
	defer c.loginMu.Unlock()

	if c.currentToken() != rejected {
		return nil
	}

	c.log.Info("graphkb.relogin")

	return c.login(ctx)
}

func (c *Client) currentToken() string {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()

	return c.token
}

// Stats returns a snapshot of request counters.
func (c *Client) Stats() Stats {
	c.timingMu.Lock()
	first, last := c.first, c.last
	c.timingMu.Unlock()

	s := Stats{
		Requests:     c.requests.Load(),
		CacheHits:    c.cacheHits.Load(),
		FirstRequest: first,
		LastRequest:  last,
	}

	if elapsed := last.Sub(first); elapsed > 0 {
		s.Load = float64(s.Requests) / elapsed.Seconds()
	}

	return s
}

// post sends a JSON request to endpoint, retrying transient failures. When authed is set the
// token is attached and a 401/403 triggers one re-login and replay.
func (c *Client) post(ctx context.Context, endpoint string, body, out any, authed bool) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	backoff := retry.WithMaxRetries(uint64(c.cfg.MaxRetries), retry.NewExponential(c.cfg.RetryBase))

	attempt := 0

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		err := c.send(ctx, endpoint, payload, out, authed)
		if err == nil || !c.retryable(ctx, err) {
			return err
		}

		c.log.WithFields(logrus.Fields{
			"endpoint": endpoint,
			"attempt":  attempt,
			"error":    err.Error(),
		}).Warn("graphkb.retry")

		return retry.RetryableError(err)
	})
}

func (c *Client) retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}

	var transportErr *transportError

	return errors.As(err, &transportErr)
}

// transportError marks a failure to obtain any HTTP response.
type transportError struct{ err error }

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func (c *Client) send(ctx context.Context, endpoint string, payload []byte, out any, authed bool) error {
	token := ""
	if authed {
		token = c.currentToken()
	}

	status, body, err := c.roundTrip(ctx, endpoint, payload, token)
	if err != nil {
		return err
	}

	if authed && (status == http.StatusUnauthorized || status == http.StatusForbidden) && c.cfg.Username != "" {
		if err := c.refreshLogin(ctx, token); err != nil {
			return err
		}

		status, body, err = c.roundTrip(ctx, endpoint, payload, c.currentToken())
		if err != nil {
			return err
		}
	}

	if status >= 300 {
		return &StatusError{Endpoint: endpoint, StatusCode: status, Message: errorMessage(body)}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode /%s response: %w", endpoint, err)
	}

	return nil
}

func (c *Client) roundTrip(ctx context.Context, endpoint string, payload []byte, token string) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, ctxErr
		}

		return 0, nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/"+endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", token)
	}

	start := c.markRequest()

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, ctxErr
		}

		return 0, nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &transportError{err: fmt.Errorf("read response: %w", err)}
	}

	c.log.WithFields(logrus.Fields{
		"endpoint":    endpoint,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("graphkb.request")

	return resp.StatusCode, body, nil
}

func (c *Client) markRequest() time.Time {
	now := time.Now()

	c.requests.Add(1)

	c.timingMu.Lock()
	if c.first.IsZero() {
		c.first = now
	}
	c.last = now
	c.timingMu.Unlock()

	return now
}

// errorMessage extracts the "message" field of a GraphKB error body, if any.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	return payload.Message
}
