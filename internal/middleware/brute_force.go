package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/kbequiv/internal/httputil"
)

const (
	bruteForceMaxAttempts = 5
	bruteForceWindow      = 15 * time.Minute
	bruteForceLockout     = 5 * time.Minute
	bruteForceCleanup     = 60 * time.Second
	bruteForceMaxRecords  = 10000
)

type failureRecord struct {
	attempts  int
	firstFail time.Time
	lockedAt  time.Time
}

// BruteForceGuard tracks authentication failures per client IP and locks out
// clients that exceed the failure threshold within the tracking window.
type BruteForceGuard struct {
	mu      sync.Mutex
	records map[string]*failureRecord
	log     *logrus.Logger
	now     func() time.Time
}

// NewBruteForceGuard creates a new guard and starts a background cleanup goroutine
// that stops when ctx is cancelled.
func NewBruteForceGuard(ctx context.Context, log *logrus.Logger) *BruteForceGuard {
	g := &BruteForceGuard{
		records: make(map[string]*failureRecord),
		log:     log,
		now:     time.Now,
	}
	go g.cleanupLoop(ctx)

	return g
}

// IsBlocked reports whether the client is currently locked out.
func (g *BruteForceGuard) IsBlocked(clientIP string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[clientIP]
	if !ok || rec.lockedAt.IsZero() {
		return false
	}

	return g.now().Sub(rec.lockedAt) < bruteForceLockout
}

// RecordFailure records a failed authentication attempt from the client.
func (g *BruteForceGuard) RecordFailure(clientIP string) {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[clientIP]
	if !ok {
		if len(g.records) >= bruteForceMaxRecords {
			g.evictOldest(1)
		}

		g.records[clientIP] = &failureRecord{attempts: 1, firstFail: now}

		return
	}

	if now.Sub(rec.firstFail) > bruteForceWindow {
		*rec = failureRecord{attempts: 1, firstFail: now}

		return
	}

	rec.attempts++
	if rec.attempts >= bruteForceMaxAttempts {
		relock := !rec.lockedAt.IsZero()
		rec.lockedAt = now
		g.log.WithFields(logrus.Fields{
			"client_ip": clientIP,
			"attempts":  rec.attempts,
			"relock":    relock,
		}).Warn("auth.lockout")
	}
}

// Reset clears failure tracking for the client after a successful authentication.
func (g *BruteForceGuard) Reset(clientIP string) {
	g.mu.Lock()
	delete(g.records, clientIP)
	g.mu.Unlock()
}

func (g *BruteForceGuard) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(bruteForceCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sweep()
		}
	}
}

// sweep drops expired lockouts and stale windows.
func (g *BruteForceGuard) sweep() {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	for ip, rec := range g.records {
		switch {
		case !rec.lockedAt.IsZero():
			if now.Sub(rec.lockedAt) >= bruteForceLockout {
				delete(g.records, ip)
			}
		case now.Sub(rec.firstFail) >= bruteForceWindow:
			delete(g.records, ip)
		}
	}
}

// evictOldest removes the n records with the oldest first failure.
// Caller must hold g.mu.
func (g *BruteForceGuard) evictOldest(n int) {
	for range n {
		var (
			oldestIP string
			oldest   time.Time
		)

		for ip, rec := range g.records {
			if oldestIP == "" || rec.firstFail.Before(oldest) {
				oldestIP, oldest = ip, rec.firstFail
			}
		}

		if oldestIP == "" {
			return
		}

		delete(g.records, oldestIP)
	}
}

// BruteForceMiddleware rejects requests from locked-out clients before authentication runs.
func BruteForceMiddleware(guard *BruteForceGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		if guard.IsBlocked(c.ClientIP()) {
			reject(c, http.StatusTooManyRequests, httputil.CodeRateLimited, "too many failed authentication attempts")

			return
		}

		c.Next()
	}
}
