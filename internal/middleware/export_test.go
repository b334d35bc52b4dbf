package middleware

import "time"

// SetClock replaces the guard's time source.
func SetClock(g *BruteForceGuard, now func() time.Time) {
	g.mu.Lock()
	g.now = now
	g.mu.Unlock()
}

// Sweep runs one cleanup pass.
func (g *BruteForceGuard) Sweep() { g.sweep() }
