package service

import (
	"context"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// keyedGuard: prevents overlapping runs of the same task
// ─────────────────────────────────────────────────────────────

// keyedGuard ensures only one run per key is in flight, and lets shutdown
// wait for in-flight runs to finish.
type keyedGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// TryLock marks key as running. It returns false if a run is already in flight.
func (g *keyedGuard) TryLock(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, ok := g.running[key]; ok {
		return false
	}
	g.running[key] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock ends the run for key. Must follow a successful TryLock.
func (g *keyedGuard) Unlock(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, key)
	g.wg.Done()
}

// WaitAll blocks until all runs finish or ctx is done.
func (g *keyedGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
