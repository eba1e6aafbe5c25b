package service

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded a newer load was started before this one finished
var ErrSuperseded = errors.New("load superseded by a newer request")

// Generation issues monotonically increasing load tokens.
// Only the result carrying the latest token may be applied.
type Generation struct {
	mu        sync.Mutex
	latest    uint64
	committed uint64
	cancel    context.CancelFunc

	// closed when the in-flight latest load commits, is abandoned or is superseded
	settled chan struct{}
}

// Begin issues a new token and cancels the in-flight load it supersedes
func (g *Generation) Begin(ctx context.Context) (context.Context, uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		g.cancel()
	}
	if g.settled != nil {
		close(g.settled)
	}
	loadCtx, cancel := context.WithCancel(ctx)
	g.latest++
	g.cancel = cancel
	g.settled = make(chan struct{})
	return loadCtx, g.latest
}

// IsLatest reports whether token is still the newest issued
func (g *Generation) IsLatest(token uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return token == g.latest
}

// IsCommitted reports whether token belongs to the most recently applied load
func (g *Generation) IsCommitted(token uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return token != 0 && token == g.committed
}

// Commit runs apply only if token is still the latest, then releases the load context
func (g *Generation) Commit(token uint64, apply func()) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if token != g.latest {
		return ErrSuperseded
	}
	apply()
	g.committed = token
	g.settle()
	return nil
}

// Abandon releases the load context of a failed load that is still the latest
func (g *Generation) Abandon(token uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if token == g.latest {
		g.settle()
	}
}

func (g *Generation) settle() {
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	if g.settled != nil {
		close(g.settled)
		g.settled = nil
	}
}

// Wait blocks until no load is in flight or ctx is done
func (g *Generation) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		ch := g.settled
		g.mu.Unlock()
		if ch == nil {
			return nil
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
