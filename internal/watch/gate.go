package watch

import (
	"context"
	"sync"
)

// Gate waits for a fixed number of acknowledgements. The watch set confirms
// each newly tracked file asynchronously; a run is finalized only once every
// registration has been confirmed.
type Gate struct {
	mu        sync.Mutex
	remaining int
	done      chan struct{}
}

// NewGate returns a gate expecting n acknowledgements. A gate for n <= 0 is
// already open.
func NewGate(n int) *Gate {
	g := &Gate{remaining: n, done: make(chan struct{})}
	if n <= 0 {
		g.remaining = 0
		close(g.done)
	}

	return g
}

// Ack records one acknowledgement. Acknowledgements past the expected count
// are ignored.
func (g *Gate) Ack() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.remaining == 0 {
		return
	}

	g.remaining--
	if g.remaining == 0 {
		close(g.done)
	}
}

// Remaining returns the number of acknowledgements still outstanding.
func (g *Gate) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.remaining
}

// Done is closed once every expected acknowledgement has arrived.
func (g *Gate) Done() <-chan struct{} { return g.done }

// Wait blocks until the gate opens or ctx is done. There is no timeout: a
// registration that is never acknowledged stalls the caller.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
