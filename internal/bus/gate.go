package bus

import "sync"

// Gate serializes command submission against actor shutdown. Senders wrap
// each enqueue in Enter/Exit; the actor calls Close before its final drain.
// Close waits for every in-flight sender, so a send that won its race is in
// the buffer before the drain runs and can never be stranded unanswered.
type Gate struct {
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewGate creates an open gate.
func NewGate() *Gate {
	return &Gate{done: make(chan struct{})}
}

// Enter claims the right to enqueue one command. It returns false once the
// gate has closed; a caller that gets true must call Exit after its send
// resolves.
func (g *Gate) Enter() bool {
	g.mu.RLock()
	if g.closed {
		g.mu.RUnlock()
		return false
	}
	return true
}

// Exit releases a claim taken with Enter.
func (g *Gate) Exit() {
	g.mu.RUnlock()
}

// Close shuts the gate. Done is closed first so senders blocked on a full
// buffer bail out instead of deadlocking against an actor that no longer
// consumes.
func (g *Gate) Close() {
	close(g.done)
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}

// Done is closed when the owning actor begins shutdown.
func (g *Gate) Done() <-chan struct{} {
	return g.done
}
