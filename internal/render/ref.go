package render

import "sync"

// BackendRef is the shared slot holding the active backend. The engine
// swaps it; tabs read it at each repaint. The generation bumps on every
// swap so a tab can tell its surface was created against a stale backend
// and reallocate lazily.
type BackendRef struct {
	mu      sync.RWMutex
	backend Backend
	gen     uint64
}

// NewBackendRef creates a ref holding the given backend.
func NewBackendRef(b Backend) *BackendRef {
	return &BackendRef{backend: b, gen: 1}
}

// Get returns the active backend and its generation.
func (r *BackendRef) Get() (Backend, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.backend, r.gen
}

// Swap installs a new backend and returns the previous one.
func (r *BackendRef) Swap(b Backend) Backend {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.backend
	r.backend = b
	r.gen++
	return old
}
