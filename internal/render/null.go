package render

import (
	"context"
	"sync"
)

// NullBackend is a headless renderer producing blank frames. It exists so
// the engine can run without a real rasterizer: embedding tests, servers
// without displays, and tabs that only need lifecycle semantics.
type NullBackend struct{}

// NewNullBackend creates a headless backend.
func NewNullBackend() *NullBackend {
	return &NullBackend{}
}

func (b *NullBackend) Name() string { return "null" }

func (b *NullBackend) CreateSurface(size SurfaceSize, mode PresentMode) (Surface, error) {
	return &nullSurface{size: size}, nil
}

func (b *NullBackend) Render(ctx context.Context, doc Document, surface Surface) (Buffer, error) {
	s, ok := surface.(*nullSurface)
	if !ok {
		return Buffer{}, ErrSurfaceReleased
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return Buffer{}, ErrSurfaceReleased
	}

	buf := Buffer{
		Handle: NewBufferHandle(),
		Size:   s.size,
		Pixels: make([]byte, int(s.size.Width)*int(s.size.Height)*4),
	}
	s.last = buf
	s.rendered = true
	return buf, nil
}

type nullSurface struct {
	mu       sync.Mutex
	size     SurfaceSize
	last     Buffer
	rendered bool
	released bool
}

func (s *nullSurface) Size() SurfaceSize {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

func (s *nullSurface) Snapshot() (Buffer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.rendered || s.released {
		return Buffer{}, false
	}
	return s.last, true
}

func (s *nullSurface) Release() {
	s.mu.Lock()
	s.released = true
	s.rendered = false
	s.last = Buffer{}
	s.mu.Unlock()
}
