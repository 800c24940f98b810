// Package render defines the capability interface the engine expects from a
// render backend, plus the surface and frame-buffer types exchanged across
// it. The engine never depends on a concrete renderer: backends are selected
// at construction and may be swapped at runtime, after which existing tab
// surfaces become stale and are reallocated lazily on the next render.
package render

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Viewport is the logical region of a document a tab presents, in CSS pixels.
type Viewport struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// Valid reports whether the viewport has a non-zero drawable area.
func (v Viewport) Valid() bool {
	return v.Width > 0 && v.Height > 0
}

// SurfaceSize is the pixel size of a render surface. It does not have to
// match the viewport.
type SurfaceSize struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// PresentMode controls how finished frames are handed to the presenter.
type PresentMode int

const (
	// PresentFifo presents frames in order, synchronized to the consumer.
	PresentFifo PresentMode = iota
	// PresentImmediate presents the newest frame as soon as it is produced.
	PresentImmediate
)

// Buffer is a composited frame snapshot. Handle is an opaque reference the
// host can use to address the frame without copying pixels.
type Buffer struct {
	Handle string
	Size   SurfaceSize
	Pixels []byte // RGBA, Size.Width*Size.Height*4 bytes
}

// NewBufferHandle allocates an opaque frame-buffer reference.
func NewBufferHandle() string {
	return uuid.New().String()
}

// Surface is a drawable target owned by a single tab.
type Surface interface {
	Size() SurfaceSize
	// Snapshot returns the most recently rendered frame, or false if the
	// surface has never been rendered to.
	Snapshot() (Buffer, bool)
	Release()
}

// Document is the rendered content a backend consumes. It is the interface
// boundary to the markup engine; the core never inspects internals beyond it.
type Document interface {
	URL() string
	HTML() string
}

// Backend is the swappable renderer capability.
type Backend interface {
	Name() string
	CreateSurface(size SurfaceSize, mode PresentMode) (Surface, error)
	// Render draws the document into the surface and returns the produced
	// frame. A failed render is recoverable: the caller skips the frame and
	// retries on the next epoch.
	Render(ctx context.Context, doc Document, surface Surface) (Buffer, error)
}

// ErrSurfaceReleased is returned when rendering into a released surface.
var ErrSurfaceReleased = fmt.Errorf("surface already released")
