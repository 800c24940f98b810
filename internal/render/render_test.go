package render

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticDoc struct{ url, html string }

func (d staticDoc) URL() string  { return d.url }
func (d staticDoc) HTML() string { return d.html }

func TestViewportValid(t *testing.T) {
	assert.True(t, Viewport{Width: 800, Height: 600}.Valid())
	assert.False(t, Viewport{Width: 0, Height: 600}.Valid())
	assert.False(t, Viewport{}.Valid())
}

func TestNullBackendRenderProducesBlankFrame(t *testing.T) {
	backend := NewNullBackend()
	assert.Equal(t, "null", backend.Name())

	surface, err := backend.CreateSurface(SurfaceSize{Width: 4, Height: 2}, PresentFifo)
	require.NoError(t, err)

	buf, err := backend.Render(context.Background(), staticDoc{url: "about:blank"}, surface)
	require.NoError(t, err)
	assert.NotEmpty(t, buf.Handle)
	assert.Len(t, buf.Pixels, 4*2*4)
}

func TestNullSurfaceSnapshot(t *testing.T) {
	backend := NewNullBackend()
	surface, err := backend.CreateSurface(SurfaceSize{Width: 2, Height: 2}, PresentFifo)
	require.NoError(t, err)

	_, ok := surface.Snapshot()
	assert.False(t, ok, "unrendered surface has no snapshot")

	buf, err := backend.Render(context.Background(), staticDoc{}, surface)
	require.NoError(t, err)

	snap, ok := surface.Snapshot()
	require.True(t, ok)
	assert.Equal(t, buf.Handle, snap.Handle)
}

func TestNullSurfaceReleaseStopsRendering(t *testing.T) {
	backend := NewNullBackend()
	surface, err := backend.CreateSurface(SurfaceSize{Width: 2, Height: 2}, PresentFifo)
	require.NoError(t, err)

	surface.Release()

	_, err = backend.Render(context.Background(), staticDoc{}, surface)
	assert.ErrorIs(t, err, ErrSurfaceReleased)

	_, ok := surface.Snapshot()
	assert.False(t, ok)
}

func TestBufferHandlesUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		h := NewBufferHandle()
		assert.False(t, seen[h])
		seen[h] = true
	}
}
