package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosub-io/gosub-engine/internal/shared/errs"
)

func TestReplyResolve(t *testing.T) {
	r := NewReply[int]()
	r.Resolve(42)

	v, err := r.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestReplyReject(t *testing.T) {
	r := NewReply[int]()
	r.Reject(errs.ErrNotFound)

	_, err := r.Await(context.Background())
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestReplyFulfilledAtMostOnce(t *testing.T) {
	r := NewReply[string]()
	r.Resolve("first")
	r.Resolve("second")
	r.Reject(errors.New("too late"))

	v, err := r.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}

func TestReplyCloseSurfacesChannelClosed(t *testing.T) {
	r := NewReply[int]()
	r.Close()

	_, err := r.Await(context.Background())
	assert.ErrorIs(t, err, errs.ErrChannelClosed)
}

func TestReplyAwaitRespectsContext(t *testing.T) {
	r := NewReply[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := r.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReplyResolveAfterCallerLeftDoesNotBlock(t *testing.T) {
	r := NewReply[int]()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Await(ctx)
	require.Error(t, err)

	done := make(chan struct{})
	go func() {
		// Fire-and-forget: must not block even though nobody awaits.
		r.Resolve(1)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Resolve blocked on an abandoned reply")
	}
}
