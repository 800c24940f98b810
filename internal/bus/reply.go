// Package bus provides the request/reply primitive used by the command bus.
//
// Every call-style command embeds a Reply: a single-use conduit created by
// the caller and fulfilled at most once by the actor that handles the
// command. The caller suspends on Await until the conduit is fulfilled or
// abandoned. If the caller stops waiting first, the actor's fulfilment is
// silently dropped; the in-flight work still runs to completion.
package bus

import (
	"context"

	"github.com/gosub-io/gosub-engine/internal/shared/errs"
)

type outcome[T any] struct {
	value T
	err   error
}

// Reply is a one-shot response channel for a single call.
type Reply[T any] struct {
	ch chan outcome[T]
}

// NewReply creates an unfulfilled reply conduit.
func NewReply[T any]() Reply[T] {
	// Capacity 1 so the fulfilling actor never blocks on a slow or
	// departed caller.
	return Reply[T]{ch: make(chan outcome[T], 1)}
}

// Resolve fulfils the conduit with a value. Fulfilment after the first is
// dropped, preserving the at-most-once contract.
func (r Reply[T]) Resolve(v T) {
	select {
	case r.ch <- outcome[T]{value: v}:
	default:
	}
}

// Reject fulfils the conduit with an error.
func (r Reply[T]) Reject(err error) {
	select {
	case r.ch <- outcome[T]{err: err}:
	default:
	}
}

// Close abandons the conduit without fulfilment. Await surfaces this as
// ErrChannelClosed; it is how an actor signals it died before answering.
func (r Reply[T]) Close() {
	close(r.ch)
}

// Await suspends until the conduit is fulfilled, abandoned, or ctx ends.
func (r Reply[T]) Await(ctx context.Context) (T, error) {
	var zero T
	select {
	case out, ok := <-r.ch:
		if !ok {
			return zero, errs.ErrChannelClosed
		}
		return out.value, out.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
