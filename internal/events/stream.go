package events

import (
	"context"
	"sync"

	"github.com/gosub-io/gosub-engine/internal/shared/errs"
	"github.com/gosub-io/gosub-engine/internal/shared/id"
)

// Stream is the multi-producer/single-consumer channel carrying engine
// events to the host.
//
// Producers (the engine, zone and tab actors) never block. Lifecycle and
// navigation events are queued without loss. Frame events are coalesced per
// tab: a newly produced frame supersedes an undelivered older one, bounding
// memory when the consumer falls behind.
type Stream struct {
	mu     sync.Mutex
	queue  []Event                 // lifecycle/navigation, FIFO
	frames map[id.TabID]FrameReady // latest undelivered frame per tab
	order  []id.TabID              // tabs with a pending frame, arrival order
	signal chan struct{}
	closed bool
}

// NewStream creates an open event stream.
func NewStream() *Stream {
	return &Stream{
		frames: make(map[id.TabID]FrameReady),
		signal: make(chan struct{}, 1),
	}
}

// Emit publishes an event. Emit never blocks; it is safe to call from any
// actor goroutine. Events emitted after Close are dropped.
func (s *Stream) Emit(ev Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	if frame, ok := ev.(FrameReady); ok {
		if _, pending := s.frames[frame.TabID]; !pending {
			s.order = append(s.order, frame.TabID)
		}
		// Supersede any undelivered frame for this tab.
		s.frames[frame.TabID] = frame
	} else {
		s.queue = append(s.queue, ev)
	}
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// Next blocks until an event is available, the stream is closed and fully
// drained (errs.ErrChannelClosed), or ctx ends. Queued lifecycle events are
// delivered before pending frames.
func (s *Stream) Next(ctx context.Context) (Event, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			ev := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return ev, nil
		}
		if len(s.order) > 0 {
			tabID := s.order[0]
			s.order = s.order[1:]
			frame := s.frames[tabID]
			delete(s.frames, tabID)
			s.mu.Unlock()
			return frame, nil
		}
		if s.closed {
			s.mu.Unlock()
			return nil, errs.ErrChannelClosed
		}
		s.mu.Unlock()

		select {
		case <-s.signal:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// TryNext returns the next pending event without blocking.
func (s *Stream) TryNext() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) > 0 {
		ev := s.queue[0]
		s.queue = s.queue[1:]
		return ev, true
	}
	if len(s.order) > 0 {
		tabID := s.order[0]
		s.order = s.order[1:]
		frame := s.frames[tabID]
		delete(s.frames, tabID)
		return frame, true
	}
	return nil, false
}

// Close marks the stream finished. Pending events remain deliverable; once
// drained, Next reports errs.ErrChannelClosed.
func (s *Stream) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// Pending reports how many events are queued (frames count once per tab).
func (s *Stream) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) + len(s.order)
}
