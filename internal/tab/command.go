package tab

import (
	"github.com/gosub-io/gosub-engine/internal/bus"
	"github.com/gosub-io/gosub-engine/internal/render"
	"github.com/gosub-io/gosub-engine/internal/storage"
)

// Command is a message addressed to a tab actor. The set is sealed; each
// variant knows how to reject its reply when the actor dies before
// answering.
type Command interface {
	name() string
	reject(err error)
}

// Navigate starts an asynchronous load of URL. Acceptance is acknowledged
// through the reply; the load outcome arrives on the event stream.
type Navigate struct {
	URL   string
	Reply bus.Reply[struct{}]
}

// Reload restarts the load of the committed document's URL.
type Reload struct {
	Reply bus.Reply[struct{}]
}

// StopLoading cancels an in-flight load, keeping the committed document.
type StopLoading struct {
	Reply bus.Reply[struct{}]
}

// SetViewport resizes the logical viewport.
type SetViewport struct {
	Viewport render.Viewport
	Reply    bus.Reply[struct{}]
}

// ResumeDrawing moves the tab to Active at the given cadence. FPS zero
// selects the configured default.
type ResumeDrawing struct {
	FPS uint32
}

// SuspendDrawing moves the tab to Suspended, halting the repaint loop.
type SuspendDrawing struct{}

// HandleEvent routes host input into the browsing context.
type HandleEvent struct {
	Event InputEvent
}

// Execute is the extension point for host-issued directives outside the
// typed lifecycle command set.
type Execute struct {
	Directive string
	Reply     bus.Reply[string]
}

// Thumbnail requests the last composited frame. A buffer with an empty
// handle means no frame exists yet.
type Thumbnail struct {
	Reply bus.Reply[render.Buffer]
}

// StorageNotify re-broadcasts a storage mutation made by another tab in
// the same zone into this tab's documents.
type StorageNotify struct {
	Change storage.ChangeEvent
}

// Close asks the actor to shut down. Ack is closed once teardown finishes.
type Close struct {
	Ack chan struct{}
}

func (Navigate) name() string       { return "navigate" }
func (Reload) name() string         { return "reload" }
func (StopLoading) name() string    { return "stop_loading" }
func (SetViewport) name() string    { return "set_viewport" }
func (ResumeDrawing) name() string  { return "resume_drawing" }
func (SuspendDrawing) name() string { return "suspend_drawing" }
func (HandleEvent) name() string    { return "handle_event" }
func (Execute) name() string        { return "execute" }
func (Thumbnail) name() string      { return "thumbnail" }
func (StorageNotify) name() string  { return "storage_notify" }
func (Close) name() string          { return "close" }

func (c Navigate) reject(err error)    { c.Reply.Reject(err) }
func (c Reload) reject(err error)      { c.Reply.Reject(err) }
func (c StopLoading) reject(err error) { c.Reply.Reject(err) }
func (c SetViewport) reject(err error) { c.Reply.Reject(err) }
func (ResumeDrawing) reject(error)     {}
func (SuspendDrawing) reject(error)    {}
func (HandleEvent) reject(error)       {}
func (c Execute) reject(err error)     { c.Reply.Reject(err) }
func (c Thumbnail) reject(err error)   { c.Reply.Reject(err) }
func (StorageNotify) reject(error)     {}
func (c Close) reject(error) {
	if c.Ack != nil {
		close(c.Ack)
	}
}

// InputEvent is host-originated input routed into the browsing context.
// Every variant satisfies content.Input so the actor can stage it there.
type InputEvent interface {
	Kind() string
}

// PointerMove reports pointer motion in viewport coordinates.
type PointerMove struct {
	X, Y float64
}

// PointerButton reports a pointer button press or release.
type PointerButton struct {
	Button  int
	Pressed bool
	X, Y    float64
}

// Scroll reports wheel movement.
type Scroll struct {
	DeltaX, DeltaY float64
}

// Key reports a key press or release.
type Key struct {
	Code    string
	Pressed bool
}

// Resize reports a host-driven viewport change.
type Resize struct {
	Viewport render.Viewport
}

func (PointerMove) Kind() string   { return "pointer_move" }
func (PointerButton) Kind() string { return "pointer_button" }
func (Scroll) Kind() string        { return "scroll" }
func (Key) Kind() string           { return "key" }
func (Resize) Kind() string        { return "resize" }
