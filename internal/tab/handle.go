package tab

import (
	"context"
	"fmt"

	"github.com/gosub-io/gosub-engine/internal/bus"
	"github.com/gosub-io/gosub-engine/internal/render"
	"github.com/gosub-io/gosub-engine/internal/shared/errs"
	"github.com/gosub-io/gosub-engine/internal/shared/id"
	"github.com/gosub-io/gosub-engine/internal/storage"
)

// Handle is the client-side proxy for a tab actor. It holds only the tab
// id, the command channel, and the submission gate, never actor state.
type Handle struct {
	id   id.TabID
	cmds chan<- Command
	gate *bus.Gate
}

// ID returns the tab id.
func (h *Handle) ID() id.TabID { return h.id }

func closedErr(tabID id.TabID) error {
	return fmt.Errorf("tab %s: %w", tabID, errs.ErrAlreadyClosed)
}

// Send enqueues a command, failing immediately once the actor is gone.
func (h *Handle) Send(cmd Command) error {
	if !h.gate.Enter() {
		return closedErr(h.id)
	}
	defer h.gate.Exit()

	select {
	case h.cmds <- cmd:
		return nil
	case <-h.gate.Done():
		return closedErr(h.id)
	}
}

func (h *Handle) call(ctx context.Context, build func(bus.Reply[struct{}]) Command) error {
	reply := bus.NewReply[struct{}]()
	if err := h.Send(build(reply)); err != nil {
		return err
	}
	_, err := reply.Await(ctx)
	return err
}

// Navigate starts loading url. The call resolves on acceptance; the load
// outcome is reported on the event stream.
func (h *Handle) Navigate(ctx context.Context, url string) error {
	return h.call(ctx, func(r bus.Reply[struct{}]) Command {
		return Navigate{URL: url, Reply: r}
	})
}

// Reload restarts the load of the committed document.
func (h *Handle) Reload(ctx context.Context) error {
	return h.call(ctx, func(r bus.Reply[struct{}]) Command {
		return Reload{Reply: r}
	})
}

// StopLoading cancels an in-flight load.
func (h *Handle) StopLoading(ctx context.Context) error {
	return h.call(ctx, func(r bus.Reply[struct{}]) Command {
		return StopLoading{Reply: r}
	})
}

// SetViewport resizes the logical viewport.
func (h *Handle) SetViewport(ctx context.Context, vp render.Viewport) error {
	return h.call(ctx, func(r bus.Reply[struct{}]) Command {
		return SetViewport{Viewport: vp, Reply: r}
	})
}

// ResumeDrawing starts the repaint loop at fps frames per second; zero
// selects the configured default.
func (h *Handle) ResumeDrawing(fps uint32) error {
	return h.Send(ResumeDrawing{FPS: fps})
}

// SuspendDrawing halts the repaint loop.
func (h *Handle) SuspendDrawing() error {
	return h.Send(SuspendDrawing{})
}

// HandleEvent routes host input into the browsing context.
func (h *Handle) HandleEvent(ev InputEvent) error {
	return h.Send(HandleEvent{Event: ev})
}

// Execute runs a host directive and returns its textual result.
func (h *Handle) Execute(ctx context.Context, directive string) (string, error) {
	reply := bus.NewReply[string]()
	if err := h.Send(Execute{Directive: directive, Reply: reply}); err != nil {
		return "", err
	}
	return reply.Await(ctx)
}

// Thumbnail returns the last composited frame, or false if none exists.
func (h *Handle) Thumbnail(ctx context.Context) (render.Buffer, bool, error) {
	reply := bus.NewReply[render.Buffer]()
	if err := h.Send(Thumbnail{Reply: reply}); err != nil {
		return render.Buffer{}, false, err
	}
	buf, err := reply.Await(ctx)
	if err != nil {
		return render.Buffer{}, false, err
	}
	return buf, buf.Handle != "", nil
}

// NotifyStorage re-broadcasts a same-zone storage mutation into this tab.
func (h *Handle) NotifyStorage(change storage.ChangeEvent) error {
	return h.Send(StorageNotify{Change: change})
}

// Close asks the actor to shut down and waits for acknowledgment until
// ctx expires. The enqueue itself honors ctx too, so a wedged actor with
// a full command buffer cannot stall the caller past its bound. A handle
// that is already closed acknowledges immediately.
func (h *Handle) Close(ctx context.Context) error {
	if !h.gate.Enter() {
		return nil
	}

	ack := make(chan struct{})
	select {
	case h.cmds <- Close{Ack: ack}:
		h.gate.Exit()
	case <-h.gate.Done():
		h.gate.Exit()
		return nil
	case <-ctx.Done():
		h.gate.Exit()
		return ctx.Err()
	}

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the actor has exited.
func (h *Handle) Done() <-chan struct{} { return h.gate.Done() }
