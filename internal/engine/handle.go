package engine

import (
	"context"
	"fmt"

	"github.com/gosub-io/gosub-engine/internal/bus"
	"github.com/gosub-io/gosub-engine/internal/render"
	"github.com/gosub-io/gosub-engine/internal/shared/errs"
	"github.com/gosub-io/gosub-engine/internal/shared/id"
	"github.com/gosub-io/gosub-engine/internal/tab"
)

func notRunningErr() error {
	return fmt.Errorf("engine: %w", errs.ErrNotRunning)
}

// EngineHandle is the host's proxy to the engine loop.
type EngineHandle struct {
	cmds chan<- Command
	gate *bus.Gate
}

func (h *EngineHandle) send(cmd Command) error {
	if !h.gate.Enter() {
		return notRunningErr()
	}
	defer h.gate.Exit()

	select {
	case h.cmds <- cmd:
		return nil
	case <-h.gate.Done():
		return notRunningErr()
	}
}

// CreateZone registers a new zone and returns its handle. Zero-value
// services are filled with in-memory defaults.
func (h *EngineHandle) CreateZone(ctx context.Context, cfg ZoneConfig, services ZoneServices) (*ZoneHandle, error) {
	reply := bus.NewReply[*ZoneHandle]()
	if err := h.send(CreateZone{Config: cfg, Services: services, Reply: reply}); err != nil {
		return nil, err
	}
	return reply.Await(ctx)
}

// SetBackend swaps the active render backend.
func (h *EngineHandle) SetBackend(ctx context.Context, backend render.Backend) error {
	reply := bus.NewReply[struct{}]()
	if err := h.send(SetBackend{Backend: backend, Reply: reply}); err != nil {
		return err
	}
	_, err := reply.Await(ctx)
	return err
}

// CloseZone cascade-closes one zone.
func (h *EngineHandle) CloseZone(ctx context.Context, zoneID id.ZoneID) error {
	reply := bus.NewReply[struct{}]()
	if err := h.send(CloseZoneByID{ZoneID: zoneID, Reply: reply}); err != nil {
		return err
	}
	_, err := reply.Await(ctx)
	return err
}

// Shutdown cascade-closes every zone and terminates the engine loop.
func (h *EngineHandle) Shutdown(ctx context.Context) error {
	reply := bus.NewReply[struct{}]()
	if err := h.send(Shutdown{Reply: reply}); err != nil {
		return err
	}
	_, err := reply.Await(ctx)
	return err
}

// Done is closed once the engine loop has exited.
func (h *EngineHandle) Done() <-chan struct{} { return h.gate.Done() }

// ZoneHandle is the host's proxy to one zone. It carries the engine-level
// sender; zone commands route through the engine's registry lookup, so a
// handle to a closed zone resolves every call to NotFound.
type ZoneHandle struct {
	zoneID id.ZoneID
	cmds   chan<- Command
	gate   *bus.Gate
}

// ID returns the zone id.
func (h *ZoneHandle) ID() id.ZoneID { return h.zoneID }

func (h *ZoneHandle) send(cmd ZoneCommand) error {
	if !h.gate.Enter() {
		return notRunningErr()
	}
	defer h.gate.Exit()

	select {
	case h.cmds <- ZoneMsg{ZoneID: h.zoneID, Cmd: cmd}:
		return nil
	case <-h.gate.Done():
		return notRunningErr()
	}
}

func (h *ZoneHandle) call(ctx context.Context, build func(bus.Reply[struct{}]) ZoneCommand) error {
	reply := bus.NewReply[struct{}]()
	if err := h.send(build(reply)); err != nil {
		return err
	}
	_, err := reply.Await(ctx)
	return err
}

// CreateTab spawns a tab in this zone and returns its handle.
func (h *ZoneHandle) CreateTab(ctx context.Context, cfg TabConfig) (*tab.Handle, error) {
	reply := bus.NewReply[*tab.Handle]()
	if err := h.send(CreateTab{Config: cfg, Reply: reply}); err != nil {
		return nil, err
	}
	return reply.Await(ctx)
}

// CloseTab shuts down one tab in this zone.
func (h *ZoneHandle) CloseTab(ctx context.Context, tabID id.TabID) error {
	return h.call(ctx, func(r bus.Reply[struct{}]) ZoneCommand {
		return CloseTab{TabID: tabID, Reply: r}
	})
}

// ListTabs returns the zone's tab ids in creation order.
func (h *ZoneHandle) ListTabs(ctx context.Context) ([]id.TabID, error) {
	reply := bus.NewReply[[]id.TabID]()
	if err := h.send(ListTabs{Reply: reply}); err != nil {
		return nil, err
	}
	return reply.Await(ctx)
}

// SetTitle updates the zone title.
func (h *ZoneHandle) SetTitle(ctx context.Context, title string) error {
	return h.call(ctx, func(r bus.Reply[struct{}]) ZoneCommand {
		return SetTitle{Value: title, Reply: r}
	})
}

// SetIcon updates the zone icon.
func (h *ZoneHandle) SetIcon(ctx context.Context, icon string) error {
	return h.call(ctx, func(r bus.Reply[struct{}]) ZoneCommand {
		return SetIcon{Value: icon, Reply: r}
	})
}

// SetDescription updates the zone description.
func (h *ZoneHandle) SetDescription(ctx context.Context, description string) error {
	return h.call(ctx, func(r bus.Reply[struct{}]) ZoneCommand {
		return SetDescription{Value: description, Reply: r}
	})
}

// SetColor updates the zone color.
func (h *ZoneHandle) SetColor(ctx context.Context, color string) error {
	return h.call(ctx, func(r bus.Reply[struct{}]) ZoneCommand {
		return SetColor{Value: color, Reply: r}
	})
}

// Info returns a snapshot of the zone's presentation state.
func (h *ZoneHandle) Info(ctx context.Context) (ZoneInfo, error) {
	reply := bus.NewReply[ZoneInfo]()
	if err := h.send(GetInfo{Reply: reply}); err != nil {
		return ZoneInfo{}, err
	}
	return reply.Await(ctx)
}
