package engine

import (
	"github.com/gosub-io/gosub-engine/internal/bus"
	"github.com/gosub-io/gosub-engine/internal/render"
	"github.com/gosub-io/gosub-engine/internal/shared/id"
	"github.com/gosub-io/gosub-engine/internal/tab"
)

// Command is a message addressed to the engine loop, the single consumer
// of the engine's command channel.
type Command interface {
	name() string
	reject(err error)
}

// CreateZone registers a new zone and replies with its handle.
type CreateZone struct {
	Config   ZoneConfig
	Services ZoneServices
	Reply    bus.Reply[*ZoneHandle]
}

// SetBackend swaps the active render backend. Existing tab surfaces become
// stale and are reallocated lazily on the next render.
type SetBackend struct {
	Backend render.Backend
	Reply   bus.Reply[struct{}]
}

// CloseZoneByID cascade-closes one zone and removes it from the registry.
type CloseZoneByID struct {
	ZoneID id.ZoneID
	Reply  bus.Reply[struct{}]
}

// Shutdown cascade-closes every registered zone, then terminates the loop.
type Shutdown struct {
	Reply bus.Reply[struct{}]
}

// ZoneMsg routes a zone command through the engine's registry to the
// target zone's own channel. An unknown zone id rejects the inner command
// with NotFound.
type ZoneMsg struct {
	ZoneID id.ZoneID
	Cmd    ZoneCommand
}

func (CreateZone) name() string    { return "create_zone" }
func (SetBackend) name() string    { return "set_backend" }
func (CloseZoneByID) name() string { return "close_zone" }
func (Shutdown) name() string      { return "shutdown" }
func (ZoneMsg) name() string       { return "zone_msg" }

func (c CreateZone) reject(err error)    { c.Reply.Reject(err) }
func (c SetBackend) reject(err error)    { c.Reply.Reject(err) }
func (c CloseZoneByID) reject(err error) { c.Reply.Reject(err) }
func (c Shutdown) reject(err error)      { c.Reply.Reject(err) }
func (c ZoneMsg) reject(err error)       { c.Cmd.reject(err) }

// ZoneCommand is a message addressed to a zone actor.
type ZoneCommand interface {
	name() string
	reject(err error)
}

// CreateTab spawns a tab actor in the zone and replies with its handle.
type CreateTab struct {
	Config TabConfig
	Reply  bus.Reply[*tab.Handle]
}

// CloseTab shuts down one tab, bounded by the close acknowledgment
// timeout; an unresponsive tab is force-dropped with a warning event.
type CloseTab struct {
	TabID id.TabID
	Reply bus.Reply[struct{}]
}

// ListTabs replies with the zone's tab ids in creation order.
type ListTabs struct {
	Reply bus.Reply[[]id.TabID]
}

// SetTitle, SetIcon, SetDescription and SetColor mutate zone presentation
// state locally, with no cascading effects.
type SetTitle struct {
	Value string
	Reply bus.Reply[struct{}]
}

type SetIcon struct {
	Value string
	Reply bus.Reply[struct{}]
}

type SetDescription struct {
	Value string
	Reply bus.Reply[struct{}]
}

type SetColor struct {
	Value string
	Reply bus.Reply[struct{}]
}

// GetInfo replies with a snapshot of the zone's presentation state.
type GetInfo struct {
	Reply bus.Reply[ZoneInfo]
}

// closeZone is the engine-driven cascade close. Ack closes after every
// owned tab has acknowledged or been force-dropped.
type closeZone struct {
	ack chan struct{}
}

func (CreateTab) name() string      { return "create_tab" }
func (CloseTab) name() string       { return "close_tab" }
func (ListTabs) name() string       { return "list_tabs" }
func (SetTitle) name() string       { return "set_title" }
func (SetIcon) name() string        { return "set_icon" }
func (SetDescription) name() string { return "set_description" }
func (SetColor) name() string       { return "set_color" }
func (GetInfo) name() string        { return "get_info" }
func (closeZone) name() string      { return "close_zone" }

func (c CreateTab) reject(err error)      { c.Reply.Reject(err) }
func (c CloseTab) reject(err error)       { c.Reply.Reject(err) }
func (c ListTabs) reject(err error)       { c.Reply.Reject(err) }
func (c SetTitle) reject(err error)       { c.Reply.Reject(err) }
func (c SetIcon) reject(err error)        { c.Reply.Reject(err) }
func (c SetDescription) reject(err error) { c.Reply.Reject(err) }
func (c SetColor) reject(err error)       { c.Reply.Reject(err) }
func (c GetInfo) reject(err error)        { c.Reply.Reject(err) }
func (c closeZone) reject(error) {
	if c.ack != nil {
		close(c.ack)
	}
}
