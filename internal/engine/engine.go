// Package engine implements the orchestration core: the engine command
// loop and zone registry, the zone actors it supervises, and the handles
// hosts use to reach them.
//
// The registry is confined to the engine loop, the single consumer of the
// engine command channel. Handles never touch actor state; they hold ids
// and channel senders and route everything through the bus.
package engine

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/gosub-io/gosub-engine/internal/bus"
	"github.com/gosub-io/gosub-engine/internal/events"
	"github.com/gosub-io/gosub-engine/internal/infrastructure/config"
	"github.com/gosub-io/gosub-engine/internal/infrastructure/monitoring"
	"github.com/gosub-io/gosub-engine/internal/logging"
	"github.com/gosub-io/gosub-engine/internal/render"
	"github.com/gosub-io/gosub-engine/internal/shared/errs"
	"github.com/gosub-io/gosub-engine/internal/shared/id"
)

// Engine owns the zone registry and runs the top-level command loop.
type Engine struct {
	cfg config.EngineConfig

	cmds   chan Command
	gate   *bus.Gate
	stream *events.Stream

	backend *render.BackendRef

	zones map[id.ZoneID]*zoneActor
	order []id.ZoneID

	log     *logging.Logger
	metrics *monitoring.Metrics

	streamClaimed atomic.Bool
	started       atomic.Bool
}

// Option customizes engine construction.
type Option func(*Engine)

// WithLogger sets the logger shared by the engine and its actors.
func WithLogger(log *logging.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an engine wired to the given backend and returns it together
// with the handle hosts use to drive it. Run must be started on its own
// goroutine before any call completes; calls made earlier queue in the
// command channel and complete once the loop drains it.
func New(cfg *config.Config, backend render.Backend, opts ...Option) (*Engine, *EngineHandle) {
	if cfg == nil {
		cfg = config.Default()
	}

	e := &Engine{
		cfg:     cfg.Engine,
		cmds:    make(chan Command, cfg.Engine.CommandBuffer),
		gate:    bus.NewGate(),
		stream:  events.NewStream(),
		backend: render.NewBackendRef(backend),
		zones:   make(map[id.ZoneID]*zoneActor),
		log:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.Named("engine")

	return e, &EngineHandle{cmds: e.cmds, gate: e.gate}
}

// Events returns the consumer end of the event stream. It can be claimed
// exactly once; the producer end is shared with every zone and tab actor.
func (e *Engine) Events() (*events.Stream, error) {
	if e.streamClaimed.Swap(true) {
		return nil, errs.InvalidArgument("event stream already claimed")
	}
	return e.stream, nil
}

// Run executes the engine loop until Shutdown. It is the single consumer
// of the engine command channel and must run on its own goroutine.
func (e *Engine) Run() error {
	if e.started.Swap(true) {
		return errs.InvalidArgument("engine already running")
	}
	e.log.Info("engine loop started")

	for cmd := range e.cmds {
		if e.metrics != nil {
			e.metrics.RecordCommand("engine", cmd.name())
		}

		switch c := cmd.(type) {
		case CreateZone:
			e.createZone(c)
		case SetBackend:
			e.setBackend(c)
		case ZoneMsg:
			e.forward(c)
		case CloseZoneByID:
			e.closeZone(c)
		case Shutdown:
			e.shutdown()
			c.Reply.Resolve(struct{}{})
			e.gate.Close()
			e.drain()
			e.log.Info("engine loop stopped")
			return nil
		}
	}
	return nil
}

func (e *Engine) createZone(c CreateZone) {
	zoneID := id.NewZoneID()

	cfg := c.Config
	if cfg.Color == "" {
		cfg.Color = colorForZone(zoneID)
	}
	if cfg.MaxTabs == 0 {
		cfg.MaxTabs = e.cfg.MaxTabs
	}

	z := spawnZone(zoneID, cfg, c.Services.withDefaults(zoneID), e.stream, e.backend, e.log, e.metrics, e.cfg)
	e.zones[zoneID] = z
	e.order = append(e.order, zoneID)

	if e.metrics != nil {
		e.metrics.ZonesTotal.Inc()
		e.metrics.ZonesActive.Inc()
	}
	e.stream.Emit(events.ZoneCreated{ZoneID: zoneID})
	e.log.Info("zone created", zap.String("zone_id", string(zoneID)))

	c.Reply.Resolve(&ZoneHandle{zoneID: zoneID, cmds: e.cmds, gate: e.gate})
}

func (e *Engine) setBackend(c SetBackend) {
	old := e.backend.Swap(c.Backend)

	oldName := ""
	if old != nil {
		oldName = old.Name()
	}
	newName := ""
	if c.Backend != nil {
		newName = c.Backend.Name()
	}

	e.stream.Emit(events.BackendChanged{Old: oldName, New: newName})
	e.log.Info("render backend swapped", zap.String("old", oldName), zap.String("new", newName))
	c.Reply.Resolve(struct{}{})
}

// forward routes a zone command to the target zone's own channel, never
// handling it inline.
func (e *Engine) forward(c ZoneMsg) {
	z, ok := e.zones[c.ZoneID]
	if !ok || !z.gate.Enter() {
		c.Cmd.reject(errs.NotFound("zone", string(c.ZoneID)))
		return
	}
	defer z.gate.Exit()

	select {
	case z.cmds <- c.Cmd:
	case <-z.gate.Done():
		c.Cmd.reject(errs.NotFound("zone", string(c.ZoneID)))
	}
}

func (e *Engine) closeZone(c CloseZoneByID) {
	z, ok := e.zones[c.ZoneID]
	if !ok {
		c.Reply.Reject(errs.NotFound("zone", string(c.ZoneID)))
		return
	}

	e.teardownZone(z)
	e.removeZone(c.ZoneID)
	c.Reply.Resolve(struct{}{})
}

// shutdown cascade-closes every registered zone, oldest first, then
// finishes the event stream.
func (e *Engine) shutdown() {
	for _, zoneID := range append([]id.ZoneID(nil), e.order...) {
		e.teardownZone(e.zones[zoneID])
		e.removeZone(zoneID)
	}
	e.stream.Close()
}

func (e *Engine) teardownZone(z *zoneActor) {
	if !z.gate.Enter() {
		return
	}

	ack := make(chan struct{})
	select {
	case z.cmds <- closeZone{ack: ack}:
		z.gate.Exit()
		// Zone-side teardown is bounded per tab, so this wait is finite.
		<-ack
	case <-z.gate.Done():
		z.gate.Exit()
	}
}

func (e *Engine) removeZone(zoneID id.ZoneID) {
	delete(e.zones, zoneID)
	for i, zid := range e.order {
		if zid == zoneID {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	if e.metrics != nil {
		e.metrics.ZonesActive.Dec()
	}
}

func (e *Engine) drain() {
	for {
		select {
		case cmd := <-e.cmds:
			cmd.reject(errs.ErrNotRunning)
		default:
			return
		}
	}
}
