package engine

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/gosub-io/gosub-engine/internal/bus"
	"github.com/gosub-io/gosub-engine/internal/content"
	"github.com/gosub-io/gosub-engine/internal/events"
	"github.com/gosub-io/gosub-engine/internal/infrastructure/config"
	"github.com/gosub-io/gosub-engine/internal/infrastructure/monitoring"
	"github.com/gosub-io/gosub-engine/internal/logging"
	"github.com/gosub-io/gosub-engine/internal/render"
	"github.com/gosub-io/gosub-engine/internal/shared/errs"
	"github.com/gosub-io/gosub-engine/internal/shared/id"
	"github.com/gosub-io/gosub-engine/internal/storage"
	"github.com/gosub-io/gosub-engine/internal/tab"
)

// zoneActor owns a set of tab actors and the zone-scoped storage
// collaborators. It runs on its own goroutine; the engine reaches it only
// through its command channel, so a slow zone never stalls the engine loop
// or its sibling zones.
type zoneActor struct {
	id       id.ZoneID
	cfg      ZoneConfig
	services ZoneServices

	cmds chan ZoneCommand
	gate *bus.Gate
	sub  storage.Subscription

	tabs  map[id.TabID]*tab.Handle
	order []id.TabID

	stream    *events.Stream
	backend   *render.BackendRef
	log       *logging.Logger
	metrics   *monitoring.Metrics
	engineCfg config.EngineConfig

	closed    bool
	closeAcks []chan struct{}
}

func spawnZone(
	zoneID id.ZoneID,
	cfg ZoneConfig,
	services ZoneServices,
	stream *events.Stream,
	backend *render.BackendRef,
	log *logging.Logger,
	metrics *monitoring.Metrics,
	engineCfg config.EngineConfig,
) *zoneActor {
	z := &zoneActor{
		id:        zoneID,
		cfg:       cfg,
		services:  services,
		cmds:      make(chan ZoneCommand, engineCfg.CommandBuffer),
		gate:      bus.NewGate(),
		sub:       services.Storage.Subscribe(),
		tabs:      make(map[id.TabID]*tab.Handle),
		stream:    stream,
		backend:   backend,
		log:       log.With(zap.String("zone_id", string(zoneID))),
		metrics:   metrics,
		engineCfg: engineCfg,
	}

	go z.run()
	return z
}

func (z *zoneActor) run() {
	z.log.Debug("zone actor started")

	for !z.closed {
		select {
		case cmd := <-z.cmds:
			z.handle(cmd)
		case change := <-z.sub:
			z.dispatchStorage(change)
		}
	}

	z.gate.Close()
	z.drain()
	for _, ack := range z.closeAcks {
		close(ack)
	}
	z.log.Debug("zone actor stopped")
}

func (z *zoneActor) handle(cmd ZoneCommand) {
	if z.metrics != nil {
		z.metrics.RecordCommand("zone", cmd.name())
	}

	switch c := cmd.(type) {
	case CreateTab:
		z.createTab(c)
	case CloseTab:
		z.closeTab(c)
	case ListTabs:
		c.Reply.Resolve(append([]id.TabID(nil), z.order...))
	case SetTitle:
		z.cfg.Title = c.Value
		c.Reply.Resolve(struct{}{})
	case SetIcon:
		z.cfg.Icon = c.Value
		c.Reply.Resolve(struct{}{})
	case SetDescription:
		z.cfg.Description = c.Value
		c.Reply.Resolve(struct{}{})
	case SetColor:
		z.cfg.Color = c.Value
		c.Reply.Resolve(struct{}{})
	case GetInfo:
		c.Reply.Resolve(ZoneInfo{
			ID:          z.id,
			Title:       z.cfg.Title,
			Icon:        z.cfg.Icon,
			Description: z.cfg.Description,
			Color:       z.cfg.Color,
			TabCount:    len(z.tabs),
		})
	case closeZone:
		z.closeAll(c)
	}
}

func (z *zoneActor) createTab(c CreateTab) {
	if z.cfg.MaxTabs > 0 && len(z.tabs) >= z.cfg.MaxTabs {
		c.Reply.Reject(errs.InvalidArgument(
			fmt.Sprintf("zone %s: tab limit %d reached", z.id, z.cfg.MaxTabs)))
		return
	}

	tabID := id.NewTabID()
	bind := z.partitionBinder(tabID)

	local, session, err := bind(blankLocation())
	if err != nil {
		c.Reply.Reject(err)
		return
	}

	fps := z.engineCfg.DefaultFPS
	if c.Config.FPS > 0 {
		fps = c.Config.FPS
	}

	handle := tab.Spawn(tab.Config{
		ID:            tabID,
		ZoneID:        z.id,
		Context:       content.NewBrowsingContext(z.services.Loader, local, session),
		Stream:        z.stream,
		Backend:       z.backend,
		Partition:     bind,
		Logger:        z.log,
		Metrics:       z.metrics,
		DefaultFPS:    fps,
		CommandBuffer: z.engineCfg.CommandBuffer,
	})

	z.tabs[tabID] = handle
	z.order = append(z.order, tabID)
	z.stream.Emit(events.TabCreated{TabID: tabID, ZoneID: z.id})

	// Fire-and-forget setup; zero replies discard the acknowledgments.
	if c.Config.Viewport.Valid() {
		_ = handle.Send(tab.SetViewport{Viewport: c.Config.Viewport})
	}
	if c.Config.InitialURL != "" {
		_ = handle.Send(tab.Navigate{URL: c.Config.InitialURL})
	}

	c.Reply.Resolve(handle)
}

// partitionBinder resolves the storage areas for a document URL under the
// zone's partition policy. The tab invokes it on every commit; the Service
// is internally synchronized, so calling it off the zone goroutine is safe.
func (z *zoneActor) partitionBinder(tabID id.TabID) func(u *url.URL) (storage.Area, storage.Area, error) {
	policy := z.cfg.PartitionPolicy
	svc := z.services.Storage
	zoneID := z.id

	return func(u *url.URL) (storage.Area, storage.Area, error) {
		part := storage.ComputePartitionKey(u, policy)
		origin := storage.OriginOf(u)
		local, err := svc.LocalFor(zoneID, tabID, part, origin)
		if err != nil {
			return nil, nil, err
		}
		return local, svc.SessionFor(zoneID, tabID, part, origin), nil
	}
}

func blankLocation() *url.URL {
	u, _ := url.Parse("about:blank")
	return u
}

func (z *zoneActor) closeTab(c CloseTab) {
	handle, ok := z.tabs[c.TabID]
	if !ok {
		c.Reply.Reject(errs.NotFound("tab", string(c.TabID)))
		return
	}

	z.shutdownTab(handle)
	z.removeTab(c.TabID)
	c.Reply.Resolve(struct{}{})
}

// shutdownTab waits for the tab's close acknowledgment up to the
// configured bound, then force-drops it with a warning.
func (z *zoneActor) shutdownTab(handle *tab.Handle) {
	ctx, cancel := context.WithTimeout(context.Background(), z.engineCfg.CloseAckTimeout)
	defer cancel()

	if err := handle.Close(ctx); err != nil {
		z.stream.Emit(events.Warning{
			Message: fmt.Sprintf("tab %s did not acknowledge close; force-dropped", handle.ID()),
		})
		z.log.Warn("tab force-dropped", zap.String("tab_id", string(handle.ID())), zap.Error(err))
	}
}

func (z *zoneActor) removeTab(tabID id.TabID) {
	delete(z.tabs, tabID)
	for i, tid := range z.order {
		if tid == tabID {
			z.order = append(z.order[:i], z.order[i+1:]...)
			break
		}
	}
	z.services.Storage.DropTab(z.id, tabID)
	z.stream.Emit(events.TabClosed{TabID: tabID, ZoneID: z.id})
}

// closeAll cascades close through every owned tab, emitting TabClosed for
// each before ZoneClosed.
func (z *zoneActor) closeAll(c closeZone) {
	if c.ack != nil {
		z.closeAcks = append(z.closeAcks, c.ack)
	}
	if z.closed {
		return
	}

	for _, tabID := range append([]id.TabID(nil), z.order...) {
		z.shutdownTab(z.tabs[tabID])
		z.removeTab(tabID)
	}

	z.services.Storage.Unsubscribe(z.sub)
	if err := z.services.Store.Flush(string(z.id), z.services.Jar); err != nil {
		z.log.Warn("cookie jar flush failed", zap.Error(err))
	}

	z.stream.Emit(events.ZoneClosed{ZoneID: z.id})
	z.closed = true
}

// dispatchStorage re-broadcasts a storage mutation to every other tab in
// the zone, excluding the tab that made it, and surfaces one host-visible
// StorageChanged event.
func (z *zoneActor) dispatchStorage(change storage.ChangeEvent) {
	if change.Zone != z.id {
		return
	}

	z.stream.Emit(events.StorageChanged{
		ZoneID: z.id,
		Area:   string(change.Scope),
		Key:    change.Key,
	})

	for _, tabID := range z.order {
		if change.SourceTab != nil && *change.SourceTab == tabID {
			continue
		}
		_ = z.tabs[tabID].NotifyStorage(change)
	}
}

func (z *zoneActor) drain() {
	for {
		select {
		case cmd := <-z.cmds:
			cmd.reject(errs.NotFound("zone", string(z.id)))
		default:
			return
		}
	}
}
