// Package tab implements the tab actor: one goroutine owning a browsing
// context, an optional render surface, and the repaint state machine.
//
// All tab state lives inside the actor goroutine. Everything else talks to
// a tab through its Handle, which holds only the tab id and the command
// channel.
package tab

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/gosub-io/gosub-engine/internal/bus"
	"github.com/gosub-io/gosub-engine/internal/content"
	"github.com/gosub-io/gosub-engine/internal/events"
	"github.com/gosub-io/gosub-engine/internal/infrastructure/monitoring"
	"github.com/gosub-io/gosub-engine/internal/infrastructure/resilience"
	"github.com/gosub-io/gosub-engine/internal/logging"
	"github.com/gosub-io/gosub-engine/internal/render"
	"github.com/gosub-io/gosub-engine/internal/shared/errs"
	"github.com/gosub-io/gosub-engine/internal/shared/id"
	"github.com/gosub-io/gosub-engine/internal/storage"
)

const (
	defaultFPS           = 30
	defaultCommandBuffer = 64
)

// Config assembles everything a tab actor needs. ID and ZoneID are
// assigned by the owning zone.
type Config struct {
	ID     id.TabID
	ZoneID id.ZoneID

	Context *content.BrowsingContext
	Stream  *events.Stream
	Backend *render.BackendRef

	// Partition, when set, resolves the storage areas for a committed
	// document URL. The actor invokes it after each commit and rebinds
	// the browsing context to the returned areas.
	Partition func(u *url.URL) (local, session storage.Area, err error)

	Logger  *logging.Logger
	Metrics *monitoring.Metrics

	DefaultFPS    uint32
	CommandBuffer int
}

type loadResult struct {
	seq  uint64
	url  string
	page *content.Page
	err  error
}

// Tab is the actor state. It is touched only by the run goroutine.
type Tab struct {
	id     id.TabID
	zoneID id.ZoneID

	cmds  chan Command
	loads chan loadResult
	gate  *bus.Gate

	partition func(u *url.URL) (storage.Area, storage.Area, error)

	bc      *content.BrowsingContext
	stream  *events.Stream
	backend *render.BackendRef
	log     *logging.Logger
	metrics *monitoring.Metrics
	breaker *resilience.Breaker

	state           State
	title           string
	viewport        render.Viewport
	surface         render.Surface
	surfaceGen      uint64
	epoch           uint64
	fps             uint32
	cfgFPS          uint32
	resumeAfterLoad bool

	loadSeq    uint64
	loadCancel context.CancelFunc

	storageSeen int

	ticker *time.Ticker

	closeAcks []chan struct{}
}

// Spawn starts a tab actor and returns its handle.
func Spawn(cfg Config) *Handle {
	if cfg.DefaultFPS == 0 {
		cfg.DefaultFPS = defaultFPS
	}
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = defaultCommandBuffer
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.Context == nil {
		cfg.Context = content.NewBrowsingContext(content.NewLoader(nil), nil, nil)
	}

	t := &Tab{
		id:        cfg.ID,
		zoneID:    cfg.ZoneID,
		cmds:      make(chan Command, cfg.CommandBuffer),
		loads:     make(chan loadResult),
		gate:      bus.NewGate(),
		partition: cfg.Partition,
		bc:        cfg.Context,
		stream:    cfg.Stream,
		backend:   cfg.Backend,
		log: cfg.Logger.With(
			zap.String("tab_id", string(cfg.ID)),
			zap.String("zone_id", string(cfg.ZoneID)),
		),
		metrics: cfg.Metrics,
		breaker: resilience.New("render:"+string(cfg.ID), resilience.Settings{
			FailureThreshold: 5,
			Cooldown:         5 * time.Second,
		}),
		state:  StateCreated,
		title:  cfg.Context.Page().Title(),
		cfgFPS: cfg.DefaultFPS,
	}

	go t.run()

	return &Handle{id: t.id, cmds: t.cmds, gate: t.gate}
}

func (t *Tab) run() {
	if t.metrics != nil {
		t.metrics.TabsTotal.Inc()
		t.metrics.TabsActive.Inc()
	}
	t.log.Debug("tab actor started")

	for t.state != StateClosed {
		select {
		case cmd := <-t.cmds:
			t.handle(cmd)
		case res := <-t.loads:
			t.completeLoad(res)
		case <-t.tick():
			t.repaint()
		}
	}

	t.gate.Close()
	t.drain()
	for _, ack := range t.closeAcks {
		close(ack)
	}
	if t.metrics != nil {
		t.metrics.TabsActive.Dec()
	}
	t.log.Debug("tab actor stopped")
}

// tick returns the repaint channel, or nil (blocking forever) when the
// repaint loop is not running.
func (t *Tab) tick() <-chan time.Time {
	if t.ticker == nil {
		return nil
	}
	return t.ticker.C
}

func (t *Tab) handle(cmd Command) {
	if t.metrics != nil {
		t.metrics.RecordCommand("tab", cmd.name())
	}

	switch c := cmd.(type) {
	case Navigate:
		t.startLoad(c.URL, c.Reply)
	case Reload:
		t.startLoad(t.bc.Page().URL(), c.Reply)
	case StopLoading:
		t.stopLoading(c.Reply)
	case SetViewport:
		if err := t.setViewport(c.Viewport); err != nil {
			c.Reply.Reject(err)
		} else {
			c.Reply.Resolve(struct{}{})
		}
	case ResumeDrawing:
		t.resumeDrawing(c.FPS)
	case SuspendDrawing:
		t.suspendDrawing()
	case HandleEvent:
		t.handleInput(c.Event)
	case Execute:
		t.execute(c)
	case Thumbnail:
		c.Reply.Resolve(t.thumbnail())
	case StorageNotify:
		t.storageSeen++
		t.log.Debug("storage change received",
			zap.String("scope", string(c.Change.Scope)),
			zap.String("key", c.Change.Key),
		)
	case Close:
		t.close(c)
	}
}

func (t *Tab) startLoad(raw string, reply bus.Reply[struct{}]) {
	u, err := content.ParseURL(raw)
	if err != nil {
		reply.Reject(err)
		return
	}

	t.cancelLoad()
	switch t.state {
	case StateActive:
		t.resumeAfterLoad = true
		t.stopTicker()
	case StateSuspended:
		t.resumeAfterLoad = false
	}
	t.state = StateLoading

	// Started fires synchronously with acceptance; the outcome arrives
	// later as Completed or Failed, never as a delayed call error.
	t.stream.Emit(events.NavigationStarted{TabID: t.id, URL: u.String()})
	if t.metrics != nil {
		t.metrics.RecordNavigation("started")
	}
	reply.Resolve(struct{}{})

	ctx, cancel := context.WithCancel(context.Background())
	t.loadCancel = cancel
	t.loadSeq++
	seq := t.loadSeq
	loader := t.bc.Loader()

	go func() {
		page, err := loader.Load(ctx, u)
		select {
		case t.loads <- loadResult{seq: seq, url: u.String(), page: page, err: err}:
		case <-t.gate.Done():
		}
	}()
}

func (t *Tab) completeLoad(res loadResult) {
	// A superseded or cancelled load; its result is void.
	if res.seq != t.loadSeq || t.state != StateLoading {
		return
	}
	t.loadCancel = nil

	if res.err != nil {
		t.state = StateFailed
		t.resumeAfterLoad = false
		t.stream.Emit(events.NavigationFailed{TabID: t.id, URL: res.url, Reason: res.err.Error()})
		if t.metrics != nil {
			t.metrics.RecordNavigation("failed")
		}
		t.log.Warn("navigation failed", zap.String("url", res.url), zap.Error(res.err))
		return
	}

	t.bc.Commit(res.page)
	t.rebindStorage(res.page.Location())
	if t.resumeAfterLoad {
		t.resumeAfterLoad = false
		t.setActive(t.fps)
	} else {
		t.state = StateLoaded
	}

	t.stream.Emit(events.NavigationCompleted{TabID: t.id, URL: res.url})
	if t.metrics != nil {
		t.metrics.RecordNavigation("completed")
	}

	if title := res.page.Title(); title != t.title {
		t.title = title
		t.stream.Emit(events.TabTitleChanged{TabID: t.id, Title: title})
	}
}

func (t *Tab) stopLoading(reply bus.Reply[struct{}]) {
	if t.state == StateLoading {
		t.cancelLoad()
		if t.resumeAfterLoad {
			t.resumeAfterLoad = false
			t.setActive(t.fps)
		} else {
			t.state = StateLoaded
		}
	}
	reply.Resolve(struct{}{})
}

// rebindStorage re-resolves the storage areas for a committed document.
// The zone's partition binder decides whether the new origin lands in a
// different partition.
func (t *Tab) rebindStorage(u *url.URL) {
	if t.partition == nil || u == nil {
		return
	}
	local, session, err := t.partition(u)
	if err != nil {
		t.log.Warn("storage rebind failed", zap.String("url", u.String()), zap.Error(err))
		return
	}
	t.bc.BindStorage(local, session)
}

func (t *Tab) cancelLoad() {
	if t.loadCancel != nil {
		t.loadCancel()
		t.loadCancel = nil
	}
	t.loadSeq++
}

func (t *Tab) setViewport(vp render.Viewport) error {
	if !vp.Valid() {
		return errs.InvalidArgument("zero-sized viewport")
	}
	resized := vp.Width != t.viewport.Width || vp.Height != t.viewport.Height
	t.viewport = vp
	if resized && t.surface != nil {
		// The new surface is allocated lazily on the next repaint.
		t.surface.Release()
		t.surface = nil
	}
	return nil
}

func (t *Tab) resumeDrawing(fps uint32) {
	if t.state.terminal() {
		return
	}
	if fps == 0 {
		fps = t.cfgFPS
	}
	t.fps = fps
	if t.state == StateLoading {
		t.resumeAfterLoad = true
		return
	}
	t.setActive(fps)
}

func (t *Tab) suspendDrawing() {
	switch t.state {
	case StateLoading:
		t.resumeAfterLoad = false
	case StateActive:
		t.state = StateSuspended
		t.stopTicker()
	}
}

func (t *Tab) setActive(fps uint32) {
	if fps == 0 {
		fps = t.cfgFPS
	}
	t.state = StateActive
	t.stopTicker()
	t.ticker = time.NewTicker(time.Second / time.Duration(fps))
}

func (t *Tab) stopTicker() {
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
}

func (t *Tab) handleInput(ev InputEvent) {
	if t.state.terminal() {
		return
	}
	switch e := ev.(type) {
	case Resize:
		if err := t.setViewport(e.Viewport); err != nil {
			t.log.Debug("resize ignored", zap.Error(err))
		}
	default:
		t.bc.AcceptInput(ev)
		t.log.Debug("input staged", zap.String("event", ev.Kind()))
	}
}

func (t *Tab) execute(c Execute) {
	switch c.Directive {
	case "state":
		c.Reply.Resolve(t.state.String())
	case "url":
		c.Reply.Resolve(t.bc.Page().URL())
	case "title":
		c.Reply.Resolve(t.title)
	case "epoch":
		c.Reply.Resolve(strconv.FormatUint(t.epoch, 10))
	case "storage_changes":
		c.Reply.Resolve(strconv.Itoa(t.storageSeen))
	default:
		c.Reply.Reject(errs.InvalidArgument("unknown directive: " + c.Directive))
	}
}

func (t *Tab) thumbnail() render.Buffer {
	if t.surface == nil {
		return render.Buffer{}
	}
	buf, ok := t.surface.Snapshot()
	if !ok {
		return render.Buffer{}
	}
	return buf
}

func (t *Tab) repaint() {
	if t.state != StateActive || t.backend == nil {
		return
	}

	backend, gen := t.backend.Get()
	if backend == nil {
		t.skipFrame("no_backend")
		return
	}
	if !t.viewport.Valid() {
		t.skipFrame("no_viewport")
		return
	}

	// A backend swap invalidates surfaces created against the old one.
	if t.surface != nil && gen != t.surfaceGen {
		t.surface.Release()
		t.surface = nil
	}
	if t.surface == nil {
		surface, err := backend.CreateSurface(
			render.SurfaceSize{Width: t.viewport.Width, Height: t.viewport.Height},
			render.PresentFifo,
		)
		if err != nil {
			t.skipFrame("surface_error")
			t.log.Warn("surface allocation failed", zap.Error(err))
			return
		}
		t.surface = surface
		t.surfaceGen = gen
	}

	var buf render.Buffer
	err := t.breaker.Execute(func() error {
		rendered, err := backend.Render(context.Background(), t.bc.Page(), t.surface)
		if err != nil {
			return err
		}
		buf = rendered
		return nil
	})
	if err != nil {
		// Recoverable: skip this frame, retry on the next tick.
		if err == resilience.ErrOpen {
			t.skipFrame("breaker_open")
		} else {
			t.skipFrame("render_error")
			t.log.Warn("render failed", zap.Error(err))
		}
		return
	}

	t.epoch++
	t.stream.Emit(events.FrameReady{TabID: t.id, BufferHandle: buf.Handle, Epoch: t.epoch})
	if t.metrics != nil {
		t.metrics.FramesProduced.Inc()
	}
}

func (t *Tab) skipFrame(reason string) {
	if t.metrics != nil {
		t.metrics.RecordFrameSkipped(reason)
	}
}

func (t *Tab) close(c Close) {
	if c.Ack != nil {
		t.closeAcks = append(t.closeAcks, c.Ack)
	}
	if t.state == StateClosed {
		return
	}
	t.state = StateClosing
	t.cancelLoad()
	t.stopTicker()
	if t.surface != nil {
		t.surface.Release()
		t.surface = nil
	}
	t.state = StateClosed
}

// drain rejects whatever slipped into the command channel before done
// closed.
func (t *Tab) drain() {
	for {
		select {
		case cmd := <-t.cmds:
			cmd.reject(closedErr(t.id))
		default:
			return
		}
	}
}
