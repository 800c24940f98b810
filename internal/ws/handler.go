package ws

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gosub-io/gosub-engine/internal/events"
	"github.com/gosub-io/gosub-engine/internal/infrastructure/monitoring"
	"github.com/gosub-io/gosub-engine/internal/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// sendBuffer bounds per-connection pending envelopes.
const sendBuffer = 64

// Envelope is the wire shape of a forwarded event.
type Envelope struct {
	Type events.Kind  `json:"type"`
	Data events.Event `json:"data"`
}

// Handler fans the engine's event stream out to WebSocket subscribers.
// The stream's single consumer is the Pump loop; connections get copies.
type Handler struct {
	stream  *events.Stream
	log     *logging.Logger
	metrics *monitoring.Metrics

	// frameRate caps frame events forwarded per connection per second.
	// Lifecycle events are never throttled.
	frameRate float64

	mu    sync.Mutex
	conns map[*client]struct{}
}

type client struct {
	ws      *websocket.Conn
	send    chan Envelope
	limiter *rate.Limiter
}

// NewHandler creates a WebSocket bridge over the claimed event stream.
func NewHandler(stream *events.Stream, log *logging.Logger, metrics *monitoring.Metrics, frameRate float64) *Handler {
	if log == nil {
		log = logging.NewNop()
	}
	if frameRate <= 0 {
		frameRate = 60
	}
	return &Handler{
		stream:    stream,
		log:       log.Named("ws"),
		metrics:   metrics,
		frameRate: frameRate,
		conns:     make(map[*client]struct{}),
	}
}

// Pump consumes the event stream and broadcasts to subscribers. It runs
// until the stream closes or ctx ends.
func (h *Handler) Pump(ctx context.Context) error {
	for {
		ev, err := h.stream.Next(ctx)
		if err != nil {
			return err
		}
		h.broadcast(ev)
	}
}

func (h *Handler) broadcast(ev events.Event) {
	isFrame := ev.Kind() == events.KindFrameReady
	env := Envelope{Type: ev.Kind(), Data: ev}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.conns {
		if isFrame && !c.limiter.Allow() {
			continue
		}
		// Never block the pump on a slow subscriber.
		select {
		case c.send <- env:
			if h.metrics != nil {
				h.metrics.WSEvents.Inc()
			}
		default:
		}
	}
}

// HandleConnection upgrades the request and subscribes it to the event
// feed until the peer disconnects.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub := &client{
		ws:      conn,
		send:    make(chan Envelope, sendBuffer),
		limiter: rate.NewLimiter(rate.Limit(h.frameRate), int(h.frameRate)),
	}

	h.mu.Lock()
	h.conns[sub] = struct{}{}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
	}
	h.log.Info("subscriber connected", zap.String("remote", conn.RemoteAddr().String()))

	defer func() {
		h.mu.Lock()
		delete(h.conns, sub)
		h.mu.Unlock()
		if h.metrics != nil {
			h.metrics.WSConnections.Dec()
		}
		h.log.Info("subscriber disconnected", zap.String("remote", conn.RemoteAddr().String()))
	}()

	done := make(chan struct{})

	// Reader: only expected traffic is pings and the close handshake.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case env := <-sub.send:
			if err := conn.WriteJSON(env); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
