package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	// Actor lifecycle
	ZonesActive prometheus.Gauge
	ZonesTotal  prometheus.Counter
	TabsActive  prometheus.Gauge
	TabsTotal   prometheus.Counter

	// Command bus
	CommandsTotal *prometheus.CounterVec

	// Navigation
	NavigationsTotal *prometheus.CounterVec

	// Repaint
	FramesProduced prometheus.Counter
	FramesSkipped  *prometheus.CounterVec

	// Demo host HTTP/WS surface
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	WSConnections   prometheus.Gauge
	WSEvents        prometheus.Counter

	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a metrics collector registered with the default
// Prometheus registerer.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates a metrics collector registered with reg. Tests
// pass a fresh registry so parallel packages never collide.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		startTime: time.Now(),

		ZonesActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gosub_zones_active",
			Help: "Number of zones currently registered",
		}),
		ZonesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "gosub_zones_total",
			Help: "Total number of zones created",
		}),
		TabsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gosub_tabs_active",
			Help: "Number of tabs currently alive",
		}),
		TabsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "gosub_tabs_total",
			Help: "Total number of tabs created",
		}),

		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gosub_commands_total",
				Help: "Commands processed by actor loops",
			},
			[]string{"target", "command"},
		),

		NavigationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gosub_navigations_total",
				Help: "Navigations by outcome",
			},
			[]string{"outcome"},
		),

		FramesProduced: factory.NewCounter(prometheus.CounterOpts{
			Name: "gosub_frames_produced_total",
			Help: "Frames composited by tab repaint loops",
		}),
		FramesSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gosub_frames_skipped_total",
				Help: "Repaint ticks that produced no frame",
			},
			[]string{"reason"},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gosub_http_requests_total",
				Help: "Demo host HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gosub_http_request_duration_seconds",
				Help:    "Demo host HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "path"},
		),
		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gosub_ws_connections",
			Help: "Open WebSocket event subscriptions",
		}),
		WSEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "gosub_ws_events_total",
			Help: "Events forwarded over WebSocket",
		}),

		Uptime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gosub_uptime_seconds",
			Help: "Process uptime in seconds",
		}),
	}
}

// RecordCommand counts one processed command.
func (m *Metrics) RecordCommand(target, command string) {
	m.CommandsTotal.WithLabelValues(target, command).Inc()
}

// RecordNavigation counts a navigation outcome: started, completed, failed.
func (m *Metrics) RecordNavigation(outcome string) {
	m.NavigationsTotal.WithLabelValues(outcome).Inc()
}

// RecordFrameSkipped counts a repaint tick that produced no frame.
func (m *Metrics) RecordFrameSkipped(reason string) {
	m.FramesSkipped.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest records one demo-host HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}
