/*
Package monitoring provides Prometheus metrics for the engine.

# Overview

Tracks actor lifecycle (zones and tabs created/active), command throughput,
navigation outcomes, repaint frame production, and the demo host's HTTP and
WebSocket surface.

# Usage

	metrics := monitoring.NewMetrics()

	// Gin middleware for the demo host
	router.Use(monitoring.Middleware(metrics))

	// Record engine activity
	metrics.ZonesActive.Inc()
	metrics.RecordNavigation("completed")

# Metrics Endpoint

Expose via the standard Prometheus handler:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
