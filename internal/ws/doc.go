// Package ws bridges the engine's event stream to WebSocket subscribers.
//
// The bridge is host-side plumbing layered on the event contract: it
// claims the stream's consumer end, runs a single pump loop, and fans
// copies out to any number of connections. Frame events are throttled per
// connection; lifecycle events always go through.
//
// Message shape (Server → Client):
//
//	{"type": "<event kind>", "data": {...}}
//
// Example Usage:
//
//	handler := ws.NewHandler(stream, logger, metrics, 60)
//	go handler.Pump(ctx)
//	router.GET("/events", handler.HandleConnection)
package ws
