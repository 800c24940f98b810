package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosub-io/gosub-engine/internal/events"
)

func setupBridge(t *testing.T) (*events.Stream, *websocket.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stream := events.NewStream()
	handler := NewHandler(stream, nil, nil, 60)

	router := gin.New()
	router.GET("/events", handler.HandleConnection)
	srv := httptest.NewServer(router)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = handler.Pump(ctx) }()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	t.Cleanup(func() {
		conn.Close()
		cancel()
		stream.Close()
		srv.Close()
	})

	// Let the subscriber register before events flow.
	time.Sleep(50 * time.Millisecond)
	return stream, conn
}

func TestBridgeForwardsLifecycleEvents(t *testing.T) {
	stream, conn := setupBridge(t)

	stream.Emit(events.ZoneCreated{ZoneID: "zone_01ARZ3NDEKTSV4RRFFQ69G5FAV"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env map[string]any
	require.NoError(t, conn.ReadJSON(&env))

	assert.Equal(t, string(events.KindZoneCreated), env["type"])
	data, ok := env["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "zone_01ARZ3NDEKTSV4RRFFQ69G5FAV", data["zone_id"])
}

func TestBridgeForwardsFramesInOrder(t *testing.T) {
	stream, conn := setupBridge(t)

	stream.Emit(events.FrameReady{TabID: "tab_a", BufferHandle: "h1", Epoch: 1})
	stream.Emit(events.TabCreated{TabID: "tab_a", ZoneID: "zone_a"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	// Lifecycle events are delivered before pending frames.
	var first map[string]any
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, string(events.KindTabCreated), first["type"])

	var second map[string]any
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, string(events.KindFrameReady), second["type"])
}
