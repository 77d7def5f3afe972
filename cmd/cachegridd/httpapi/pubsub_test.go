package httpapi

import (
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/cachegrid/infrastructure/testutil"
	"github.com/R3E-Network/cachegrid/internal/engine"
)

// TestHandlePubSubStreamsPublishedMessages exercises the real WebSocket
// upgrade end to end: httptest.ResponseRecorder can't perform one, so this
// uses a real listener via testutil.NewHTTPTestServer.
func TestHandlePubSubStreamsPublishedMessages(t *testing.T) {
	svc := newTestService(t, "")
	server := testutil.NewHTTPTestServer(t, svc.Router())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/cache/pubsub?namespace=default&channel=updates"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	eng := svc.cfg.Provisioning.EngineForNamespace("default")
	require.NotNil(t, eng)

	// Give the subscription goroutine a moment to register before publishing.
	time.Sleep(50 * time.Millisecond)
	eng.Publish("updates", []byte("hello"), "test-publisher")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame pubsubFrame
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, "updates", frame.Channel)
	require.Equal(t, "hello", frame.Message)
}

func TestHandlePubSubRequiresChannel(t *testing.T) {
	svc := newTestService(t, "")
	rec := doJSON(t, svc.Router(), "GET", "/cache/pubsub?namespace=default", nil, "")
	require.Equal(t, 400, rec.Code)
}
