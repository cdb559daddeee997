package http

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appmarketdata "quotesignal/internal/application/service/marketdata"
	"quotesignal/internal/infrastructure/broker"

	"github.com/gorilla/websocket"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialLive(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/signals/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestLiveFeedForwardsBusPayloads(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	hub := NewHub(logger)
	srv := httptest.NewServer(NewHandler(appmarketdata.NewService(nil, nil), nil, 0, hub))
	defer srv.Close()

	conn := dialLive(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	bus := broker.NewMemoryBus(4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx, bus) }()

	payload := `{"symbol":"NSE:SBIN-EQ","signal":"Buy Signal"}`
	require.NoError(t, bus.TryPublish(context.Background(), []byte(payload)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(msg))

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 0, hub.Clients())
}

func TestLiveFeedStopsOnClosedSubscription(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	hub := NewHub(logger)

	bus := broker.NewMemoryBus(1)
	bus.Close()

	err := hub.Run(context.Background(), bus)
	assert.Error(t, err)
}

func TestLiveFeedUnregistersDisconnectedClients(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	hub := NewHub(logger)
	srv := httptest.NewServer(NewHandler(appmarketdata.NewService(nil, nil), nil, 0, hub))
	defer srv.Close()

	conn := dialLive(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)

	hub.Broadcast([]byte(`{}`))
}

func TestLiveRouteAbsentWithoutHub(t *testing.T) {
	rec := do(newTestHandler(nil, nil), "/api/v1/signals/stream")
	assert.Equal(t, 404, rec.Code)
}
