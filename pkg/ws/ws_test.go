package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startHub(t *testing.T) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(stopped)
	}()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, r.URL.Query().Get("topic"), []byte(`{"hello":"`+r.URL.Query().Get("topic")+`"}`))
	}))

	stop := func() {
		cancel()
		<-stopped
		srv.Close()
	}
	return hub, srv, stop
}

func dial(t *testing.T, srv *httptest.Server, topic string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?topic=" + topic
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(msg)
}

func TestPublishReachesOnlyTopicSubscribers(t *testing.T) {
	hub, srv, stop := startHub(t)
	defer stop()

	a := dial(t, srv, "order:1")
	defer a.Close()
	b := dial(t, srv, "order:2")
	defer b.Close()

	assert.Equal(t, `{"hello":"order:1"}`, read(t, a))
	assert.Equal(t, `{"hello":"order:2"}`, read(t, b))

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.Publish("order:1", []byte(`{"status":"PAID"}`))
	assert.Equal(t, `{"status":"PAID"}`, read(t, a))

	hub.Publish("order:2", []byte(`{"status":"PAYMENT_FAILED"}`))
	assert.Equal(t, `{"status":"PAYMENT_FAILED"}`, read(t, b))
}

func TestClientDisconnectUnregisters(t *testing.T) {
	hub, srv, stop := startHub(t)
	defer stop()

	c := dial(t, srv, "order:9")
	read(t, c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, c.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStoppingHubClosesClients(t *testing.T) {
	hub, srv, stop := startHub(t)

	c := dial(t, srv, "order:3")
	defer c.Close()
	read(t, c)

	stop()
	assert.Zero(t, hub.ClientCount())

	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := c.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
