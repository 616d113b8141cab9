// Package ws serves topic-based WebSocket feeds using gorilla/websocket.
//
//	hub := ws.NewHub()
//	go hub.Run(ctx)
//
//	// In a handler:
//	hub.Serve(w, r, "order:42", initialMessage)
//
//	// From anywhere:
//	hub.Publish("order:42", data)
//
// Clients only receive; inbound frames are read to process control messages
// and then discarded.
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shashiranjanraj/diner/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 16
)

// ─── Client ───────────────────────────────────────────────────────────────────

// Client is a single connected WebSocket subscriber.
type Client struct {
	hub   *Hub
	topic string
	conn  *websocket.Conn
	send  chan []byte
}

// readPump keeps the read side alive so pongs and close frames are handled.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logger.Warn("ws: unexpected close", "topic", c.topic, "error", err)
			}
			return
		}
	}
}

// writePump forwards queued messages and pings to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ─── Hub ──────────────────────────────────────────────────────────────────────

type publication struct {
	topic string
	data  []byte
}

// Hub tracks connected clients per topic.
type Hub struct {
	topics     map[string]map[*Client]bool
	publish    chan publication
	register   chan *Client
	unregister chan *Client
	count      chan chan int
	done       chan struct{}

	upgrader websocket.Upgrader
}

// NewHub creates a Hub. Call Run in its own goroutine before serving.
func NewHub() *Hub {
	return &Hub{
		topics:     make(map[string]map[*Client]bool),
		publish:    make(chan publication, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		count:      make(chan chan int),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// SetCheckOrigin replaces the default (allow-all) origin checker.
func (h *Hub) SetCheckOrigin(fn func(r *http.Request) bool) {
	h.upgrader.CheckOrigin = fn
}

// Run is the hub event loop. When ctx ends every client is disconnected.
func (h *Hub) Run(ctx context.Context) error {
	defer func() {
		close(h.done)
		for _, clients := range h.topics {
			for c := range clients {
				close(c.send)
			}
		}
		h.topics = map[string]map[*Client]bool{}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case c := <-h.register:
			if h.topics[c.topic] == nil {
				h.topics[c.topic] = make(map[*Client]bool)
			}
			h.topics[c.topic][c] = true
			logger.Debug("ws: client subscribed", "topic", c.topic, "total", len(h.topics[c.topic]))

		case c := <-h.unregister:
			h.drop(c)

		case p := <-h.publish:
			for c := range h.topics[p.topic] {
				select {
				case c.send <- p.data:
				default:
					h.drop(c)
				}
			}

		case reply := <-h.count:
			n := 0
			for _, clients := range h.topics {
				n += len(clients)
			}
			reply <- n
		}
	}
}

func (h *Hub) drop(c *Client) {
	clients, ok := h.topics[c.topic]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.topics, c.topic)
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues data for every subscriber of topic. It never blocks; when
// the queue is full the message is dropped.
func (h *Hub) Publish(topic string, data []byte) {
	select {
	case h.publish <- publication{topic: topic, data: data}:
	case <-h.done:
	default:
		logger.Warn("ws: publish queue full, dropping message", "topic", topic)
	}
}

// ClientCount returns the number of connected clients. It returns 0 once
// the hub has stopped.
func (h *Hub) ClientCount() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

// Serve upgrades the request and subscribes the connection to topic. When
// initial is non-nil it is the first message the client receives.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, topic string, initial []byte) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithCtx(r.Context()).Warn("ws: upgrade failed", "error", err)
		return
	}

	c := &Client{hub: h, topic: topic, conn: conn, send: make(chan []byte, sendBuffer)}
	if initial != nil {
		c.send <- initial
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}
