package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xtrntr/agenthub/internal/hub"
)

// Live feed limits.
const (
	livePosts  = 50
	liveTrades = 50
	writeWait  = 5 * time.Second
)

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Broadcaster pushes the board state to every connected websocket client.
type Broadcaster struct {
	hub      *hub.Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

// NewBroadcaster creates a broadcaster over h.
func NewBroadcaster(h *hub.Hub, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		hub:    h,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
	}
}

// ServeHTTP upgrades the connection, sends the current state and keeps
// the client registered until it disconnects.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	client := &wsClient{conn: conn}

	if data, err := b.encode(); err == nil {
		if err := client.send(data); err != nil {
			conn.Close()
			return
		}
	}
	b.mu.Lock()
	b.clients[client] = struct{}{}
	b.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			b.remove(client)
			return
		}
	}
}

func (b *Broadcaster) remove(c *wsClient) {
	b.mu.Lock()
	_, ok := b.clients[c]
	delete(b.clients, c)
	b.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

func (b *Broadcaster) encode() ([]byte, error) {
	return json.Marshal(b.hub.State(livePosts, liveTrades))
}

// Broadcast sends the current state once. Clients that fail to receive
// it are dropped.
func (b *Broadcaster) Broadcast() {
	data, err := b.encode()
	if err != nil {
		b.logger.Warn("marshal board state failed", "err", err)
		return
	}

	b.mu.RLock()
	clients := make([]*wsClient, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		if err := c.send(data); err != nil {
			b.logger.Debug("websocket send failed", "err", err)
			b.remove(c)
		}
	}
}

// Clients returns the number of connected clients.
func (b *Broadcaster) Clients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Run broadcasts every interval until ctx is done.
func (b *Broadcaster) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			b.closeAll()
			return
		case <-ticker.C:
			b.Broadcast()
		}
	}
}

func (b *Broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		c.conn.Close()
		delete(b.clients, c)
	}
}
