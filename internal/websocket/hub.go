package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/infrastructure"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

// Message types pushed to subscribers
const (
	TypeConnection   = "connection"
	TypeRunCompleted = "run:completed"
)

// Message is the envelope of every frame the hub sends
type Message struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
	TraceID   string    `json:"trace_id,omitempty"`
}

// Hub keeps the set of subscribed clients and fans run events out to them
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	totalConnections atomic.Int64
	messagesSent     atomic.Int64
	droppedClients   atomic.Int64

	quit    chan struct{}
	running bool
	stopped bool
}

// HubStats is a point-in-time view of hub activity
type HubStats struct {
	ActiveClients    int   `json:"active_clients"`
	TotalConnections int64 `json:"total_connections"`
	MessagesSent     int64 `json:"messages_sent"`
	DroppedClients   int64 `json:"dropped_clients"`
}

// NewHub creates a stopped hub; call Start before registering clients
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		quit:       make(chan struct{}),
	}
}

// Start launches the hub loop. It is a no-op once started or stopped.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running || h.stopped {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.totalConnections.Add(1)

			ctx := client.context()
			h.logger.InfoContext(ctx, "client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			h.sendTo(client, h.encode(Message{
				Type: TypeConnection,
				Data: map[string]string{
					"status":    "connected",
					"client_id": client.id,
				},
				Timestamp: time.Now().UTC(),
				TraceID:   client.traceID,
			}))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				count := len(h.clients)
				h.mu.Unlock()

				h.logger.InfoContext(client.context(), "client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			failed := 0
			for _, client := range clients {
				if !h.sendTo(client, message) {
					failed++
				}
			}
			h.logger.Debug("broadcast delivered",
				slog.Int("client_count", len(clients)),
				slog.Int("fail_count", failed),
				slog.Int("message_size", len(message)))
		}
	}
}

// sendTo queues a frame for one client and drops clients whose buffer is full
func (h *Hub) sendTo(client *Client, message []byte) bool {
	if message == nil {
		return false
	}
	select {
	case client.send <- message:
		h.messagesSent.Add(1)
		return true
	default:
		h.mu.Lock()
		if _, ok := h.clients[client]; ok {
			delete(h.clients, client)
			close(client.send)
		}
		h.mu.Unlock()
		h.droppedClients.Add(1)
		h.logger.WarnContext(client.context(), "client send buffer full, disconnecting",
			slog.String("client_id", client.id))
		return false
	}
}

func (h *Hub) encode(msg Message) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal message",
			slog.String("type", msg.Type),
			slog.String("error", err.Error()))
		return nil
	}
	return data
}

// Publish broadcasts one message to every client. It never blocks past Stop.
func (h *Hub) Publish(ctx context.Context, msgType string, data any) {
	msg := h.encode(Message{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC(),
		TraceID:   infrastructure.GetTraceID(ctx),
	})
	if msg == nil {
		return
	}
	select {
	case h.broadcast <- msg:
	case <-h.quit:
	case <-ctx.Done():
	}
}

// RunCompleted pushes the summary of a registered run to subscribers
func (h *Hub) RunCompleted(ctx context.Context, summary domain.RunSummary) {
	h.Publish(ctx, TypeRunCompleted, summary)
}

// Register adds a client to the hub. It reports false, closing the
// connection, once the hub is stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.quit:
		client.conn.Close()
		return false
	}
}

// Unregister removes a client and closes its send channel
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns the hub counters
func (h *Hub) Stats() HubStats {
	return HubStats{
		ActiveClients:    h.ClientCount(),
		TotalConnections: h.totalConnections.Load(),
		MessagesSent:     h.messagesSent.Load(),
		DroppedClients:   h.droppedClients.Load(),
	}
}

// Stop ends the hub loop; the loop closes every client's send channel on its way out
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.stopped = true
	h.running = false
	close(h.quit)
}
