package websocket

import (
	"context"
	"log/slog"
	"sync"
)

type broadcastFrame struct {
	payload []byte
	except  string
}

// Hub maintains the set of active clients and broadcasts messages.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan *broadcastFrame
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// Guards clients for readers outside the Run loop.
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *broadcastFrame, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With("component", "hub"),
	}
}

// Run starts the hub's processing loop. It returns when ctx is done, after
// closing every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("websocket hub started")
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client registered", "account", client.AccountID, "conn", client.id, "total", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", "account", client.AccountID, "conn", client.id)

		case frame := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if client.id == frame.except {
					continue
				}
				if !client.Send(frame.payload) {
					h.logger.Warn("broadcast send buffer full", "account", client.AccountID, "conn", client.id)
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				client.closeSend()
			}
			h.mu.Unlock()
			h.logger.Info("websocket hub stopped")
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.closeSend()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues payload for every client except the one with exceptConnID.
func (h *Hub) Broadcast(payload []byte, exceptConnID string) {
	select {
	case h.broadcast <- &broadcastFrame{payload: payload, except: exceptConnID}:
	case <-h.done:
	}
}

// Count reports the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
