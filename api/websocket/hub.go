package websocket

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/ExoPexodus/crimson-cloud-command/internal/logger"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/config"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/models"
)

// Hub fans backend events out to connected dashboard clients. Clients
// may subscribe to individual nodes; events carrying a node id are
// delivered only to clients subscribed to that node (or to none).
type Hub struct {
	cfg config.WebSocketConfig

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *models.Event

	mu   sync.RWMutex
	done chan struct{}
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	if cfg.BroadcastBuffer <= 0 {
		cfg.BroadcastBuffer = 256
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = cfg.PingInterval + 15*time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &Hub{
		cfg:        cfg,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *models.Event, cfg.BroadcastBuffer),
		done:       make(chan struct{}),
	}
}

// Run processes registration and broadcast traffic until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case event := <-h.broadcast:
			h.dispatch(event)
		case <-h.done:
			h.closeAll()
			return
		}
	}
}

func (h *Hub) Stop() {
	close(h.done)
}

// Broadcast queues an event for delivery. Drops the event when the
// broadcast buffer is full rather than blocking the publisher.
func (h *Hub) Broadcast(event *models.Event) {
	select {
	case h.broadcast <- event:
	default:
		logger.Warnf("WebSocket broadcast buffer full, dropping %s event", event.Type)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cfg.MaxConnections > 0 && len(h.clients) >= h.cfg.MaxConnections {
		logger.Warnf("WebSocket connection limit (%d) reached, rejecting client %s", h.cfg.MaxConnections, client.id)
		close(client.send)
		return
	}
	h.clients[client] = true
	logger.Debugf("WebSocket client %s connected (%d total)", client.id, len(h.clients))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		logger.Debugf("WebSocket client %s disconnected (%d total)", client.id, len(h.clients))
	}
}

func (h *Hub) dispatch(event *models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.WithError(err).Error("Failed to marshal event for broadcast")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if !client.wants(event) {
			continue
		}
		select {
		case client.send <- payload:
		default:
			// Slow consumer; drop the frame instead of stalling the hub.
			logger.Debugf("WebSocket client %s send buffer full, dropping frame", client.id)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

func nodeKey(nodeID int64) string {
	return strconv.FormatInt(nodeID, 10)
}
