package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ExoPexodus/crimson-cloud-command/internal/logger"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin is enforced by the CORS layer in front of the upgrade.
		return true
	},
}

// Client is one dashboard connection. An empty subscription set means
// the client receives every event.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu            sync.RWMutex
	subscriptions map[string]bool
}

// IncomingMessage is the only frame clients are expected to send:
// subscribe/unsubscribe to a node's event stream.
type IncomingMessage struct {
	Action string `json:"action"`
	NodeID int64  `json:"node_id"`
}

func (c *Client) wants(event *models.Event) bool {
	if event.NodeID == 0 {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.subscriptions) == 0 {
		return true
	}
	return c.subscriptions[nodeKey(event.NodeID)]
}

func (c *Client) subscribe(nodeID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[nodeKey(nodeID)] = true
}

func (c *Client) unsubscribe(nodeID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscriptions, nodeKey(nodeID))
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	cfg := c.hub.cfg
	if cfg.MaxMessageSize > 0 {
		c.conn.SetReadLimit(cfg.MaxMessageSize)
	}
	c.conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debugf("WebSocket client %s read error: %v", c.id, err)
			}
			return
		}

		var msg IncomingMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			logger.Debugf("WebSocket client %s sent malformed frame", c.id)
			continue
		}
		switch msg.Action {
		case "subscribe":
			c.subscribe(msg.NodeID)
		case "unsubscribe":
			c.unsubscribe(msg.NodeID)
		default:
			logger.Debugf("WebSocket client %s sent unknown action %q", c.id, msg.Action)
		}
	}
}

func (c *Client) writePump() {
	cfg := c.hub.cfg
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWebSocket upgrades the request and attaches the connection to
// the hub.
func ServeWebSocket(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.WithError(err).Warn("WebSocket upgrade failed")
			return
		}

		buffer := hub.cfg.ClientBuffer
		if buffer <= 0 {
			buffer = 64
		}
		client := &Client{
			id:            uuid.NewString(),
			hub:           hub,
			conn:          conn,
			send:          make(chan []byte, buffer),
			subscriptions: make(map[string]bool),
		}

		hub.register <- client
		go client.writePump()
		go client.readPump()
	}
}
