package api

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yourname/macrotracker/internal"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type wsClient struct {
	sessionID string
	conn      *websocket.Conn
	writeMu   sync.Mutex
}

func (c *wsClient) write(msg []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.writeLocked(msg)
}

func (c *wsClient) writeLocked(msg []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// Hub fans summary updates out to the websocket connections of one session.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*wsClient]struct{}
	logger  internal.Logger
}

func NewHub(logger internal.Logger) *Hub {
	return &Hub{clients: make(map[string]map[*wsClient]struct{}), logger: logger}
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	if h.clients[c.sessionID] == nil {
		h.clients[c.sessionID] = make(map[*wsClient]struct{})
	}
	h.clients[c.sessionID][c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	if set := h.clients[c.sessionID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.sessionID)
		}
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}

// subscribe registers c and sends it the payload returned by initial. The
// client's write lock is held throughout, so broadcasts raised after
// registration reach c only after the initial payload.
func (h *Hub) subscribe(c *wsClient, initial func() (any, error)) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	h.register(c)
	payload, err := initial()
	if err != nil {
		return err
	}
	msg, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.writeLocked(msg)
}

// Clients reports how many connections are open for sessionID.
func (h *Hub) Clients(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

func (h *Hub) Broadcast(sessionID string, payload any) {
	msg, err := json.Marshal(payload)
	if err != nil {
		h.logger.Errorf("hub: marshal payload: %v", err)
		return
	}

	h.mu.RLock()
	targets := make([]*wsClient, 0, len(h.clients[sessionID]))
	for c := range h.clients[sessionID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(msg); err != nil {
			h.logger.Debugf("hub: dropping client of session %s: %v", sessionID, err)
			h.unregister(c)
		}
	}
}

// ServeWS upgrades the request and streams the session summary, starting with
// the current one.
func ServeWS(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := sessionID(c)
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			app.Logger().Warnf("[request_id=%s] websocket upgrade failed: %v", c.GetString("request_id"), err)
			return
		}

		client := &wsClient{sessionID: id, conn: conn}
		hub := app.Hub()
		defer hub.unregister(client)

		ctx := c.Request.Context()
		err = hub.subscribe(client, func() (any, error) {
			return app.Tracker().Summary(ctx, id)
		})
		if err != nil {
			app.Logger().Errorf("[request_id=%s] websocket initial summary: %v", c.GetString("request_id"), err)
			return
		}
		app.Logger().Debugf("websocket connected for session %s (%d open)", id, hub.Clients(id))

		// Inbound messages are ignored; reading detects the close.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					app.Logger().Debugf("websocket closed: %v", err)
				}
				return
			}
		}
	}
}
