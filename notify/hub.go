package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/linesmerrill/police-case-api/models"
)

const (
	// writeWait bounds a single frame write to a client
	writeWait = 10 * time.Second
	// sendBuffer is how many frames a slow client may fall behind before it is dropped
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	userID int64
	roles  []models.Role
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

// writePump is the only writer of c.conn
func (c *client) writePump(h *Hub) {
	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				zap.S().Warnw("error sending event to user", "userID", c.userID, "error", err)
				h.drop(c)
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) wants(ev models.Event) bool {
	for _, id := range ev.UserIDs {
		if id == c.userID {
			return true
		}
	}
	for _, want := range ev.Recipients {
		for _, have := range c.roles {
			if want == have {
				return true
			}
		}
	}
	return false
}

// Hub keeps the live websocket connections and pushes events to the users
// and roles they address
type Hub struct {
	clients map[*client]struct{}
	mutex   sync.Mutex
}

// NewHub returns an empty Hub
func NewHub() *Hub {
	return &Hub{clients: map[*client]struct{}{}}
}

// ServeWS upgrades the request and keeps the connection registered until it closes
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID int64, roles []models.Role) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("websocket upgrade error", "error", err)
		return
	}
	c := &client{
		userID: userID,
		roles:  roles,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}

	h.mutex.Lock()
	h.clients[c] = struct{}{}
	h.mutex.Unlock()
	go c.writePump(h)
	zap.S().Debugw("user connected to /ws", "userID", userID)

	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}
	h.drop(c)
	zap.S().Debugw("user disconnected from /ws", "userID", userID)
}

func (h *Hub) drop(c *client) {
	c.once.Do(func() {
		h.mutex.Lock()
		delete(h.clients, c)
		h.mutex.Unlock()
		close(c.done)
		c.conn.Close()
	})
}

// Connected returns the number of open connections
func (h *Hub) Connected() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Publish implements workflow.Publisher. Frames are queued per client and
// written by the client's own goroutine, so Publish never waits on the
// network. A client whose queue is full is disconnected.
func (h *Hub) Publish(_ context.Context, events []models.Event) error {
	h.mutex.Lock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mutex.Unlock()

	for _, ev := range events {
		var msg []byte
		for _, c := range targets {
			if !c.wants(ev) {
				continue
			}
			if msg == nil {
				b, err := json.Marshal(map[string]interface{}{
					"event": ev.Type,
					"data":  ev,
				})
				if err != nil {
					return err
				}
				msg = b
			}
			select {
			case c.send <- msg:
			case <-c.done:
			default:
				zap.S().Warnw("dropping slow websocket client", "userID", c.userID, "event", ev.Type)
				h.drop(c)
			}
		}
	}
	return nil
}
