package realtime

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ClientMessage is what connected clients send upstream: room join/leave
// requests keyed by ticket id.
type ClientMessage struct {
	Event    string `json:"event"`
	TicketID string `json:"ticketId"`
}

const (
	clientEventJoin  = "join-ticket"
	clientEventLeave = "leave-ticket"
)

// wsConn adapts a websocket connection to the hub's Conn interface. The
// write mutex keeps concurrent emissions from interleaving frames, which the
// underlying connection forbids; it also gives each connection its own
// delivery order.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) WriteJSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}

// Upgrade gates the websocket route: non-upgrade requests get 426.
func Upgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// Handler returns the websocket connection loop. It registers the connection
// with the hub, serves join/leave messages until the client goes away, then
// clears all room memberships.
func Handler(hub *Hub, logger *zap.Logger) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		conn := &wsConn{conn: c}
		hub.Register(conn)
		defer hub.Unregister(conn)

		for {
			var msg ClientMessage
			if err := c.ReadJSON(&msg); err != nil {
				logger.Debug("websocket closed", zap.Error(err))
				return
			}
			switch msg.Event {
			case clientEventJoin:
				hub.Join(conn, msg.TicketID)
			case clientEventLeave:
				hub.Leave(conn, msg.TicketID)
			default:
				logger.Debug("ignoring unknown client event", zap.String("event", msg.Event))
			}
		}
	})
}
