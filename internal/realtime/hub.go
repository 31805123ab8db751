package realtime

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/observability"
)

// Conn is the minimal surface the hub needs from a live client connection.
// The websocket handler wraps the underlying connection behind this so the
// hub never depends on a transport.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Envelope is the frame delivered to clients.
type Envelope struct {
	Event    string      `json:"event"`
	TicketID string      `json:"ticketId,omitempty"`
	Payload  interface{} `json:"payload"`
	TS       time.Time   `json:"ts"`
}

// Hub is the connection/room registry. Every registered connection receives
// global emissions; room emissions reach only connections that joined the
// ticket's room. Delivery is best-effort: a write error drops the connection
// and is never reported to the emitting request.
type Hub struct {
	mu      sync.RWMutex
	conns   map[Conn]map[string]struct{} // connection -> joined room set
	rooms   map[string]map[Conn]struct{} // ticket id -> members
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewHub creates an empty registry.
func NewHub(logger *zap.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		conns:   make(map[Conn]map[string]struct{}),
		rooms:   make(map[string]map[Conn]struct{}),
		logger:  logger,
		metrics: metrics,
	}
}

// Register adds a live connection to the global channel.
func (h *Hub) Register(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; !ok {
		h.conns[conn] = make(map[string]struct{})
	}
	h.logger.Debug("client connected", zap.Int("total", len(h.conns)))
}

// Unregister removes a connection and clears its room memberships.
func (h *Hub) Unregister(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(conn)
}

// Join adds the connection to the ticket's room. Idempotent; registers the
// connection if the handler has not done so yet.
func (h *Hub) Join(conn Conn, ticketID string) {
	if ticketID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; !ok {
		h.conns[conn] = make(map[string]struct{})
	}
	room, ok := h.rooms[ticketID]
	if !ok {
		room = make(map[Conn]struct{})
		h.rooms[ticketID] = room
	}
	room[conn] = struct{}{}
	h.conns[conn][ticketID] = struct{}{}
}

// Leave removes the connection from the ticket's room. No-op if not a member.
func (h *Hub) Leave(conn Conn, ticketID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[ticketID]; ok {
		delete(room, conn)
		if len(room) == 0 {
			delete(h.rooms, ticketID)
		}
	}
	if joined, ok := h.conns[conn]; ok {
		delete(joined, ticketID)
	}
}

// EmitGlobal delivers the event to every registered connection.
func (h *Hub) EmitGlobal(event string, payload interface{}) {
	env := Envelope{Event: event, Payload: payload, TS: time.Now()}

	h.mu.RLock()
	targets := make([]Conn, 0, len(h.conns))
	for conn := range h.conns {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	h.deliver(event, env, targets)
}

// EmitToRoom delivers the event to every connection joined to the ticket's room.
func (h *Hub) EmitToRoom(ticketID, event string, payload interface{}) {
	env := Envelope{Event: event, TicketID: ticketID, Payload: payload, TS: time.Now()}

	h.mu.RLock()
	room := h.rooms[ticketID]
	targets := make([]Conn, 0, len(room))
	for conn := range room {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	h.deliver(event, env, targets)
}

func (h *Hub) deliver(event string, env Envelope, targets []Conn) {
	delivered := 0
	for _, conn := range targets {
		if err := conn.WriteJSON(env); err != nil {
			h.logger.Warn("dropping client after write failure",
				zap.String("event", event), zap.Error(err))
			h.mu.Lock()
			h.dropLocked(conn)
			h.mu.Unlock()
			continue
		}
		delivered++
	}
	h.metrics.RecordEvent(event, delivered)
}

// dropLocked removes the connection everywhere. Caller holds the write lock.
func (h *Hub) dropLocked(conn Conn) {
	joined, ok := h.conns[conn]
	if !ok {
		return
	}
	for ticketID := range joined {
		if room, ok := h.rooms[ticketID]; ok {
			delete(room, conn)
			if len(room) == 0 {
				delete(h.rooms, ticketID)
			}
		}
	}
	delete(h.conns, conn)
	_ = conn.Close()
}

// ConnectionCount reports registered connections, for readiness introspection.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
