package realtime

import (
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/observability"
)

type fakeConn struct {
	mu       sync.Mutex
	frames   []Envelope
	failNext bool
	closed   bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		return errors.New("write failed")
	}
	f.frames = append(f.frames, v.(Envelope))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) received() []Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Envelope(nil), f.frames...)
}

func newTestHub() *Hub {
	return NewHub(zap.NewNop(), observability.NewMetrics())
}

func TestEmitGlobalReachesAllConnections(t *testing.T) {
	hub := newTestHub()
	a, b := &fakeConn{}, &fakeConn{}
	hub.Register(a)
	hub.Register(b)

	hub.EmitGlobal("ticket:created", map[string]string{"id": "t1"})

	for _, conn := range []*fakeConn{a, b} {
		frames := conn.received()
		if len(frames) != 1 {
			t.Fatalf("expected 1 frame, got %d", len(frames))
		}
		if frames[0].Event != "ticket:created" {
			t.Fatalf("unexpected event %q", frames[0].Event)
		}
	}
}

func TestEmitToRoomOnlyReachesMembers(t *testing.T) {
	hub := newTestHub()
	member, outsider := &fakeConn{}, &fakeConn{}
	hub.Register(member)
	hub.Register(outsider)
	hub.Join(member, "t1")

	hub.EmitToRoom("t1", "comment:added", nil)

	if got := len(member.received()); got != 1 {
		t.Fatalf("member expected 1 frame, got %d", got)
	}
	if got := len(outsider.received()); got != 0 {
		t.Fatalf("outsider expected 0 frames, got %d", got)
	}
	if frames := member.received(); frames[0].TicketID != "t1" {
		t.Fatalf("expected ticketId t1, got %q", frames[0].TicketID)
	}
}

func TestLeaveStopsRoomDelivery(t *testing.T) {
	hub := newTestHub()
	conn := &fakeConn{}
	hub.Join(conn, "t1")
	hub.Leave(conn, "t1")

	hub.EmitToRoom("t1", "comment:added", nil)

	if got := len(conn.received()); got != 0 {
		t.Fatalf("expected 0 frames after leave, got %d", got)
	}
}

func TestLeaveUnknownRoomIsNoOp(t *testing.T) {
	hub := newTestHub()
	conn := &fakeConn{}
	hub.Register(conn)
	hub.Leave(conn, "never-joined")

	hub.EmitGlobal("ticket:created", nil)
	if got := len(conn.received()); got != 1 {
		t.Fatalf("expected global delivery to survive, got %d frames", got)
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	hub := newTestHub()
	conn := &fakeConn{}
	hub.Join(conn, "t1")
	hub.Join(conn, "t1")

	hub.EmitToRoom("t1", "comment:added", nil)

	if got := len(conn.received()); got != 1 {
		t.Fatalf("expected single delivery, got %d", got)
	}
}

func TestWriteFailureDropsConnection(t *testing.T) {
	hub := newTestHub()
	healthy, broken := &fakeConn{}, &fakeConn{failNext: true}
	hub.Register(healthy)
	hub.Register(broken)
	hub.Join(broken, "t1")

	hub.EmitGlobal("ticket:updated", nil)

	if !broken.closed {
		t.Fatal("expected broken connection to be closed")
	}
	if hub.ConnectionCount() != 1 {
		t.Fatalf("expected 1 remaining connection, got %d", hub.ConnectionCount())
	}

	broken.mu.Lock()
	broken.failNext = false
	broken.mu.Unlock()
	hub.EmitToRoom("t1", "comment:added", nil)
	if got := len(broken.received()); got != 0 {
		t.Fatalf("dropped connection still got %d frames", got)
	}
}

func TestUnregisterClearsRooms(t *testing.T) {
	hub := newTestHub()
	conn := &fakeConn{}
	hub.Join(conn, "t1")
	hub.Unregister(conn)

	hub.EmitToRoom("t1", "comment:added", nil)
	hub.EmitGlobal("ticket:created", nil)

	if got := len(conn.received()); got != 0 {
		t.Fatalf("expected 0 frames after unregister, got %d", got)
	}
	if hub.ConnectionCount() != 0 {
		t.Fatalf("expected 0 connections, got %d", hub.ConnectionCount())
	}
}
