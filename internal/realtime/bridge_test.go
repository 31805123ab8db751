package realtime

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
)

func newBridgedDispatcher(t *testing.T) (events.Dispatcher, *Hub) {
	t.Helper()
	hub := newTestHub()
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	NewBridge(hub).RegisterHandlers(dispatcher)
	return dispatcher, hub
}

func TestBridgeFansTicketUpdateToGlobalAndRoom(t *testing.T) {
	dispatcher, hub := newBridgedDispatcher(t)
	watcher, member := &fakeConn{}, &fakeConn{}
	hub.Register(watcher)
	hub.Register(member)
	hub.Join(member, "t1")

	_ = dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: "t1",
	})

	if got := len(watcher.received()); got != 1 {
		t.Fatalf("global watcher expected 1 frame, got %d", got)
	}
	// room members see the global broadcast plus the room copy
	frames := member.received()
	if len(frames) != 2 {
		t.Fatalf("room member expected 2 frames, got %d", len(frames))
	}
	for _, frame := range frames {
		if frame.Event != string(events.EventTicketUpdated) {
			t.Fatalf("unexpected event %q", frame.Event)
		}
	}
}

func TestBridgeKeepsCommentsRoomOnly(t *testing.T) {
	dispatcher, hub := newBridgedDispatcher(t)
	watcher, member := &fakeConn{}, &fakeConn{}
	hub.Register(watcher)
	hub.Register(member)
	hub.Join(member, "t1")

	_ = dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventCommentAdded,
		TicketID: "t1",
	})

	if got := len(watcher.received()); got != 0 {
		t.Fatalf("global watcher expected 0 frames, got %d", got)
	}
	frames := member.received()
	if len(frames) != 1 {
		t.Fatalf("room member expected 1 frame, got %d", len(frames))
	}
	if frames[0].TicketID != "t1" {
		t.Fatalf("expected ticketId t1, got %q", frames[0].TicketID)
	}
}

func TestBridgeSendsTicketCreatedGloballyOnly(t *testing.T) {
	dispatcher, hub := newBridgedDispatcher(t)
	watcher, member := &fakeConn{}, &fakeConn{}
	hub.Register(watcher)
	hub.Register(member)
	hub.Join(member, "t1")

	_ = dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketCreated,
		TicketID: "t1",
	})

	if got := len(watcher.received()); got != 1 {
		t.Fatalf("global watcher expected 1 frame, got %d", got)
	}
	if got := len(member.received()); got != 1 {
		t.Fatalf("room member expected only the global frame, got %d", got)
	}
}
