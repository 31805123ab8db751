package realtime

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/events"
)

// Bridge fans domain events out over the hub. Ticket lifecycle events go to
// the global channel (the admin dashboard watches everything) and, where a
// room exists, to the ticket's room; comment and attachment events are
// room-only.
type Bridge struct {
	hub *Hub
}

// NewBridge constructs the bridge.
func NewBridge(hub *Hub) *Bridge {
	return &Bridge{hub: hub}
}

// RegisterHandlers subscribes the bridge to every event kind it forwards.
func (b *Bridge) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketCreated, b.handleGlobal)
	dispatcher.Subscribe(events.EventTicketUpdated, b.handleGlobalAndRoom)
	dispatcher.Subscribe(events.EventTicketDeleted, b.handleGlobalAndRoom)
	dispatcher.Subscribe(events.EventCommentAdded, b.handleRoom)
	dispatcher.Subscribe(events.EventAttachmentAdded, b.handleRoom)
}

func (b *Bridge) handleGlobal(_ context.Context, event events.Event) error {
	b.hub.EmitGlobal(string(event.Type), event.Payload)
	return nil
}

func (b *Bridge) handleRoom(_ context.Context, event events.Event) error {
	b.hub.EmitToRoom(event.TicketID, string(event.Type), event.Payload)
	return nil
}

func (b *Bridge) handleGlobalAndRoom(_ context.Context, event events.Event) error {
	b.hub.EmitGlobal(string(event.Type), event.Payload)
	b.hub.EmitToRoom(event.TicketID, string(event.Type), event.Payload)
	return nil
}
