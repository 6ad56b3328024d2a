package realtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/org-chat/internal/core/events"
)

// Subscriber is the slice of the event bus the hub attaches to.
type Subscriber interface {
	Subscribe(eventType string, handler events.Handler)
}

// Hub bridges the event bus to the session registry: every chat domain
// event is translated into its wire shape and published to the groups the
// event names.
type Hub struct {
	registry *Registry
	logger   *slog.Logger
}

func NewHub(registry *Registry, logger *slog.Logger) *Hub {
	return &Hub{
		registry: registry,
		logger:   logger,
	}
}

// Attach registers the hub's handlers on the bus.
func (h *Hub) Attach(bus Subscriber) {
	bus.Subscribe(events.EventTypeMessageSent, h.handleMessageSent)
	bus.Subscribe(events.EventTypeStatusChanged, h.handleStatusChanged)
	bus.Subscribe(events.EventTypeChatActivity, h.handleActivity)
}

func (h *Hub) handleMessageSent(_ context.Context, event events.Event) error {
	evt, ok := event.(*events.MessageSentEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	payload := MessagePayload{
		ID:         evt.MessageID,
		SenderID:   evt.SenderID,
		ReceiverID: evt.ReceiverID,
		Body:       evt.Body,
		Timestamp:  evt.SentAt,
	}

	// The sender gets an echo with the assigned id and timestamp; the
	// receiver's live sessions get the same payload.
	h.registry.Publish(evt.SenderID, payload)
	h.registry.Publish(evt.ReceiverID, payload)
	return nil
}

func (h *Hub) handleStatusChanged(_ context.Context, event events.Event) error {
	evt, ok := event.(*events.StatusChangedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	wire := StatusUpdateEvent{
		Type:         eventTypeStatusUpdate,
		IsDisabled:   evt.IsDisabled,
		Participants: evt.Participants,
	}
	for _, userID := range evt.Participants {
		h.registry.Publish(userID, wire)
	}
	return nil
}

func (h *Hub) handleActivity(_ context.Context, event events.Event) error {
	evt, ok := event.(*events.ChatActivityEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	wire := ActivityEvent{
		Type:         eventTypeActivity,
		Action:       evt.Action,
		InitiatorID:  evt.InitiatorID,
		MessageID:    evt.MessageID,
		NewText:      evt.NewText,
		Participants: evt.Participants,
	}

	// Clearing a chat only repaints the initiator's screen; the other
	// party keeps their history.
	if evt.Action == events.ActivityClearChat {
		h.registry.Publish(evt.InitiatorID, wire)
		return nil
	}

	for _, userID := range evt.Participants {
		h.registry.Publish(userID, wire)
	}
	return nil
}
