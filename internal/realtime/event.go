// Package realtime owns the live side of the chat engine: which sessions
// are connected for each user, and best-effort fanout of typed events to
// them. Undelivered events are dropped; clients reconcile through the
// history endpoints.
package realtime

import "time"

// MessagePayload is the wire shape of a delivered message. The sender
// receives the same payload as an echo so an optimistic local copy can be
// reconciled with the assigned id and timestamp.
type MessagePayload struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Body       string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// StatusUpdateEvent tells both participants that their conversation was
// disabled or re-enabled.
type StatusUpdateEvent struct {
	Type         string   `json:"type"`
	IsDisabled   bool     `json:"is_disabled"`
	Participants []string `json:"participants"`
}

// ActivityEvent carries per-message moderation: clear_chat, delete_message
// or edit_message.
type ActivityEvent struct {
	Type         string   `json:"type"`
	Action       string   `json:"action"`
	InitiatorID  string   `json:"initiator_id,omitempty"`
	MessageID    string   `json:"message_id,omitempty"`
	NewText      string   `json:"new_text,omitempty"`
	Participants []string `json:"participants,omitempty"`
}

// ErrorEvent is sent to the offending session only; the connection stays
// open.
type ErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

const (
	eventTypeStatusUpdate = "status_update"
	eventTypeActivity     = "activity"
	eventTypeError        = "error"
)

func NewErrorEvent(reason string) ErrorEvent {
	return ErrorEvent{Type: eventTypeError, Error: reason}
}
