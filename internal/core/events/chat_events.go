package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeMessageSent   = "chat.message.sent"
	EventTypeStatusChanged = "chat.status.changed"
	EventTypeChatActivity  = "chat.activity"
)

// Activity actions carried by ChatActivityEvent.
const (
	ActivityClearChat     = "clear_chat"
	ActivityDeleteMessage = "delete_message"
	ActivityEditMessage   = "edit_message"
)

type MessageSentEvent struct {
	BaseEvent
	MessageID  string    `json:"message_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Body       string    `json:"message"`
	SentAt     time.Time `json:"sent_at"`
}

func NewMessageSentEvent(messageID, senderID, receiverID, body string, sentAt time.Time) *MessageSentEvent {
	return &MessageSentEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeMessageSent,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"message_id":  messageID,
				"sender_id":   senderID,
				"receiver_id": receiverID,
				"message":     body,
				"sent_at":     sentAt,
			},
		},
		MessageID:  messageID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		SentAt:     sentAt,
	}
}

// StatusChangedEvent signals that a conversation was disabled or re-enabled
// by a moderator. Both participants are notified.
type StatusChangedEvent struct {
	BaseEvent
	IsDisabled   bool     `json:"is_disabled"`
	Participants []string `json:"participants"`
}

func NewStatusChangedEvent(isDisabled bool, participants []string) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeStatusChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"is_disabled":  isDisabled,
				"participants": participants,
			},
		},
		IsDisabled:   isDisabled,
		Participants: participants,
	}
}

// ChatActivityEvent covers per-message moderation: clearing a chat for one
// viewer, editing a message, or deleting one for both parties. For
// clear_chat only the initiator is notified; the other actions go to both
// participants.
type ChatActivityEvent struct {
	BaseEvent
	Action       string   `json:"action"`
	InitiatorID  string   `json:"initiator_id,omitempty"`
	MessageID    string   `json:"message_id,omitempty"`
	NewText      string   `json:"new_text,omitempty"`
	Participants []string `json:"participants,omitempty"`
}

func NewChatActivityEvent(action, initiatorID, messageID, newText string, participants []string) *ChatActivityEvent {
	return &ChatActivityEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeChatActivity,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"action":       action,
				"initiator_id": initiatorID,
				"message_id":   messageID,
				"new_text":     newText,
				"participants": participants,
			},
		},
		Action:       action,
		InitiatorID:  initiatorID,
		MessageID:    messageID,
		NewText:      newText,
		Participants: participants,
	}
}
