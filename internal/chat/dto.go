package chat

import (
	"time"

	"github.com/frahmantamala/org-chat/internal/core/common/validation"
	"github.com/frahmantamala/org-chat/internal/directory"
)

// SendMessageDTO is an inbound message intent, arriving over the live
// connection.
type SendMessageDTO struct {
	Body       string `json:"message"`
	ReceiverID string `json:"receiverId"`
}

func (dto SendMessageDTO) Validate() error {
	if err := validation.ValidateReceiver(dto.ReceiverID); err != nil {
		return err
	}
	if err := validation.ValidateMessageBody(dto.Body); err != nil {
		return err
	}
	return nil
}

// ToggleDTO is the moderation request to disable or re-enable a pair's
// conversation.
type ToggleDTO struct {
	TargetUserID string `json:"target_user_id"`
	Action       string `json:"action"`
}

const (
	ToggleActionDisable = "disable"
	ToggleActionEnable  = "enable"
)

func (dto ToggleDTO) Validate() error {
	validator := validation.NewValidator()
	validator.Field("target_user_id", dto.TargetUserID).Required()
	validator.Field("action", dto.Action).
		Required().
		OneOf(ToggleActionDisable, ToggleActionEnable)
	if err := validator.Validate(); err != nil {
		return err
	}
	return nil
}

type EditMessageDTO struct {
	Body string `json:"message"`
}

// MessageView is the history wire shape.
type MessageView struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Body      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type HistoryView struct {
	Messages   []MessageView `json:"messages"`
	IsDisabled bool          `json:"is_disabled"`
}

// ContactView is one entry in the recent-contacts sidebar: either an
// existing conversation or a role-based suggestion that has not been
// started yet (ConversationID prefixed with "new_").
type ContactView struct {
	ConversationID string          `json:"conversation_id"`
	User           *directory.User `json:"user"`
	LastMessage    string          `json:"last_message"`
	UpdatedAt      time.Time       `json:"updated_at"`
	IsDisabled     bool            `json:"is_disabled"`
	UnreadCount    int64           `json:"unread_count"`
}
