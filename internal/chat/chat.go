package chat

import (
	"context"
	"errors"
	"time"
)

// Conversation is the persistent chat state for one unordered pair of
// users. The pair is stored canonically as (UserLo, UserHi) with
// UserLo < UserHi so lookups and the uniqueness constraint are order
// independent.
type Conversation struct {
	ID          string    `json:"id"`
	UserLo      string    `json:"-"`
	UserHi      string    `json:"-"`
	LastMessage string    `json:"last_message"`
	IsDisabled  bool      `json:"is_disabled"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PairKey canonicalizes two user ids into the stored (lo, hi) order.
func PairKey(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// OtherParticipant returns the participant that is not userID.
func (c *Conversation) OtherParticipant(userID string) string {
	if c.UserLo == userID {
		return c.UserHi
	}
	return c.UserLo
}

func (c *Conversation) HasParticipant(userID string) bool {
	return c.UserLo == userID || c.UserHi == userID
}

// Message is one direct message. IsRead flips to true the first time the
// receiver fetches history and never resets; per-viewer deletion is kept in
// a separate set so one party clearing the chat leaves the other's view
// intact.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Body       string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	IsRead     bool      `json:"is_read"`
}

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
)

// ConversationRepositoryAPI manages the one-record-per-pair conversation
// store. UpsertOnMessage and SetDisabled must be atomic against concurrent
// first-contact writes from both sides of a pair.
type ConversationRepositoryAPI interface {
	FindByPair(ctx context.Context, a, b string) (*Conversation, error)
	UpsertOnMessage(ctx context.Context, a, b, lastMessage string, at time.Time) error
	SetDisabled(ctx context.Context, a, b string, disabled bool) error
	ListForUser(ctx context.Context, userID string) ([]*Conversation, error)
}

// MessageRepositoryAPI manages message records and their per-viewer
// deletion set.
type MessageRepositoryAPI interface {
	Append(ctx context.Context, msg *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	// ListBetween returns all messages between the two users in ascending
	// timestamp order, excluding the ones the viewer has soft-deleted.
	ListBetween(ctx context.Context, viewerID, otherID string) ([]*Message, error)
	// MarkReadFrom marks every unread message sent by senderID to
	// receiverID as read, skipping ones the receiver soft-deleted.
	// Idempotent.
	MarkReadFrom(ctx context.Context, senderID, receiverID string) error
	CountUnreadFrom(ctx context.Context, senderID, receiverID string) (int64, error)
	CountUnreadTotal(ctx context.Context, receiverID string) (int64, error)
	UpdateBody(ctx context.Context, id, newBody string) error
	// HardDelete removes the record for everyone.
	HardDelete(ctx context.Context, id string) error
	// SoftDeleteForViewer hides every message between the pair from
	// viewerID only. Set semantics: repeated calls do not duplicate.
	SoftDeleteForViewer(ctx context.Context, viewerID, otherID string) error
}
