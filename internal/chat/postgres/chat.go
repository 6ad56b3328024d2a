package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/org-chat/internal/chat"
)

type ConversationRecord struct {
	ID          string    `gorm:"primaryKey;column:id"`
	UserLo      string    `gorm:"column:user_lo;not null;uniqueIndex:idx_conversations_pair"`
	UserHi      string    `gorm:"column:user_hi;not null;uniqueIndex:idx_conversations_pair"`
	LastMessage string    `gorm:"column:last_message"`
	IsDisabled  bool      `gorm:"column:is_disabled;default:false"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (ConversationRecord) TableName() string {
	return "conversations"
}

type MessageRecord struct {
	ID         string    `gorm:"primaryKey;column:id"`
	SenderID   string    `gorm:"column:sender_id;not null;index:idx_messages_sender"`
	ReceiverID string    `gorm:"column:receiver_id;not null;index:idx_messages_receiver"`
	Body       string    `gorm:"column:body;not null"`
	Timestamp  time.Time `gorm:"column:timestamp;not null;index"`
	IsRead     bool      `gorm:"column:is_read;default:false"`
}

func (MessageRecord) TableName() string {
	return "messages"
}

// MessageDeletionRecord is one entry in a message's per-viewer deletion
// set. The composite primary key gives idempotent membership.
type MessageDeletionRecord struct {
	MessageID string `gorm:"primaryKey;column:message_id"`
	UserID    string `gorm:"primaryKey;column:user_id;index:idx_message_deletions_user"`
}

func (MessageDeletionRecord) TableName() string {
	return "message_deletions"
}

// ConversationRepository implements chat.ConversationRepositoryAPI using
// GORM. The canonical (user_lo, user_hi) unique index plus ON CONFLICT
// makes the first-contact upsert atomic: concurrent first sends from both
// sides of a pair land on the same row.
type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) chat.ConversationRepositoryAPI {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) FindByPair(ctx context.Context, a, b string) (*chat.Conversation, error) {
	lo, hi := chat.PairKey(a, b)
	var rec ConversationRecord
	err := r.db.WithContext(ctx).Where("user_lo = ? AND user_hi = ?", lo, hi).First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, chat.ErrConversationNotFound
		}
		return nil, err
	}
	return toConversation(&rec), nil
}

func (r *ConversationRepository) UpsertOnMessage(ctx context.Context, a, b, lastMessage string, at time.Time) error {
	lo, hi := chat.PairKey(a, b)
	rec := ConversationRecord{
		ID:          uuid.New().String(),
		UserLo:      lo,
		UserHi:      hi,
		LastMessage: lastMessage,
		UpdatedAt:   at,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_lo"}, {Name: "user_hi"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_message": lastMessage,
			"updated_at":   at,
		}),
	}).Create(&rec).Error
}

func (r *ConversationRepository) SetDisabled(ctx context.Context, a, b string, disabled bool) error {
	lo, hi := chat.PairKey(a, b)
	rec := ConversationRecord{
		ID:         uuid.New().String(),
		UserLo:     lo,
		UserHi:     hi,
		IsDisabled: disabled,
		UpdatedAt:  time.Now().UTC(),
	}
	// Recency is driven by message activity, so a toggle does not bump
	// updated_at on an existing row.
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_lo"}, {Name: "user_hi"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"is_disabled": disabled,
		}),
	}).Create(&rec).Error
}

func (r *ConversationRepository) ListForUser(ctx context.Context, userID string) ([]*chat.Conversation, error) {
	var recs []ConversationRecord
	err := r.db.WithContext(ctx).
		Where("user_lo = ? OR user_hi = ?", userID, userID).
		Order("updated_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	convs := make([]*chat.Conversation, len(recs))
	for i := range recs {
		convs[i] = toConversation(&recs[i])
	}
	return convs, nil
}

func toConversation(rec *ConversationRecord) *chat.Conversation {
	return &chat.Conversation{
		ID:          rec.ID,
		UserLo:      rec.UserLo,
		UserHi:      rec.UserHi,
		LastMessage: rec.LastMessage,
		IsDisabled:  rec.IsDisabled,
		UpdatedAt:   rec.UpdatedAt,
	}
}

// MessageRepository implements chat.MessageRepositoryAPI using GORM.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) chat.MessageRepositoryAPI {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Append(ctx context.Context, msg *chat.Message) error {
	rec := MessageRecord{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Body:       msg.Body,
		Timestamp:  msg.Timestamp,
		IsRead:     msg.IsRead,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *MessageRepository) GetByID(ctx context.Context, id string) (*chat.Message, error) {
	var rec MessageRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, chat.ErrMessageNotFound
		}
		return nil, err
	}
	return toMessage(&rec), nil
}

// deletedFor is the subquery of message ids the viewer has soft-deleted.
func (r *MessageRepository) deletedFor(viewerID string) *gorm.DB {
	return r.db.Table("message_deletions").Select("message_id").Where("user_id = ?", viewerID)
}

func (r *MessageRepository) ListBetween(ctx context.Context, viewerID, otherID string) ([]*chat.Message, error) {
	var recs []MessageRecord
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			viewerID, otherID, otherID, viewerID).
		Where("id NOT IN (?)", r.deletedFor(viewerID)).
		Order("timestamp ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	msgs := make([]*chat.Message, len(recs))
	for i := range recs {
		msgs[i] = toMessage(&recs[i])
	}
	return msgs, nil
}

func (r *MessageRepository) MarkReadFrom(ctx context.Context, senderID, receiverID string) error {
	return r.db.WithContext(ctx).Model(&MessageRecord{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, receiverID, false).
		Where("id NOT IN (?)", r.deletedFor(receiverID)).
		Update("is_read", true).Error
}

func (r *MessageRepository) CountUnreadFrom(ctx context.Context, senderID, receiverID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&MessageRecord{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, receiverID, false).
		Where("id NOT IN (?)", r.deletedFor(receiverID)).
		Count(&count).Error
	return count, err
}

func (r *MessageRepository) CountUnreadTotal(ctx context.Context, receiverID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&MessageRecord{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Where("id NOT IN (?)", r.deletedFor(receiverID)).
		Count(&count).Error
	return count, err
}

func (r *MessageRepository) UpdateBody(ctx context.Context, id, newBody string) error {
	result := r.db.WithContext(ctx).Model(&MessageRecord{}).
		Where("id = ?", id).
		Update("body", newBody)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return chat.ErrMessageNotFound
	}
	return nil
}

func (r *MessageRepository) HardDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", id).Delete(&MessageDeletionRecord{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&MessageRecord{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return chat.ErrMessageNotFound
		}
		return nil
	})
}

func (r *MessageRepository) SoftDeleteForViewer(ctx context.Context, viewerID, otherID string) error {
	var ids []string
	err := r.db.WithContext(ctx).Model(&MessageRecord{}).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			viewerID, otherID, otherID, viewerID).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	deletions := make([]MessageDeletionRecord, len(ids))
	for i, id := range ids {
		deletions[i] = MessageDeletionRecord{MessageID: id, UserID: viewerID}
	}
	// ON CONFLICT DO NOTHING keeps the set semantics: re-clearing a chat
	// never duplicates membership.
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&deletions).Error
}

func toMessage(rec *MessageRecord) *chat.Message {
	return &chat.Message{
		ID:         rec.ID,
		SenderID:   rec.SenderID,
		ReceiverID: rec.ReceiverID,
		Body:       rec.Body,
		Timestamp:  rec.Timestamp,
		IsRead:     rec.IsRead,
	}
}
