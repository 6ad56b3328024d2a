package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/org-chat/internal"
	"github.com/frahmantamala/org-chat/internal/core/common/validation"
	"github.com/frahmantamala/org-chat/internal/core/events"
	"github.com/frahmantamala/org-chat/internal/directory"
	"github.com/frahmantamala/org-chat/internal/permission"
)

// EventPublisher is the slice of the event bus the chat service needs.
// Fanout to live sessions hangs off these events; persistence never waits
// for delivery.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Service orchestrates every chat mutation: permission check, persistence,
// then event publish, in that order.
type Service struct {
	conversations ConversationRepositoryAPI
	messages      MessageRepositoryAPI
	directory     directory.ServiceAPI
	publisher     EventPublisher
	logger        *slog.Logger
}

func NewService(
	conversations ConversationRepositoryAPI,
	messages MessageRepositoryAPI,
	dir directory.ServiceAPI,
	publisher EventPublisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		conversations: conversations,
		messages:      messages,
		directory:     dir,
		publisher:     publisher,
		logger:        logger,
	}
}

// checkSendPermission resolves both parties and the conversation state and
// runs the decision engine. Lookup failures deny (fail closed).
func (s *Service) checkSendPermission(ctx context.Context, senderID, receiverID string) (*internal.AppError, permission.ConversationState) {
	sender, err := s.directory.GetUser(ctx, senderID)
	if err != nil {
		return s.lookupDenial(err, senderID), permission.ConversationState{}
	}
	receiver, err := s.directory.GetUser(ctx, receiverID)
	if err != nil {
		return s.lookupDenial(err, receiverID), permission.ConversationState{}
	}

	state := permission.ConversationState{}
	conv, err := s.conversations.FindByPair(ctx, senderID, receiverID)
	switch {
	case err == nil:
		state.Exists = true
		state.Disabled = conv.IsDisabled
	case errors.Is(err, ErrConversationNotFound):
		// First contact: no record yet.
	default:
		s.logger.Error("permission check: conversation lookup failed", "error", err,
			"sender_id", senderID, "receiver_id", receiverID)
		return internal.NewPermissionDeniedError("Server Error checking permissions"), state
	}

	decision := permission.Decide(
		permission.Principal{Role: sender.Role, DepartmentID: sender.DepartmentID},
		permission.Principal{Role: receiver.Role, DepartmentID: receiver.DepartmentID},
		state,
	)
	if !decision.Allowed {
		return internal.NewPermissionDeniedError(decision.Reason), state
	}
	return nil, state
}

func (s *Service) lookupDenial(err error, userID string) *internal.AppError {
	if errors.Is(err, directory.ErrUserNotFound) {
		return internal.NewPermissionDeniedError("User not found")
	}
	s.logger.Error("permission check: directory lookup failed", "error", err, "user_id", userID)
	return internal.NewPermissionDeniedError("Server Error checking permissions")
}

// SendMessage persists one direct message after the permission engine
// allows it, updates the pair's conversation summary, and publishes the
// message for fanout. The returned message carries the assigned id and
// timestamp so the sender can reconcile an optimistic local copy.
func (s *Service) SendMessage(ctx context.Context, senderID string, dto SendMessageDTO) (*Message, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if denial, _ := s.checkSendPermission(ctx, senderID, dto.ReceiverID); denial != nil {
		s.logger.Info("message denied",
			"sender_id", senderID, "receiver_id", dto.ReceiverID, "reason", denial.Message)
		return nil, denial
	}

	msg := &Message{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: dto.ReceiverID,
		Body:       dto.Body,
		Timestamp:  time.Now().UTC(),
	}

	if err := s.messages.Append(ctx, msg); err != nil {
		s.logger.Error("failed to append message", "error", err, "sender_id", senderID)
		return nil, internal.NewInternalError("failed to store message", err)
	}

	if err := s.conversations.UpsertOnMessage(ctx, senderID, dto.ReceiverID, msg.Body, msg.Timestamp); err != nil {
		// The message is already persisted; the summary will catch up on
		// the next send. Known gap: append and upsert are not one tx.
		s.logger.Error("failed to upsert conversation", "error", err,
			"sender_id", senderID, "receiver_id", dto.ReceiverID)
	}

	s.publish(ctx, events.NewMessageSentEvent(msg.ID, msg.SenderID, msg.ReceiverID, msg.Body, msg.Timestamp))

	s.logger.Info("message sent",
		"message_id", msg.ID, "sender_id", senderID, "receiver_id", dto.ReceiverID)

	return msg, nil
}

// History returns all messages between the caller and the other user in
// ascending timestamp order, minus the ones the caller soft-deleted. As a
// side effect it marks the other party's unread messages as read.
func (s *Service) History(ctx context.Context, userID, otherUserID string) (*HistoryView, error) {
	if err := s.messages.MarkReadFrom(ctx, otherUserID, userID); err != nil {
		s.logger.Error("failed to mark messages read", "error", err,
			"user_id", userID, "other_user_id", otherUserID)
		return nil, internal.NewInternalError("failed to mark messages read", err)
	}

	isDisabled := false
	conv, err := s.conversations.FindByPair(ctx, userID, otherUserID)
	if err == nil {
		isDisabled = conv.IsDisabled
	} else if !errors.Is(err, ErrConversationNotFound) {
		return nil, internal.NewInternalError("failed to load conversation", err)
	}

	msgs, err := s.messages.ListBetween(ctx, userID, otherUserID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load messages", err)
	}

	view := &HistoryView{
		Messages:   make([]MessageView, 0, len(msgs)),
		IsDisabled: isDisabled,
	}
	for _, m := range msgs {
		view.Messages = append(view.Messages, MessageView{
			ID:        m.ID,
			Sender:    m.SenderID,
			Body:      m.Body,
			Timestamp: m.Timestamp,
		})
	}
	return view, nil
}

// RecentContacts lists the caller's conversations sorted by recency with
// unread counts, then merges in role-based suggestions for contacts the
// caller has never spoken to: employees see their department head(s) at the
// top, department heads see their employees at the bottom.
func (s *Service) RecentContacts(ctx context.Context, userID string) ([]*ContactView, error) {
	convs, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list conversations", err)
	}

	results := make([]*ContactView, 0, len(convs))
	existingPartners := make(map[string]struct{}, len(convs))

	for _, conv := range convs {
		otherID := conv.OtherParticipant(userID)
		existingPartners[otherID] = struct{}{}

		other, err := s.directory.GetUser(ctx, otherID)
		if err != nil {
			// Partner may have left the org; skip the row like the
			// directory no longer knowing them.
			continue
		}

		unread, err := s.messages.CountUnreadFrom(ctx, otherID, userID)
		if err != nil {
			return nil, internal.NewInternalError("failed to count unread messages", err)
		}

		results = append(results, &ContactView{
			ConversationID: conv.ID,
			User:           other,
			LastMessage:    conv.LastMessage,
			UpdatedAt:      conv.UpdatedAt,
			IsDisabled:     conv.IsDisabled,
			UnreadCount:    unread,
		})
	}

	viewer, err := s.directory.GetUser(ctx, userID)
	if err != nil {
		// No suggestions without a directory record, but the existing
		// conversations are still valid.
		return results, nil
	}

	suggestions, err := s.directory.SuggestedContacts(ctx, viewer)
	if err != nil {
		s.logger.Error("failed to load suggested contacts", "error", err, "user_id", userID)
		return results, nil
	}

	now := time.Now().UTC()
	for _, suggested := range suggestions {
		if suggested.ID == userID {
			continue
		}
		if _, exists := existingPartners[suggested.ID]; exists {
			continue
		}
		entry := &ContactView{
			ConversationID: "new_" + suggested.ID,
			User:           suggested,
			UpdatedAt:      now,
		}
		if viewer.Role == directory.RoleEmployee {
			entry.LastMessage = "Start conversation with Dept Head"
			results = append([]*ContactView{entry}, results...)
		} else {
			entry.LastMessage = "Tap to chat"
			results = append(results, entry)
		}
	}

	return results, nil
}

// SearchContacts finds users by name or employee-id fragment, restricted to
// the targets the caller's role may reach.
func (s *Service) SearchContacts(ctx context.Context, userID, query string) ([]*directory.User, error) {
	users, err := s.directory.Search(ctx, userID, query, 0)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return []*directory.User{}, nil
		}
		return nil, internal.NewInternalError("failed to search users", err)
	}
	return users, nil
}

// ToggleDisabled flips a pair's disabled flag. Admins may act on anyone;
// department heads only on employees of their own department, never on
// admins; employees never.
func (s *Service) ToggleDisabled(ctx context.Context, requesterID string, dto ToggleDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	requester, err := s.directory.GetUser(ctx, requesterID)
	if err != nil {
		return s.toggleLookupErr(err)
	}
	target, err := s.directory.GetUser(ctx, dto.TargetUserID)
	if err != nil {
		return s.toggleLookupErr(err)
	}

	switch requester.Role {
	case directory.RoleAdmin:
		// Admin can disable any pair.
	case directory.RoleDepartmentHead:
		if target.Role == directory.RoleAdmin {
			return internal.NewForbiddenError("You cannot block an Admin", internal.ErrCodeCannotDisable)
		}
		if target.Role != directory.RoleEmployee || requester.DepartmentID != target.DepartmentID {
			return internal.NewForbiddenError("You can only block employees in your department", internal.ErrCodeCannotDisable)
		}
	default:
		return internal.NewForbiddenError("Employees cannot disable chats", internal.ErrCodeCannotDisable)
	}

	disabled := dto.Action == ToggleActionDisable
	if err := s.conversations.SetDisabled(ctx, requesterID, dto.TargetUserID, disabled); err != nil {
		s.logger.Error("failed to set conversation disabled flag", "error", err,
			"requester_id", requesterID, "target_user_id", dto.TargetUserID)
		return internal.NewInternalError("failed to update conversation", err)
	}

	s.publish(ctx, events.NewStatusChangedEvent(disabled, []string{requesterID, dto.TargetUserID}))

	s.logger.Info("conversation status changed",
		"requester_id", requesterID, "target_user_id", dto.TargetUserID, "disabled", disabled)

	return nil
}

func (s *Service) toggleLookupErr(err error) error {
	if errors.Is(err, directory.ErrUserNotFound) {
		return internal.ErrUserNotFound
	}
	return internal.NewInternalError("failed to resolve user", err)
}

// ClearForMe soft-deletes every message between the caller and the other
// user for the caller only; the other party's history is untouched.
func (s *Service) ClearForMe(ctx context.Context, requesterID, otherUserID string) error {
	if otherUserID == "" {
		return internal.NewValidationError("other user is required", internal.ErrCodeMissingReceiver)
	}

	if err := s.messages.SoftDeleteForViewer(ctx, requesterID, otherUserID); err != nil {
		s.logger.Error("failed to clear chat", "error", err,
			"requester_id", requesterID, "other_user_id", otherUserID)
		return internal.NewInternalError("failed to clear chat", err)
	}

	s.publish(ctx, events.NewChatActivityEvent(
		events.ActivityClearChat, requesterID, "", "", []string{requesterID, otherUserID}))

	return nil
}

// EditMessage replaces a message's text. Only the original sender may edit,
// regardless of who has soft-deleted the message.
func (s *Service) EditMessage(ctx context.Context, requesterID, messageID, newText string) error {
	if newText == "" {
		return internal.ErrEmptyMessage
	}
	if err := validation.ValidateMessageBody(newText); err != nil {
		return err
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, ErrMessageNotFound) {
			return internal.ErrMessageNotFound
		}
		return internal.NewInternalError("failed to load message", err)
	}
	if msg.SenderID != requesterID {
		return internal.ErrNotSender
	}

	if err := s.messages.UpdateBody(ctx, messageID, newText); err != nil {
		return internal.NewInternalError("failed to edit message", err)
	}

	s.publish(ctx, events.NewChatActivityEvent(
		events.ActivityEditMessage, requesterID, messageID, newText,
		[]string{msg.SenderID, msg.ReceiverID}))

	return nil
}

// DeleteMessage removes a message for both parties. Sender-only; a second
// delete of the same id reports not found.
func (s *Service) DeleteMessage(ctx context.Context, requesterID, messageID string) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, ErrMessageNotFound) {
			return internal.ErrMessageNotFound
		}
		return internal.NewInternalError("failed to load message", err)
	}
	if msg.SenderID != requesterID {
		return internal.ErrNotSender
	}

	if err := s.messages.HardDelete(ctx, messageID); err != nil {
		if errors.Is(err, ErrMessageNotFound) {
			return internal.ErrMessageNotFound
		}
		return internal.NewInternalError("failed to delete message", err)
	}

	s.publish(ctx, events.NewChatActivityEvent(
		events.ActivityDeleteMessage, requesterID, messageID, "",
		[]string{msg.SenderID, msg.ReceiverID}))

	return nil
}

// TotalUnread counts unread messages addressed to the user, excluding ones
// they soft-deleted. Backs the dashboard badge.
func (s *Service) TotalUnread(ctx context.Context, userID string) (int64, error) {
	count, err := s.messages.CountUnreadTotal(ctx, userID)
	if err != nil {
		return 0, internal.NewInternalError("failed to count unread messages", err)
	}
	return count, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish chat event", "error", err, "event_type", event.EventType())
	}
}
