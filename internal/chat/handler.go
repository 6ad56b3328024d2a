package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/org-chat/internal/auth"
	"github.com/frahmantamala/org-chat/internal/directory"
	"github.com/frahmantamala/org-chat/internal/transport"
	"github.com/frahmantamala/org-chat/pkg/logger"
)

type ServiceAPI interface {
	SendMessage(ctx context.Context, senderID string, dto SendMessageDTO) (*Message, error)
	History(ctx context.Context, userID, otherUserID string) (*HistoryView, error)
	RecentContacts(ctx context.Context, userID string) ([]*ContactView, error)
	SearchContacts(ctx context.Context, userID, query string) ([]*directory.User, error)
	ToggleDisabled(ctx context.Context, requesterID string, dto ToggleDTO) error
	ClearForMe(ctx context.Context, requesterID, otherUserID string) error
	EditMessage(ctx context.Context, requesterID, messageID, newText string) error
	DeleteMessage(ctx context.Context, requesterID, messageID string) error
	TotalUnread(ctx context.Context, userID string) (int64, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// History returns the visible conversation with another user and marks
// their messages as read.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	otherUserID := chi.URLParam(r, "userID")
	if otherUserID == "" {
		h.WriteError(w, http.StatusBadRequest, "missing user ID")
		return
	}

	history, err := h.Service.History(r.Context(), user.ID, otherUserID)
	if err != nil {
		h.Logger.Error("History: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, history)
}

// RecentContacts lists conversation partners ordered by recent activity,
// with role-based suggestions when appropriate.
func (h *Handler) RecentContacts(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	contacts, err := h.Service.RecentContacts(r.Context(), user.ID)
	if err != nil {
		h.Logger.Error("RecentContacts: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, contacts)
}

// SearchContacts finds users the caller is allowed to see.
func (h *Handler) SearchContacts(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	results, err := h.Service.SearchContacts(r.Context(), user.ID, r.URL.Query().Get("q"))
	if err != nil {
		h.Logger.Error("SearchContacts: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, results)
}

// ToggleDisabled disables or re-enables the conversation with the target
// user, subject to the caller's role.
func (h *Handler) ToggleDisabled(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto ToggleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.ToggleDisabled(r.Context(), user.ID, dto); err != nil {
		h.Logger.Error("ToggleDisabled: service error", "error", err,
			"user_id", user.ID, "target_user_id", dto.TargetUserID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ClearConversation hides the conversation's current messages for the
// caller only; the other participant keeps their copy.
func (h *Handler) ClearConversation(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	otherUserID := chi.URLParam(r, "userID")
	if otherUserID == "" {
		h.WriteError(w, http.StatusBadRequest, "missing user ID")
		return
	}

	if err := h.Service.ClearForMe(r.Context(), user.ID, otherUserID); err != nil {
		h.Logger.Error("ClearConversation: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// EditMessage replaces a message's text. Only the sender may edit.
func (h *Handler) EditMessage(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	messageID := chi.URLParam(r, "id")

	var dto EditMessageDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.EditMessage(r.Context(), user.ID, messageID, dto.Body); err != nil {
		h.Logger.Error("EditMessage: service error", "error", err,
			"user_id", user.ID, "message_id", messageID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DeleteMessage removes a message for both participants. Only the sender
// may delete.
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	messageID := chi.URLParam(r, "id")

	if err := h.Service.DeleteMessage(r.Context(), user.ID, messageID); err != nil {
		h.Logger.Error("DeleteMessage: service error", "error", err,
			"user_id", user.ID, "message_id", messageID)
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TotalUnread reports the caller's unread count across all conversations.
func (h *Handler) TotalUnread(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	count, err := h.Service.TotalUnread(r.Context(), user.ID)
	if err != nil {
		h.Logger.Error("TotalUnread: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]int64{"unread_count": count})
}
