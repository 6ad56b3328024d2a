package realtime

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Session is one live connection belonging to a user. A user may hold any
// number of sessions concurrently; the registry groups them by user id.
type Session struct {
	ID     string
	UserID string
	send   chan any
}

func NewSession(userID string, buffer int) *Session {
	if buffer <= 0 {
		buffer = 16
	}
	return &Session{
		ID:     uuid.New().String(),
		UserID: userID,
		send:   make(chan any, buffer),
	}
}

// Events is drained by the connection's writer goroutine.
func (s *Session) Events() <-chan any {
	return s.send
}

// Deliver pushes an event to this session only, bypassing the registry.
// Used for per-connection errors that other sessions must not see.
func (s *Session) Deliver(event any) bool {
	return s.offer(event)
}

// offer attempts a non-blocking delivery. A session that cannot keep up
// loses the event rather than stalling the publisher.
func (s *Session) offer(event any) bool {
	select {
	case s.send <- event:
		return true
	default:
		return false
	}
}

// Registry maps each user id to their set of live sessions. All methods
// are safe under concurrent connect/disconnect.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*Session
	logger   *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]map[string]*Session),
		logger:   logger,
	}
}

func (r *Registry) Join(session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.sessions[session.UserID]
	if !ok {
		group = make(map[string]*Session)
		r.sessions[session.UserID] = group
	}
	group[session.ID] = session
}

// Leave is idempotent and safe to call even when Join never completed.
func (r *Registry) Leave(userID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.sessions[userID]
	if !ok {
		return
	}
	delete(group, sessionID)
	if len(group) == 0 {
		delete(r.sessions, userID)
	}
}

// MembersOf returns a snapshot of the user's live sessions.
func (r *Registry) MembersOf(userID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	group, ok := r.sessions[userID]
	if !ok {
		return nil
	}
	members := make([]*Session, 0, len(group))
	for _, s := range group {
		members = append(members, s)
	}
	return members
}

// SessionCount reports the number of live sessions across all users.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, group := range r.sessions {
		total += len(group)
	}
	return total
}

// Publish delivers the event to every live session of the user. Delivery
// is best-effort: no live session, or a full session buffer, means the
// event is dropped, never queued or retried. Returns the delivered count.
func (r *Registry) Publish(userID string, event any) int {
	delivered := 0
	for _, session := range r.MembersOf(userID) {
		if session.offer(event) {
			delivered++
		} else if r.logger != nil {
			r.logger.Warn("dropped event for slow session",
				"user_id", userID, "session_id", session.ID)
		}
	}
	return delivered
}
