// Package ws exposes the chat engine over a websocket endpoint. Each
// connection is authenticated during the handshake, registered as a
// realtime session, and serviced by one reader and one writer goroutine.
package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/frahmantamala/org-chat/internal"
	"github.com/frahmantamala/org-chat/internal/chat"
	"github.com/frahmantamala/org-chat/internal/directory"
	"github.com/frahmantamala/org-chat/internal/realtime"
)

const defaultWriteTimeout = 5 * time.Second

// Authenticator resolves the handshake token to a user.
type Authenticator interface {
	VerifyToken(ctx context.Context, tokenString string) (*directory.User, error)
}

// ChatSender is the subset of the chat service the gateway drives.
type ChatSender interface {
	SendMessage(ctx context.Context, senderID string, dto chat.SendMessageDTO) (*chat.Message, error)
}

type Gateway struct {
	registry     *realtime.Registry
	chat         ChatSender
	auth         Authenticator
	origins      []string
	sendBuffer   int
	writeTimeout time.Duration
	logger       *slog.Logger
}

type Config struct {
	AllowedOrigins []string
	SendBuffer     int
	WriteTimeout   time.Duration
}

func NewGateway(registry *realtime.Registry, chatSvc ChatSender, auth Authenticator, cfg Config, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &Gateway{
		registry:     registry,
		chat:         chatSvc,
		auth:         auth,
		origins:      cfg.AllowedOrigins,
		sendBuffer:   cfg.SendBuffer,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// ServeHTTP upgrades the request and runs the connection until either
// side closes. Authentication uses a token query parameter because
// browsers cannot set headers on websocket handshakes.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if len(g.origins) > 0 {
		opts.OriginPatterns = g.origins
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		g.logger.Error("websocket accept failed", "error", err)
		return
	}

	user, err := g.auth.VerifyToken(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		g.logger.Warn("websocket handshake rejected", "error", err)
		_ = conn.Close(websocket.StatusPolicyViolation, "authentication failed")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	session := realtime.NewSession(user.ID, g.sendBuffer)
	g.registry.Join(session)
	defer g.registry.Leave(session.UserID, session.ID)

	g.logger.Info("websocket session opened",
		"user_id", user.ID, "session_id", session.ID)

	writeDone := make(chan struct{})
	go g.writePump(ctx, conn, session, writeDone)

	g.readPump(ctx, conn, session, user.ID)
	cancel()
	<-writeDone

	g.logger.Info("websocket session closed",
		"user_id", user.ID, "session_id", session.ID)
}

// writePump drains the session's event channel onto the wire. Each write
// carries its own deadline so one stuck client cannot pin the goroutine.
func (g *Gateway) writePump(ctx context.Context, conn *websocket.Conn, session *realtime.Session, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-session.Events():
			writeCtx, cancelWrite := context.WithTimeout(ctx, g.writeTimeout)
			err := wsjson.Write(writeCtx, conn, event)
			cancelWrite()
			if err != nil {
				_ = conn.Close(websocket.StatusNormalClosure, "write_failed")
				return
			}
		}
	}
}

// readPump decodes send intents one at a time. Intents from a single
// connection are processed sequentially in arrival order.
func (g *Gateway) readPump(ctx context.Context, conn *websocket.Conn, session *realtime.Session, userID string) {
	for {
		var dto chat.SendMessageDTO
		if err := wsjson.Read(ctx, conn, &dto); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				g.logger.Debug("websocket read ended", "user_id", userID, "error", err)
			}
			return
		}

		if _, err := g.chat.SendMessage(ctx, userID, dto); err != nil {
			session.Deliver(realtime.NewErrorEvent(denialReason(err)))
		}
	}
}

// denialReason maps a service error to the message shown to the client.
func denialReason(err error) string {
	var appErr *internal.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Server Error checking permissions"
}
