package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/org-chat/internal/auth"
	"github.com/frahmantamala/org-chat/internal/chat"
	"github.com/frahmantamala/org-chat/internal/realtime"
	"github.com/frahmantamala/org-chat/internal/transport/middleware"
	"github.com/frahmantamala/org-chat/internal/transport/swagger"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, registry *realtime.Registry, authHandler *auth.Handler, chatHandler *chat.Handler, wsGateway http.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, registry)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Websocket endpoint; authenticates via token query parameter
	if wsGateway != nil {
		router.Handle("/ws/chat", wsGateway)
	}

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
				sr.Post("/logout", authHandler.Logout)
			})
		}

		if authHandler != nil && chatHandler != nil {
			// Protected routes that require authentication
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)

				pr.Route("/chat", func(cr chi.Router) {
					cr.Get("/recent", chatHandler.RecentContacts)  // GET /chat/recent
					cr.Get("/search", chatHandler.SearchContacts)  // GET /chat/search?q=
					cr.Get("/unread", chatHandler.TotalUnread)     // GET /chat/unread
					cr.Post("/toggle", chatHandler.ToggleDisabled) // POST /chat/toggle
					cr.Get("/{userID}", chatHandler.History)       // GET /chat/:userID
					cr.Delete("/{userID}", chatHandler.ClearConversation)

					cr.Route("/messages", func(mr chi.Router) {
						mr.Put("/{id}", chatHandler.EditMessage) // PUT /chat/messages/:id
						mr.Delete("/{id}", chatHandler.DeleteMessage)
					})
				})
			})
		}
	})
}
