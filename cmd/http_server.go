package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/org-chat/internal"
	"github.com/frahmantamala/org-chat/internal/auth"
	"github.com/frahmantamala/org-chat/internal/chat"
	chatpostgres "github.com/frahmantamala/org-chat/internal/chat/postgres"
	"github.com/frahmantamala/org-chat/internal/core/events"
	"github.com/frahmantamala/org-chat/internal/directory"
	directorypostgres "github.com/frahmantamala/org-chat/internal/directory/postgres"
	"github.com/frahmantamala/org-chat/internal/realtime"
	"github.com/frahmantamala/org-chat/internal/transport/rest"
	"github.com/frahmantamala/org-chat/internal/transport/ws"
	"github.com/frahmantamala/org-chat/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server and websocket gateway`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Router   *chi.Mux
	Registry *realtime.Registry
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	// Domain wiring: directory -> chat -> event bus -> realtime fanout.
	directoryRepo := directorypostgres.NewDirectoryRepository(gormDB)
	directorySvc := directory.NewService(directoryRepo, lg)

	bus := events.NewEventBus(lg)
	registry := realtime.NewRegistry(lg)
	hub := realtime.NewHub(registry, lg)
	hub.Attach(bus)

	chatSvc := chat.NewService(
		chatpostgres.NewConversationRepository(gormDB),
		chatpostgres.NewMessageRepository(gormDB),
		directorySvc,
		bus,
		lg,
	)

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authSvc := auth.NewService(directoryRepo, tokenGen)

	gateway := ws.NewGateway(registry, chatSvc, authSvc, ws.Config{
		AllowedOrigins: splitOrigins(config.Websocket.AllowedOrigins),
		SendBuffer:     config.Websocket.SendBuffer,
		WriteTimeout:   config.Websocket.WriteTimeout,
	}, lg)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, registry,
		auth.NewHandler(authSvc), chat.NewHandler(chatSvc), gateway, lg)

	return &Dependencies{
		Config:   config,
		Logger:   lg,
		DB:       db,
		Router:   router,
		Registry: registry,
	}, nil
}

func splitOrigins(origins string) []string {
	if origins == "" {
		return nil
	}
	parts := strings.Split(origins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
