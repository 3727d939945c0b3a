package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/skerrin/studylog/internal/config"
	"github.com/skerrin/studylog/internal/domain/identity"
	"github.com/skerrin/studylog/internal/domain/lesson"
	"github.com/skerrin/studylog/internal/mcp"
	"github.com/skerrin/studylog/internal/reminder"
	"github.com/skerrin/studylog/internal/sqlite"
	"github.com/skerrin/studylog/internal/transport"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.MCP.Mode == "stdio" {
		logWriter = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	lessonRepo := sqlite.NewLessonRepository(db)
	identityRepo := sqlite.NewIdentityRepository(db)

	identitySvc := identity.NewService(identityRepo, &logSender{logger: logger}, logger)

	views := lesson.NewCache()
	identitySvc.OnSignOut(views.Discard)
	lessonSvc := lesson.NewService(lessonRepo, views, logger)

	mcpServer := mcp.NewServer(mcp.Config{
		Lessons:       lessonSvc,
		Resolver:      &ownerResolver{identity: identitySvc},
		AuthEnabled:   true,
		TransportMode: cfg.MCP.Mode,
		Logger:        logger,
	})

	if cfg.MCP.Mode == "stdio" {
		runStdioMode(logger, mcpServer)
		return
	}

	var rem *reminder.Scheduler
	if cfg.Reminder.Enabled {
		rem = reminder.New(lessonRepo, &reminder.LogNotifier{Logger: logger},
			cfg.Reminder.StartHour, cfg.Reminder.EndHour, logger)
		rem.Start()
		defer rem.Stop()
	}

	handlers := transport.NewHandlers(lessonSvc, identitySvc, logger)
	router := transport.NewRouter(handlers, transport.AuthMiddleware(identitySvc))

	if cfg.MCP.Enabled {
		mcpHandler := sdkmcp.NewStreamableHTTPHandler(
			func(r *http.Request) *sdkmcp.Server { return mcpServer },
			&sdkmcp.StreamableHTTPOptions{
				Stateless:      false,
				SessionTimeout: 30 * time.Minute,
			},
		)
		router.PathPrefix("/mcp").Handler(mcpHandler)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) {
	logger.Info("starting stdio transport", "auth", "disabled")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil {
		logger.Error("stdio server error", "error", err)
		os.Exit(1)
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// logSender writes magic-link codes to the log. A real mail transport can be
// swapped in without touching the identity service.
type logSender struct {
	logger *slog.Logger
}

func (s *logSender) SendMagicLink(email, code string) error {
	s.logger.Info("magic link issued", "email", email, "code", code)
	return nil
}

type ownerResolver struct {
	identity *identity.Service
}

func (r *ownerResolver) ResolveOwner(ctx context.Context, token string) (string, error) {
	p, err := r.identity.Resolve(ctx, token)
	if err != nil {
		return "", err
	}
	return p.UserID, nil
}
