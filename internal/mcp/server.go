// Package mcp exposes the lesson tracker to AI assistants over the Model
// Context Protocol.
package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/skerrin/studylog/internal/domain/lesson"
)

const serverInstructions = `studylog tracks lessons a learner is working through.

Each lesson has a status (Todo, Doing, Done, Blocked), a priority from 1
(lowest) to 5 (highest), optional tags and notes, and a spaced-repetition
review schedule. Reviewing a lesson advances its review level and pushes
the next review further out.

Use list_lessons to see the current collection (filters are optional),
add_lesson and edit_lesson to maintain it, and review_lesson when the
learner has just reviewed something. import_lessons accepts loosely
structured JSON exported from other tools.`

// LessonService defines lesson operations needed by the tool surface.
type LessonService interface {
	Create(ctx context.Context, ownerID string, req lesson.CreateRequest) (*lesson.Lesson, error)
	Edit(ctx context.Context, ownerID string, req lesson.EditRequest) (*lesson.Lesson, error)
	Review(ctx context.Context, ownerID, id string) (*lesson.Lesson, error)
	Delete(ctx context.Context, ownerID, id string) error
	Refresh(ctx context.Context, ownerID string) ([]lesson.Lesson, error)
	Select(ownerID string, f lesson.Filter, showFuture bool, key lesson.SortKey) []lesson.Lesson
	Import(ctx context.Context, ownerID string, payload []byte) (int, error)
	Export(ctx context.Context, ownerID string) ([]byte, error)
}

// Config contains server configuration.
type Config struct {
	Lessons       LessonService
	Resolver      OwnerResolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "studylog",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	// Stdio mode is local-only, so auth is always off there.
	if cfg.TransportMode == "stdio" || !cfg.AuthEnabled {
		server.AddReceivingMiddleware(noAuthMiddleware("local"))
	} else {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	}

	registerTools(server, cfg.Lessons)

	return server
}
