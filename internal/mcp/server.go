package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"appbuilder/internal/service"
	"appbuilder/internal/widgets"
)

// EventCanvasChanged is emitted after every gesture made through a tool.
const EventCanvasChanged = "mcp:canvas-changed"

// Server is the MCP server of the app builder.
// It exposes tools, resources, and prompts so AI agents can lay out widgets.
type Server struct {
	mcp      *server.MCPServer
	emitter  service.EventEmitter
	apps     *service.AppService
	editor   *service.EditorService
	registry *widgets.Registry
	log      *zap.Logger
}

// Deps holds all dependencies passed from the command layer to the MCP server.
type Deps struct {
	Emitter  service.EventEmitter
	Apps     *service.AppService
	Editor   *service.EditorService
	Registry *widgets.Registry
	Logger   *zap.Logger
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	if deps.Emitter == nil {
		deps.Emitter = service.NoopEmitter{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	s := &Server{
		emitter:  deps.Emitter,
		apps:     deps.Apps,
		editor:   deps.Editor,
		registry: deps.Registry,
		log:      deps.Logger.Named("mcp"),
	}

	s.mcp = server.NewMCPServer(
		"appbuilder-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerAppTools()
	s.registerCanvasTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// MCP exposes the underlying server, mainly for in-process clients.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// Listen serves MCP over the given streams until ctx is done or in reaches EOF.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.log))
	s.log.Info("starting stdio server")
	err := stdio.Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ── Helpers ────────────────────────────────────────────────

// emitCanvasChanged notifies listeners that widgets changed on an app.
func (s *Server) emitCanvasChanged(ctx context.Context, appID, widgetID string) {
	s.emitter.Emit(ctx, EventCanvasChanged, map[string]string{"appId": appID, "widgetId": widgetID})
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// ensureOpen opens the app in the editor if no canvas exists for it yet.
func (s *Server) ensureOpen(ctx context.Context, appID string) error {
	if s.editor.IsOpen(appID) {
		return nil
	}
	_, err := s.editor.Open(ctx, appID)
	return err
}
