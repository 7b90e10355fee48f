package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerAppTools() {
	// ── list_apps ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_apps",
		mcp.WithDescription("List all applications"),
	), s.handleListApps)

	// ── create_app ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_app",
		mcp.WithDescription("Create a new, empty application and open it in the editor"),
		mcp.WithString("name", mcp.Description("Application name"), mcp.Required()),
	), s.handleCreateApp)

	// ── open_app ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("open_app",
		mcp.WithDescription("Open an application in the editor and return its widgets"),
		mcp.WithString("appId", mcp.Description("Application ID"), mcp.Required()),
	), s.handleOpenApp)

	// ── canvas_history ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("canvas_history",
		mcp.WithDescription("List recorded canvas snapshots of an application, newest first"),
		mcp.WithString("appId", mcp.Description("Application ID"), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Maximum number of snapshots (optional, default 20)")),
	), s.handleCanvasHistory)

	// ── restore_snapshot (destructive) ─────────────────
	s.mcp.AddTool(mcp.NewTool("restore_snapshot",
		mcp.WithDescription("DESTRUCTIVE: Replace all widgets of an application with a recorded snapshot."),
		mcp.WithString("appId", mcp.Description("Application ID"), mcp.Required()),
		mcp.WithString("entryId", mcp.Description("Snapshot ID from canvas_history"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRestoreSnapshot)
}

type appSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Widgets int    `json:"widgets"`
	Open    bool   `json:"open"`
}

func (s *Server) handleListApps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	apps, err := s.apps.ListApps(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]appSummary, len(apps))
	for i, a := range apps {
		summaries[i] = appSummary{ID: a.ID, Name: a.Name, Widgets: len(a.Components), Open: s.editor.IsOpen(a.ID)}
	}
	return jsonResult(summaries)
}

func (s *Server) handleCreateApp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requireString(req.GetArguments(), "name")
	if err != nil {
		return nil, err
	}
	app, err := s.apps.CreateApp(ctx, name)
	if err != nil {
		return nil, err
	}
	if _, err := s.editor.Open(ctx, app.ID); err != nil {
		return nil, err
	}
	return jsonResult(appSummary{ID: app.ID, Name: app.Name, Open: true})
}

func (s *Server) handleOpenApp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	appID, err := requireString(req.GetArguments(), "appId")
	if err != nil {
		return nil, err
	}
	v, err := s.editor.Open(ctx, appID)
	if err != nil {
		return nil, err
	}
	return jsonResult(v)
}

type historySummary struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Widgets   int    `json:"widgets"`
	CreatedAt string `json:"createdAt"`
}

func (s *Server) handleCanvasHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	appID, err := requireString(args, "appId")
	if err != nil {
		return nil, err
	}
	entries, err := s.editor.History(ctx, appID, getInt(args, "limit", 20))
	if err != nil {
		return nil, err
	}
	out := make([]historySummary, len(entries))
	for i, e := range entries {
		out[i] = historySummary{
			ID:        e.ID,
			Label:     e.Label,
			Widgets:   len(e.Components),
			CreatedAt: e.CreatedAt.Format("2006-01-02 15:04:05.000"),
		}
	}
	return jsonResult(out)
}

func (s *Server) handleRestoreSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	appID, err := requireString(args, "appId")
	if err != nil {
		return nil, err
	}
	entryID, err := requireString(args, "entryId")
	if err != nil {
		return nil, err
	}
	if err := s.editor.RestoreSnapshot(ctx, appID, entryID); err != nil {
		return nil, err
	}
	s.emitCanvasChanged(ctx, appID, "")
	return textResult(fmt.Sprintf("Restored snapshot %s", entryID)), nil
}
