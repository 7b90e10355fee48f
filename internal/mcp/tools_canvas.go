package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"appbuilder/internal/canvas"
	"appbuilder/internal/domain"
)

func (s *Server) registerCanvasTools() {
	// ── list_widget_types ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_widget_types",
		mcp.WithDescription("List the widget types that can be dropped on the canvas"),
	), s.handleListWidgetTypes)

	// ── list_widgets ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_widgets",
		mcp.WithDescription("List the widgets of an application, ordered top to bottom"),
		mcp.WithString("appId", mcp.Description("Application ID"), mcp.Required()),
		mcp.WithString("type", mcp.Description("Filter by widget type (optional)")),
	), s.handleListWidgets)

	// ── drop_widget ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("drop_widget",
		mcp.WithDescription("Drop a widget on the canvas. The position is the anchor plus the drag delta; with autoPlace the first free grid slot is used."),
		mcp.WithString("appId", mcp.Description("Application ID"), mcp.Required()),
		mcp.WithString("type", mcp.Description("Widget type, see list_widget_types"), mcp.Required()),
		mcp.WithNumber("dx", mcp.Description("Horizontal drag delta (optional, default 0)")),
		mcp.WithNumber("dy", mcp.Description("Vertical drag delta (optional, default 0)")),
		mcp.WithNumber("anchorX", mcp.Description("Anchor X (optional, defaults to the canvas origin)")),
		mcp.WithNumber("anchorY", mcp.Description("Anchor Y (optional, defaults to the canvas origin)")),
		mcp.WithNumber("width", mcp.Description("Width (optional, uses the type default)")),
		mcp.WithNumber("height", mcp.Description("Height (optional, uses the type default)")),
		mcp.WithString("widgetId", mcp.Description("Re-drop an existing widget under this ID (optional)")),
		mcp.WithBoolean("autoPlace", mcp.Description("Ignore the delta and place the widget in the first free slot")),
	), s.handleDropWidget)

	// ── move_widget ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_widget",
		mcp.WithDescription("Move a widget to a new position"),
		mcp.WithString("appId", mcp.Description("Application ID"), mcp.Required()),
		mcp.WithString("widgetId", mcp.Description("Widget ID"), mcp.Required()),
		mcp.WithNumber("left", mcp.Description("New left coordinate"), mcp.Required()),
		mcp.WithNumber("top", mcp.Description("New top coordinate"), mcp.Required()),
	), s.handleMoveWidget)

	// ── resize_widget ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("resize_widget",
		mcp.WithDescription("Resize a widget. The new size is width+deltaWidth by height+deltaHeight."),
		mcp.WithString("appId", mcp.Description("Application ID"), mcp.Required()),
		mcp.WithString("widgetId", mcp.Description("Widget ID"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("Width at the start of the gesture"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("Height at the start of the gesture"), mcp.Required()),
		mcp.WithNumber("deltaWidth", mcp.Description("Width change (optional, default 0)")),
		mcp.WithNumber("deltaHeight", mcp.Description("Height change (optional, default 0)")),
	), s.handleResizeWidget)
}

type typeSummary struct {
	Type        string      `json:"type"`
	DisplayName string      `json:"displayName"`
	Description string      `json:"description"`
	DefaultSize domain.Size `json:"defaultSize"`
}

func (s *Server) handleListWidgetTypes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	types := s.registry.List()
	out := make([]typeSummary, len(types))
	for i, d := range types {
		out[i] = typeSummary{
			Type:        string(d.Component),
			DisplayName: d.DisplayName,
			Description: d.Description,
			DefaultSize: d.DefaultSize,
		}
	}
	return jsonResult(out)
}

// widgetSummary is a compact representation of a placed widget for LLM consumption.
type widgetSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Left   int    `json:"left"`
	Top    int    `json:"top"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func summarizeBox(b domain.Box) widgetSummary {
	return widgetSummary{
		ID:     b.ID,
		Name:   b.Component.Name,
		Type:   string(b.Component.Component),
		Left:   b.Left,
		Top:    b.Top,
		Width:  b.Width,
		Height: b.Height,
	}
}

func (s *Server) handleListWidgets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	appID, err := requireString(args, "appId")
	if err != nil {
		return nil, err
	}
	if err := s.ensureOpen(ctx, appID); err != nil {
		return nil, err
	}
	v, err := s.editor.View(appID)
	if err != nil {
		return nil, err
	}

	filter, _ := args["type"].(string)
	out := make([]widgetSummary, 0, len(v.Boxes))
	for _, b := range v.Boxes {
		if filter != "" && !strings.EqualFold(string(b.Component.Component), filter) {
			continue
		}
		out = append(out, summarizeBox(b))
	}
	return jsonResult(out)
}

func (s *Server) handleDropWidget(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	appID, err := requireString(args, "appId")
	if err != nil {
		return nil, err
	}
	typ, err := requireString(args, "type")
	if err != nil {
		return nil, err
	}
	if err := s.ensureOpen(ctx, appID); err != nil {
		return nil, err
	}

	drop := canvas.DropRequest{
		Type:  domain.WidgetType(typ),
		Delta: domain.Delta{DX: getFloat(args, "dx", 0), DY: getFloat(args, "dy", 0)},
	}
	if id, ok := args["widgetId"].(string); ok {
		drop.ID = id
	}
	if w, h := getInt(args, "width", 0), getInt(args, "height", 0); w > 0 || h > 0 {
		drop.Size = &domain.Size{Width: w, Height: h}
	}
	_, hasX := args["anchorX"]
	_, hasY := args["anchorY"]
	if hasX || hasY {
		drop.Anchor = &domain.Point{X: getInt(args, "anchorX", 0), Y: getInt(args, "anchorY", 0)}
	}

	if getBool(args, "autoPlace") {
		p, err := s.autoPlace(appID, drop)
		if err != nil {
			return nil, err
		}
		drop.Anchor = &p
		drop.Delta = domain.Delta{}
	}

	box, err := s.editor.DropWidget(ctx, appID, drop)
	if err != nil {
		return nil, err
	}
	s.emitCanvasChanged(ctx, appID, box.ID)
	return jsonResult(summarizeBox(box))
}

// autoPlace finds a free slot for the widget a drop request would create.
func (s *Server) autoPlace(appID string, drop canvas.DropRequest) (domain.Point, error) {
	desc, ok := s.registry.Lookup(drop.Type)
	if !ok {
		return domain.Point{}, fmt.Errorf("%w: %q", canvas.ErrUnknownWidgetType, drop.Type)
	}
	size := desc.DefaultSize
	if drop.Size != nil {
		if drop.Size.Width > 0 {
			size.Width = drop.Size.Width
		}
		if drop.Size.Height > 0 {
			size.Height = drop.Size.Height
		}
	}
	v, err := s.editor.View(appID)
	if err != nil {
		return domain.Point{}, err
	}
	boxes := make(domain.Components, len(v.Boxes))
	for _, b := range v.Boxes {
		if b.ID != drop.ID {
			boxes[b.ID] = b
		}
	}
	return canvas.NextPosition(boxes, size, s.editor.Options().GridSize), nil
}

func (s *Server) handleMoveWidget(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	appID, err := requireString(args, "appId")
	if err != nil {
		return nil, err
	}
	widgetID, err := requireString(args, "widgetId")
	if err != nil {
		return nil, err
	}
	if err := s.ensureOpen(ctx, appID); err != nil {
		return nil, err
	}

	box, err := s.editor.MoveWidget(ctx, appID, widgetID, getInt(args, "left", 0), getInt(args, "top", 0))
	if err != nil {
		return nil, err
	}
	s.emitCanvasChanged(ctx, appID, box.ID)
	return jsonResult(summarizeBox(box))
}

func (s *Server) handleResizeWidget(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	appID, err := requireString(args, "appId")
	if err != nil {
		return nil, err
	}
	widgetID, err := requireString(args, "widgetId")
	if err != nil {
		return nil, err
	}
	if err := s.ensureOpen(ctx, appID); err != nil {
		return nil, err
	}

	box, err := s.editor.ResizeWidget(ctx, appID, widgetID, canvas.ResizeRequest{
		Width:       getInt(args, "width", 0),
		Height:      getInt(args, "height", 0),
		DeltaWidth:  getInt(args, "deltaWidth", 0),
		DeltaHeight: getInt(args, "deltaHeight", 0),
	})
	if err != nil {
		return nil, err
	}
	s.emitCanvasChanged(ctx, appID, box.ID)
	return jsonResult(summarizeBox(box))
}
