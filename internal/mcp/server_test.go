package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appbuilder/internal/canvas"
	"appbuilder/internal/service"
	"appbuilder/internal/storage"
	"appbuilder/internal/widgets"
)

func newTestServer(t *testing.T) (*Server, *service.MockEmitter) {
	t.Helper()
	return newTestServerWith(t, canvas.Options{})
}

func newTestServerWith(t *testing.T, opts canvas.Options) (*Server, *service.MockEmitter) {
	t.Helper()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "mcp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	apps := storage.NewAppStore(db)
	history := storage.NewHistoryStore(db)
	emitter := &service.MockEmitter{}
	registry := widgets.Default()
	opts.Types = registry
	editor := service.NewEditorService(service.EditorDeps{
		Apps:    apps,
		History: history,
		Emitter: emitter,
		Canvas:  opts,
	})
	s := New(Deps{
		Emitter:  emitter,
		Apps:     service.NewAppService(apps, history, editor, emitter, nil),
		Editor:   editor,
		Registry: registry,
	})
	return s, emitter
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func decode[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	var out T
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func createApp(t *testing.T, s *Server, name string) string {
	t.Helper()
	res, err := s.handleCreateApp(context.Background(), call(map[string]any{"name": name}))
	require.NoError(t, err)
	app := decode[appSummary](t, res)
	require.NotEmpty(t, app.ID)
	assert.True(t, app.Open)
	return app.ID
}

func TestCreateAndListApps(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	id := createApp(t, s, "Inventory")

	res, err := s.handleListApps(ctx, call(nil))
	require.NoError(t, err)
	apps := decode[[]appSummary](t, res)
	require.Len(t, apps, 1)
	assert.Equal(t, appSummary{ID: id, Name: "Inventory", Widgets: 0, Open: true}, apps[0])
}

func TestCreateApp_RequiresName(t *testing.T) {
	s, _ := newTestServer(t)
	_, err := s.handleCreateApp(context.Background(), call(map[string]any{}))
	assert.ErrorContains(t, err, "name is required")
}

func TestListWidgetTypes(t *testing.T) {
	s, _ := newTestServer(t)
	res, err := s.handleListWidgetTypes(context.Background(), call(nil))
	require.NoError(t, err)
	types := decode[[]typeSummary](t, res)
	require.NotEmpty(t, types)

	var button *typeSummary
	for i := range types {
		if types[i].Type == string(widgets.Button) {
			button = &types[i]
		}
	}
	require.NotNil(t, button)
	assert.Equal(t, 80, button.DefaultSize.Width)
	assert.Equal(t, 30, button.DefaultSize.Height)
}

func TestDropWidget_FromOrigin(t *testing.T) {
	s, emitter := newTestServer(t)
	ctx := context.Background()
	appID := createApp(t, s, "Forms")

	res, err := s.handleDropWidget(ctx, call(map[string]any{
		"appId": appID,
		"type":  "button",
		"dx":    100.0,
		"dy":    40.0,
	}))
	require.NoError(t, err)
	w := decode[widgetSummary](t, res)
	assert.Equal(t, "button1", w.Name)
	assert.Equal(t, 120, w.Left)
	assert.Equal(t, 100, w.Top)
	assert.Equal(t, 80, w.Width)
	assert.Equal(t, 30, w.Height)

	changed := emitter.Named(EventCanvasChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, map[string]string{"appId": appID, "widgetId": w.ID}, changed[0].Data)
}

func TestDropWidget_ExplicitAnchorAndSize(t *testing.T) {
	s, _ := newTestServer(t)
	appID := createApp(t, s, "Forms")

	res, err := s.handleDropWidget(context.Background(), call(map[string]any{
		"appId":   appID,
		"type":    "text",
		"anchorX": 0.0,
		"anchorY": 0.0,
		"dx":      10.4,
		"dy":      5.6,
		"width":   300.0,
	}))
	require.NoError(t, err)
	w := decode[widgetSummary](t, res)
	assert.Equal(t, 10, w.Left)
	assert.Equal(t, 6, w.Top)
	assert.Equal(t, 300, w.Width)
}

func TestDropWidget_AutoPlaceAvoidsOverlap(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	appID := createApp(t, s, "Dashboard")

	args := map[string]any{"appId": appID, "type": "button", "autoPlace": true}
	res, err := s.handleDropWidget(ctx, call(args))
	require.NoError(t, err)
	first := decode[widgetSummary](t, res)
	assert.Equal(t, 0, first.Left)
	assert.Equal(t, 0, first.Top)

	res, err = s.handleDropWidget(ctx, call(args))
	require.NoError(t, err)
	second := decode[widgetSummary](t, res)
	assert.Equal(t, 128, second.Left)
	assert.Equal(t, 0, second.Top)
	assert.Equal(t, "button2", second.Name)
}

func TestDropWidget_AutoPlaceUsesConfiguredGrid(t *testing.T) {
	s, _ := newTestServerWith(t, canvas.Options{SnapToGrid: true, GridSize: 10})
	ctx := context.Background()
	appID := createApp(t, s, "Dashboard")

	args := map[string]any{"appId": appID, "type": "button", "autoPlace": true}
	_, err := s.handleDropWidget(ctx, call(args))
	require.NoError(t, err)

	res, err := s.handleDropWidget(ctx, call(args))
	require.NoError(t, err)
	second := decode[widgetSummary](t, res)
	// 80 wide plus 32 padding: the first free multiple of 10 is 120.
	assert.Equal(t, 120, second.Left)
	assert.Equal(t, 0, second.Top)
}

func TestDropWidget_UnknownType(t *testing.T) {
	s, emitter := newTestServer(t)
	appID := createApp(t, s, "Forms")

	_, err := s.handleDropWidget(context.Background(), call(map[string]any{"appId": appID, "type": "slider"}))
	assert.ErrorIs(t, err, canvas.ErrUnknownWidgetType)
	assert.Empty(t, emitter.Named(EventCanvasChanged))
}

func TestMoveAndResizeWidget(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	appID := createApp(t, s, "Forms")

	res, err := s.handleDropWidget(ctx, call(map[string]any{"appId": appID, "type": "image"}))
	require.NoError(t, err)
	w := decode[widgetSummary](t, res)

	res, err = s.handleMoveWidget(ctx, call(map[string]any{
		"appId": appID, "widgetId": w.ID, "left": 400.0, "top": 240.0,
	}))
	require.NoError(t, err)
	moved := decode[widgetSummary](t, res)
	assert.Equal(t, 400, moved.Left)
	assert.Equal(t, 240, moved.Top)
	assert.Equal(t, w.Width, moved.Width)

	res, err = s.handleResizeWidget(ctx, call(map[string]any{
		"appId": appID, "widgetId": w.ID,
		"width": 200.0, "height": 200.0, "deltaWidth": -50.0, "deltaHeight": 20.0,
	}))
	require.NoError(t, err)
	resized := decode[widgetSummary](t, res)
	assert.Equal(t, 150, resized.Width)
	assert.Equal(t, 220, resized.Height)
	assert.Equal(t, 400, resized.Left)
}

func TestResizeWidget_RejectsNonPositive(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	appID := createApp(t, s, "Forms")

	res, err := s.handleDropWidget(ctx, call(map[string]any{"appId": appID, "type": "button"}))
	require.NoError(t, err)
	w := decode[widgetSummary](t, res)

	_, err = s.handleResizeWidget(ctx, call(map[string]any{
		"appId": appID, "widgetId": w.ID, "width": 80.0, "height": 30.0, "deltaHeight": -30.0,
	}))
	assert.ErrorIs(t, err, canvas.ErrInvalidSize)
}

func TestMoveWidget_Unknown(t *testing.T) {
	s, _ := newTestServer(t)
	appID := createApp(t, s, "Forms")

	_, err := s.handleMoveWidget(context.Background(), call(map[string]any{
		"appId": appID, "widgetId": "missing", "left": 1.0, "top": 1.0,
	}))
	assert.ErrorIs(t, err, canvas.ErrWidgetNotFound)
}

func TestListWidgets_OpensAndFilters(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	appID := createApp(t, s, "Forms")
	for _, typ := range []string{"button", "text", "button"} {
		_, err := s.handleDropWidget(ctx, call(map[string]any{"appId": appID, "type": typ, "autoPlace": true}))
		require.NoError(t, err)
	}
	s.editor.Close(appID)

	res, err := s.handleListWidgets(ctx, call(map[string]any{"appId": appID, "type": "button"}))
	require.NoError(t, err)
	list := decode[[]widgetSummary](t, res)
	require.Len(t, list, 2)
	assert.ElementsMatch(t, []string{"button1", "button2"}, []string{list[0].Name, list[1].Name})
	assert.True(t, s.editor.IsOpen(appID))
}

func TestHistoryAndRestore(t *testing.T) {
	s, emitter := newTestServer(t)
	ctx := context.Background()
	appID := createApp(t, s, "Forms")

	_, err := s.handleDropWidget(ctx, call(map[string]any{"appId": appID, "type": "button"}))
	require.NoError(t, err)
	_, err = s.handleDropWidget(ctx, call(map[string]any{"appId": appID, "type": "text"}))
	require.NoError(t, err)

	res, err := s.handleCanvasHistory(ctx, call(map[string]any{"appId": appID}))
	require.NoError(t, err)
	entries := decode[[]historySummary](t, res)
	require.Len(t, entries, 2)
	assert.Equal(t, "drop text1", entries[0].Label)
	assert.Equal(t, "drop button1", entries[1].Label)

	_, err = s.handleRestoreSnapshot(ctx, call(map[string]any{"appId": appID, "entryId": entries[1].ID}))
	require.NoError(t, err)

	res, err = s.handleListWidgets(ctx, call(map[string]any{"appId": appID}))
	require.NoError(t, err)
	list := decode[[]widgetSummary](t, res)
	require.Len(t, list, 1)
	assert.Equal(t, "button1", list[0].Name)
	assert.Len(t, emitter.Named(EventCanvasChanged), 3)
}

func TestAppWidgetsResource(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	appID := createApp(t, s, "Forms")
	_, err := s.handleDropWidget(ctx, call(map[string]any{"appId": appID, "type": "chart"}))
	require.NoError(t, err)
	s.editor.Close(appID)

	var req mcp.ReadResourceRequest
	req.Params.URI = appURIPrefix + appID + "/widgets"
	contents, err := s.handleAppWidgetsResource(ctx, req)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text := contents[0].(mcp.TextResourceContents)
	var list []widgetSummary
	require.NoError(t, json.Unmarshal([]byte(text.Text), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "chart1", list[0].Name)
}

func TestAppIDFromURI(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"appbuilder://app/abc-123/widgets", "abc-123"},
		{"appbuilder://app/abc-123", ""},
		{"notes://page/abc/blocks", ""},
		{"appbuilder://app//widgets", ""},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.want, appIDFromURI(tt.uri))
		})
	}
}
