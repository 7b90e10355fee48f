package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appbuilder/internal/canvas"
	"appbuilder/internal/domain"
	"appbuilder/internal/watcher"
)

type harness struct {
	t   *testing.T
	dir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("APPBUILDER_DATA_DIR", dir)
	t.Setenv("APPBUILDER_LOG_LEVEL", "error")
	return &harness{t: t, dir: dir}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", filepath.Join(h.dir, "appbuilder.yaml")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func runJSON[T any](h *harness, args ...string) T {
	h.t.Helper()
	out, err := h.run(append(args, "--json")...)
	require.NoError(h.t, err, out)
	var v T
	require.NoError(h.t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestCLI_CanvasWorkflow(t *testing.T) {
	h := newHarness(t)

	app := runJSON[domain.AppDefinition](h, "apps", "create", "Orders")
	require.NotEmpty(t, app.ID)

	first := runJSON[domain.Box](h, "drop", app.ID, "button", "--dx", "100", "--dy", "40")
	assert.Equal(t, "button1", first.Component.Name)
	assert.Equal(t, 120, first.Left)
	assert.Equal(t, 100, first.Top)
	assert.Equal(t, 80, first.Width)

	second := runJSON[domain.Box](h, "drop", app.ID, "button", "--snap")
	assert.Equal(t, "button2", second.Component.Name)
	assert.Equal(t, 32, second.Left)
	assert.Equal(t, 64, second.Top)

	moved := runJSON[domain.Box](h, "move", app.ID, first.ID, "300", "20")
	assert.Equal(t, 300, moved.Left)
	assert.Equal(t, 20, moved.Top)
	assert.Equal(t, first.Width, moved.Width)

	resized := runJSON[domain.Box](h, "resize", app.ID, first.ID, "--dw", "20", "--dh", "-10")
	assert.Equal(t, 100, resized.Width)
	assert.Equal(t, 20, resized.Height)

	view := runJSON[domain.CanvasView](h, "show", app.ID)
	assert.Equal(t, "Orders", view.AppName)
	require.Len(t, view.Boxes, 2)
	assert.Equal(t, first.ID, view.Boxes[0].ID, "boxes are ordered top to bottom")

	entries := runJSON[[]domain.HistoryEntry](h, "history", app.ID)
	require.Len(t, entries, 4)
	assert.Equal(t, "resize button1", entries[0].Label)

	out, err := h.run("show", app.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "button1")
	assert.Contains(t, out, "button2")
}

func TestCLI_RejectedGestures(t *testing.T) {
	h := newHarness(t)
	app := runJSON[domain.AppDefinition](h, "apps", "create", "Orders")

	_, err := h.run("drop", app.ID, "slider")
	assert.ErrorIs(t, err, canvas.ErrUnknownWidgetType)

	_, err = h.run("move", app.ID, "ghost", "1", "1")
	assert.ErrorIs(t, err, canvas.ErrWidgetNotFound)

	box := runJSON[domain.Box](h, "drop", app.ID, "text")
	_, err = h.run("resize", app.ID, box.ID, "--dh", "-1000")
	assert.ErrorIs(t, err, canvas.ErrInvalidSize)

	_, err = h.run("move", app.ID, box.ID, "left", "1")
	assert.ErrorContains(t, err, "invalid left")

	entries := runJSON[[]domain.HistoryEntry](h, "history", app.ID)
	assert.Len(t, entries, 1, "only the accepted drop is recorded")
}

func TestCLI_ExportImport(t *testing.T) {
	h := newHarness(t)
	app := runJSON[domain.AppDefinition](h, "apps", "create", "Orders")
	runJSON[domain.Box](h, "drop", app.ID, "chart")

	path := filepath.Join(h.dir, "orders.json")
	out, err := h.run("export", app.ID, path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 widgets")

	doc, err := watcher.ReadDefinition(path)
	require.NoError(t, err)
	require.Len(t, doc.Components, 1)

	doc.Components = domain.Components{}
	require.NoError(t, watcher.WriteDefinition(path, *doc))
	_, err = h.run("import", path)
	require.NoError(t, err)

	view := runJSON[domain.CanvasView](h, "show", app.ID)
	assert.Empty(t, view.Boxes)
}

func TestCLI_AppsListRenameDelete(t *testing.T) {
	h := newHarness(t)
	assert.Empty(t, runJSON[[]domain.AppDefinition](h, "apps", "list"))

	app := runJSON[domain.AppDefinition](h, "apps", "create", "Orders")
	_, err := h.run("apps", "rename", app.ID, "Invoices")
	require.NoError(t, err)

	apps := runJSON[[]domain.AppDefinition](h, "apps", "list")
	require.Len(t, apps, 1)
	assert.Equal(t, "Invoices", apps[0].Name)

	_, err = h.run("apps", "delete", app.ID)
	require.NoError(t, err)
	assert.Empty(t, runJSON[[]domain.AppDefinition](h, "apps", "list"))
}

func TestCLI_Widgets(t *testing.T) {
	h := newHarness(t)
	types := runJSON[[]domain.TypeDescriptor](h, "widgets")
	require.NotEmpty(t, types)

	out, err := h.run("widgets")
	require.NoError(t, err)
	assert.Contains(t, out, "button")
	assert.Contains(t, out, "80x30")
}

func TestCLI_InvalidConfig(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.dir, "appbuilder.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: oracle\n"), 0644))

	_, err := h.run("apps", "list")
	assert.ErrorContains(t, err, "unknown storage driver")
}
