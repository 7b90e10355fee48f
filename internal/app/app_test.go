package app

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appbuilder/internal/canvas"
	"appbuilder/internal/config"
	"appbuilder/internal/domain"
	"appbuilder/internal/service"
	"appbuilder/internal/watcher"
	"appbuilder/internal/widgets"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Storage.DataDir = t.TempDir()
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	a, err := New(context.Background(), cfg, nil, &service.MockEmitter{})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(context.Background()) })
	return a
}

func TestNew_WiresSQLiteStore(t *testing.T) {
	a := newTestApp(t, nil)
	ctx := context.Background()

	require.NotNil(t, a.History)
	created, err := a.Apps.CreateApp(ctx, "Orders")
	require.NoError(t, err)
	_, err = a.Editor.Open(ctx, created.ID)
	require.NoError(t, err)

	box, err := a.Editor.DropWidget(ctx, created.ID, canvas.DropRequest{Type: widgets.Button})
	require.NoError(t, err)
	assert.Equal(t, 20, box.Left)
	assert.Equal(t, 60, box.Top)

	entries, err := a.Editor.History(ctx, created.ID, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestNew_AppliesCanvasConfig(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.Canvas.SnapToGrid = true
		cfg.Canvas.OriginLeft = 0
		cfg.Canvas.OriginTop = 0
	})
	ctx := context.Background()
	created, err := a.Apps.CreateApp(ctx, "Grid")
	require.NoError(t, err)
	_, err = a.Editor.Open(ctx, created.ID)
	require.NoError(t, err)

	box, err := a.Editor.DropWidget(ctx, created.ID, canvas.DropRequest{
		Type:  widgets.Text,
		Delta: domain.Delta{DX: 50, DY: 70},
	})
	require.NoError(t, err)
	assert.Equal(t, 64, box.Left)
	assert.Equal(t, 64, box.Top)
}

func TestNew_HistoryDisabled(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config) { cfg.History.Enabled = false })
	assert.Nil(t, a.History)
	assert.Nil(t, a.startCompactor(context.Background()))
}

func TestClose_Twice(t *testing.T) {
	a := newTestApp(t, nil)
	require.NoError(t, a.Close(context.Background()))
	require.NoError(t, a.Close(context.Background()))
}

func TestStoreWatcher_ReloadsExternalWrites(t *testing.T) {
	a := newTestApp(t, nil)
	ctx := context.Background()
	created, err := a.Apps.CreateApp(ctx, "Orders")
	require.NoError(t, err)
	_, err = a.Editor.Open(ctx, created.ID)
	require.NoError(t, err)

	w := newStoreWatcher(a.Editor, time.Hour, a.Log)
	assert.Zero(t, w.check(ctx))

	external := domain.Components{
		"ext": {ID: "ext", Left: 1, Top: 1, Width: 10, Height: 10, Component: domain.ComponentData{
			TypeDescriptor: domain.TypeDescriptor{Component: widgets.Button},
			Name:           "button1",
		}},
	}
	require.NoError(t, a.Store.UpdateComponents(ctx, created.ID, external))

	assert.Equal(t, 1, w.check(ctx))
	v, err := a.Editor.View(created.ID)
	require.NoError(t, err)
	require.Len(t, v.Boxes, 1)
	assert.Equal(t, "ext", v.Boxes[0].ID)
	assert.Zero(t, w.check(ctx))
}

func TestServe_InstallsWatchedFile(t *testing.T) {
	a := newTestApp(t, nil)
	ctx := context.Background()
	created, err := a.Apps.CreateApp(ctx, "Synced")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "synced.json")
	require.NoError(t, watcher.WriteDefinition(path, *created))

	in, feed := io.Pipe()
	done := make(chan error, 1)
	go func() {
		done <- a.Serve(ctx, ServeOptions{In: in, Out: io.Discard, WatchFile: path, PollInterval: 10 * time.Millisecond})
	}()

	edited := created.WithComponents(domain.Components{
		"w1": {ID: "w1", Left: 5, Top: 5, Width: 80, Height: 30, Component: domain.ComponentData{
			TypeDescriptor: domain.TypeDescriptor{Component: widgets.Button},
			Name:           "button1",
		}},
	})
	require.Eventually(t, func() bool {
		// Rewrite until the watcher has registered and picked it up.
		if err := watcher.WriteDefinition(path, edited); err != nil {
			return false
		}
		stored, err := a.Store.GetApp(ctx, created.ID)
		return err == nil && len(stored.Components) == 1
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, feed.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after the client disconnected")
	}
}
