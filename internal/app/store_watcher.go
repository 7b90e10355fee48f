package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"appbuilder/internal/service"
)

// DefaultPollInterval is how often the store watcher looks for writes made
// by other processes.
const DefaultPollInterval = 2 * time.Second

// storeWatcher polls the store for changes to open applications, detecting
// external modifications (e.g. a CLI drop against the same database while
// the MCP server runs) and reloading the affected canvases.
type storeWatcher struct {
	editor   *service.EditorService
	interval time.Duration
	log      *zap.Logger
}

func newStoreWatcher(editor *service.EditorService, interval time.Duration, log *zap.Logger) *storeWatcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &storeWatcher{editor: editor, interval: interval, log: log.Named("store-watcher")}
}

// Run polls until ctx is done.
func (w *storeWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

// check refreshes every open application once and returns how many were
// reloaded.
func (w *storeWatcher) check(ctx context.Context) int {
	reloaded := 0
	for _, id := range w.editor.OpenIDs() {
		changed, err := w.editor.Refresh(ctx, id)
		if err != nil {
			w.log.Warn("refresh failed", zap.String("app", id), zap.Error(err))
			continue
		}
		if changed {
			reloaded++
		}
	}
	return reloaded
}
