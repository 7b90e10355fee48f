package app

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"appbuilder/internal/domain"
	mcpserver "appbuilder/internal/mcp"
	"appbuilder/internal/service"
	"appbuilder/internal/watcher"
)

// ServeOptions configures Serve.
type ServeOptions struct {
	In  io.Reader
	Out io.Writer

	// WatchFile, when set, is an exported definition file whose edits are
	// installed into the store and the open canvas.
	WatchFile string

	PollInterval time.Duration
}

// Serve runs the MCP server on opts.In/opts.Out next to the background jobs:
// history compaction, the store watcher and the optional file watcher. It
// returns when ctx is done or the MCP client disconnects.
func (a *App) Serve(ctx context.Context, opts ServeOptions) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	if compactor := a.startCompactor(ctx); compactor != nil {
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			compactor.Stop(stopCtx)
		}()
	}

	if opts.WatchFile != "" {
		w, err := watcher.New(opts.WatchFile, a.installDefinition(ctx), a.Log)
		if err != nil {
			return err
		}
		defer w.Close()
	}

	srv := mcpserver.New(mcpserver.Deps{
		Emitter:  a.Emitter,
		Apps:     a.Apps,
		Editor:   a.Editor,
		Registry: a.Registry,
		Logger:   a.Log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		return srv.Listen(gctx, opts.In, opts.Out)
	})
	g.Go(func() error {
		return newStoreWatcher(a.Editor, opts.PollInterval, a.Log).Run(gctx)
	})
	return g.Wait()
}

func (a *App) startCompactor(ctx context.Context) *service.HistoryCompactor {
	h := a.Config.History
	retention := a.Config.RetentionDuration()
	if a.History == nil || retention <= 0 || h.CompactSchedule == "" {
		return nil
	}
	c := service.NewHistoryCompactor(a.History, retention, a.Emitter, a.Log)
	if err := c.Start(ctx, h.CompactSchedule); err != nil {
		a.Log.Error("history compaction disabled", zap.Error(err))
		return nil
	}
	return c
}

// installDefinition returns the file watcher callback. Each parsed document
// replaces the stored components of the application it names.
func (a *App) installDefinition(ctx context.Context) watcher.DefinitionHandler {
	return func(doc domain.AppDefinition) {
		if err := a.Editor.ReplaceComponents(ctx, doc); err != nil {
			a.Log.Error("install definition failed", zap.String("app", doc.ID), zap.Error(err))
		}
	}
}
