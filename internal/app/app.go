package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"appbuilder/internal/config"
	"appbuilder/internal/domain"
	"appbuilder/internal/service"
	"appbuilder/internal/storage"
	"appbuilder/internal/widgets"
)

// App wires storage, services and the widget registry from a Config.
// Commands build one App and hand its services to whatever surface they run.
type App struct {
	Config   *config.Config
	Log      *zap.Logger
	Registry *widgets.Registry
	Emitter  service.EventEmitter

	Store   domain.AppStore
	History domain.HistoryStore // nil when history is disabled or unsupported by the driver
	Apps    *service.AppService
	Editor  *service.EditorService

	closers []func(context.Context) error
}

// New opens the configured store and builds the services. A nil emitter
// drops every event.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, emitter service.EventEmitter) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if emitter == nil {
		emitter = service.NoopEmitter{}
	}
	a := &App{
		Config:   cfg,
		Log:      log,
		Registry: widgets.Default(),
		Emitter:  emitter,
	}

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	a.Editor = service.NewEditorService(service.EditorDeps{
		Apps:       a.Store,
		History:    a.History,
		Emitter:    emitter,
		Canvas:     cfg.CanvasOptions(a.Registry),
		MaxHistory: cfg.History.MaxEntries,
		Logger:     log,
	})
	a.Apps = service.NewAppService(a.Store, a.History, a.Editor, emitter, log)
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	sc := a.Config.Storage
	switch sc.Driver {
	case storage.DriverMongo:
		m, err := storage.OpenMongo(ctx, sc.DSN, sc.Database)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		a.Store = m
		a.closers = append(a.closers, m.Close)
		if a.Config.History.Enabled {
			a.Log.Warn("history is not supported by the mongo store; disabled")
		}

	default:
		var (
			db  *storage.DB
			err error
		)
		if sc.Driver == storage.DriverSQLite {
			db, err = storage.OpenSQLite(a.Config.SQLitePath())
		} else {
			db, err = storage.Open(sc.Driver, sc.DSN)
		}
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		a.Store = storage.NewAppStore(db)
		if a.Config.History.Enabled {
			a.History = storage.NewHistoryStore(db)
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
	}

	a.Log.Debug("store opened", zap.String("driver", sc.Driver))
	return nil
}

// Close releases the store.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
