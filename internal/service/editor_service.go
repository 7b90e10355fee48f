package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"

	"appbuilder/internal/canvas"
	"appbuilder/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Editor Service: one canvas state per open application
// ─────────────────────────────────────────────────────────────

// ErrAppNotOpen is returned for gestures on an application without a canvas.
var ErrAppNotOpen = errors.New("application is not open in the editor")

// EditorDeps holds the collaborators of an EditorService.
type EditorDeps struct {
	Apps       domain.AppStore
	History    domain.HistoryStore // optional
	Emitter    EventEmitter
	Canvas     canvas.Options
	MaxHistory int // snapshots kept per app; 0 keeps all
	Logger     *zap.Logger
}

// EditorService owns the canvas state of every open application and keeps
// the stored application definition in step with each gesture.
type EditorService struct {
	apps       domain.AppStore
	history    domain.HistoryStore
	emitter    EventEmitter
	opts       canvas.Options
	maxHistory int
	log        *zap.Logger

	mu   sync.Mutex
	open map[string]*canvas.State
}

// NewEditorService creates an EditorService.
func NewEditorService(deps EditorDeps) *EditorService {
	if deps.Emitter == nil {
		deps.Emitter = NoopEmitter{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &EditorService{
		apps:       deps.Apps,
		history:    deps.History,
		emitter:    deps.Emitter,
		opts:       deps.Canvas,
		maxHistory: deps.MaxHistory,
		log:        deps.Logger.Named("editor"),
		open:       make(map[string]*canvas.State),
	}
}

// Open loads an application into the editor. Opening an already open
// application returns its current view.
func (s *EditorService) Open(ctx context.Context, appID string) (*domain.CanvasView, error) {
	s.mu.Lock()
	st, ok := s.open[appID]
	s.mu.Unlock()
	if ok {
		return view(st), nil
	}

	app, err := s.apps.GetApp(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("open app: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.open[appID]; ok {
		return view(st), nil
	}
	st = canvas.New(*app, s.onChange, s.opts, s.log)
	s.open[appID] = st
	s.log.Info("app opened", zap.String("app", appID), zap.Int("widgets", st.Len()))
	return view(st), nil
}

// Close drops the canvas of an application. Closing twice is a no-op.
func (s *EditorService) Close(appID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.open, appID)
}

// IsOpen reports whether appID has a canvas in the editor.
func (s *EditorService) IsOpen(appID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.open[appID]
	return ok
}

func (s *EditorService) state(appID string) (*canvas.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.open[appID]
	if !ok {
		return nil, fmt.Errorf("app %s: %w", appID, ErrAppNotOpen)
	}
	return st, nil
}

// View returns the render descriptors of an open application.
func (s *EditorService) View(appID string) (*domain.CanvasView, error) {
	st, err := s.state(appID)
	if err != nil {
		return nil, err
	}
	return view(st), nil
}

// DropWidget applies a drop gesture.
func (s *EditorService) DropWidget(ctx context.Context, appID string, req canvas.DropRequest) (domain.Box, error) {
	st, err := s.state(appID)
	if err != nil {
		return domain.Box{}, err
	}
	return st.DropWidget(ctx, req)
}

// MoveWidget applies a move gesture.
func (s *EditorService) MoveWidget(ctx context.Context, appID, widgetID string, left, top int) (domain.Box, error) {
	st, err := s.state(appID)
	if err != nil {
		return domain.Box{}, err
	}
	return st.MoveWidget(ctx, widgetID, left, top)
}

// ResizeWidget applies a completed resize gesture.
func (s *EditorService) ResizeWidget(ctx context.Context, appID, widgetID string, req canvas.ResizeRequest) (domain.Box, error) {
	st, err := s.state(appID)
	if err != nil {
		return domain.Box{}, err
	}
	return st.ResizeWidget(ctx, widgetID, req)
}

// ReplaceComponents installs an externally changed document. The stored
// definition and, when the app is open, the canvas cache are replaced
// wholesale. For an open app the store write and the cache swap happen under
// the canvas lock, so a concurrent gesture lands either before both or after
// both.
func (s *EditorService) ReplaceComponents(ctx context.Context, doc domain.AppDefinition) error {
	if doc.Components == nil {
		doc.Components = domain.Components{}
	}
	persist := func(d domain.AppDefinition) error {
		if err := s.apps.UpdateComponents(ctx, d.ID, d.Components); err != nil {
			return fmt.Errorf("replace components: %w", err)
		}
		return nil
	}

	s.mu.Lock()
	st, ok := s.open[doc.ID]
	s.mu.Unlock()
	if !ok {
		if err := persist(doc); err != nil {
			return err
		}
		s.emitter.Emit(ctx, EventCanvasReplaced, &domain.CanvasView{AppID: doc.ID, AppName: doc.Name})
		s.log.Info("components replaced", zap.String("app", doc.ID), zap.Int("widgets", len(doc.Components)))
		return nil
	}

	current := st.Document()
	doc.CreatedAt, doc.UpdatedAt = current.CreatedAt, current.UpdatedAt
	if doc.Name == "" {
		doc.Name = current.Name
	}
	if err := st.ReplaceWith(doc, persist); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventCanvasReplaced, view(st))
	s.log.Info("components replaced", zap.String("app", doc.ID), zap.Int("widgets", len(doc.Components)))
	return nil
}

// Options returns the canvas placement options used for every open app.
func (s *EditorService) Options() canvas.Options {
	return s.opts
}

// History lists recorded snapshots of an app, newest first.
func (s *EditorService) History(ctx context.Context, appID string, limit int) ([]domain.HistoryEntry, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListEntries(ctx, appID, limit)
}

// RestoreSnapshot replaces the components of an app with a recorded snapshot
// and records the restore itself as a new snapshot.
func (s *EditorService) RestoreSnapshot(ctx context.Context, appID, entryID string) error {
	if s.history == nil {
		return fmt.Errorf("restore snapshot: history is disabled")
	}
	entry, err := s.history.GetEntry(ctx, entryID)
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	if entry.AppID != appID {
		return fmt.Errorf("restore snapshot: entry %s belongs to app %s, not %s", entryID, entry.AppID, appID)
	}

	app, err := s.apps.GetApp(ctx, appID)
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	if err := s.ReplaceComponents(ctx, app.WithComponents(entry.Components)); err != nil {
		return err
	}
	s.record(ctx, appID, "restore "+entryID, entry.Components)
	return nil
}

// onChange is the document-sync callback of every canvas state. It runs
// under the state's lock, so writes for one app happen in gesture order.
func (s *EditorService) onChange(ctx context.Context, doc domain.AppDefinition, change canvas.Change) {
	if err := s.apps.UpdateComponents(ctx, doc.ID, doc.Components); err != nil {
		s.log.Error("persist components failed",
			zap.String("app", doc.ID),
			zap.String("change", string(change.Kind)),
			zap.Error(err))
	}

	label := string(change.Kind)
	if b, ok := doc.Components[change.WidgetID]; ok {
		label += " " + b.Component.Name
	}
	s.record(ctx, doc.ID, label, doc.Components)

	s.emitter.Emit(ctx, EventDefinitionChanged, doc)
}

func (s *EditorService) record(ctx context.Context, appID, label string, c domain.Components) {
	if s.history == nil {
		return
	}
	entry := &domain.HistoryEntry{AppID: appID, Label: label, Components: c}
	if err := s.history.PushEntry(ctx, entry); err != nil {
		s.log.Error("record history failed", zap.String("app", appID), zap.Error(err))
		return
	}
	if s.maxHistory > 0 {
		if _, err := s.history.PruneApp(ctx, appID, s.maxHistory); err != nil {
			s.log.Warn("prune history failed", zap.String("app", appID), zap.Error(err))
		}
	}
}

// OpenIDs returns the ids of all open applications, sorted.
func (s *EditorService) OpenIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.open))
	for id := range s.open {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Refresh reloads an open application from the store when its stored
// components differ from the canvas, e.g. after another process wrote them.
// It reports whether the canvas was replaced. A gesture racing the reload
// wins; the next Refresh picks up whatever the store holds then.
func (s *EditorService) Refresh(ctx context.Context, appID string) (bool, error) {
	st, err := s.state(appID)
	if err != nil {
		return false, err
	}
	rev := st.Revision()
	app, err := s.apps.GetApp(ctx, appID)
	if err != nil {
		return false, fmt.Errorf("refresh app: %w", err)
	}
	if cmp.Equal(app.Components, st.Components(), cmpopts.EquateEmpty()) {
		return false, nil
	}
	if !st.CompareAndReplace(rev, *app) {
		return false, nil
	}
	s.emitter.Emit(ctx, EventCanvasReplaced, view(st))
	s.log.Info("app reloaded from store", zap.String("app", appID), zap.Int("widgets", len(app.Components)))
	return true, nil
}

// Rename updates the name carried by an open canvas.
func (s *EditorService) Rename(appID, name string) {
	s.mu.Lock()
	st, ok := s.open[appID]
	s.mu.Unlock()
	if ok {
		st.Rename(name)
	}
}

func view(st *canvas.State) *domain.CanvasView {
	doc := st.Document()
	return &domain.CanvasView{AppID: doc.ID, AppName: doc.Name, Boxes: canvas.SortedBoxes(doc.Components)}
}
