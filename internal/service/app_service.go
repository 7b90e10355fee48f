package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"appbuilder/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// App Service: application definitions
// ─────────────────────────────────────────────────────────────

// AppService manages the lifecycle of application definitions.
type AppService struct {
	store   domain.AppStore
	history domain.HistoryStore
	editor  *EditorService
	emitter EventEmitter
	log     *zap.Logger
}

// NewAppService creates an AppService. history and editor may be nil.
func NewAppService(store domain.AppStore, history domain.HistoryStore, editor *EditorService, emitter EventEmitter, log *zap.Logger) *AppService {
	if emitter == nil {
		emitter = NoopEmitter{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AppService{store: store, history: history, editor: editor, emitter: emitter, log: log.Named("apps")}
}

func (s *AppService) ListApps(ctx context.Context) ([]domain.AppDefinition, error) {
	return s.store.ListApps(ctx)
}

func (s *AppService) GetApp(ctx context.Context, id string) (*domain.AppDefinition, error) {
	return s.store.GetApp(ctx, id)
}

// CreateApp creates an application with an empty canvas.
func (s *AppService) CreateApp(ctx context.Context, name string) (*domain.AppDefinition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("create app: name is required")
	}
	app := &domain.AppDefinition{
		ID:         uuid.New().String(),
		Name:       name,
		Components: domain.Components{},
	}
	if err := s.store.CreateApp(ctx, app); err != nil {
		return nil, fmt.Errorf("create app: %w", err)
	}
	s.log.Info("app created", zap.String("app", app.ID), zap.String("name", name))
	s.emitter.Emit(ctx, EventAppCreated, app)
	return app, nil
}

func (s *AppService) RenameApp(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("rename app: name is required")
	}
	if err := s.store.RenameApp(ctx, id, name); err != nil {
		return fmt.Errorf("rename app: %w", err)
	}
	if s.editor != nil {
		s.editor.Rename(id, name)
	}
	return nil
}

// DeleteApp removes an application, its history and its open canvas.
func (s *AppService) DeleteApp(ctx context.Context, id string) error {
	if err := s.store.DeleteApp(ctx, id); err != nil {
		return fmt.Errorf("delete app: %w", err)
	}
	if s.editor != nil {
		s.editor.Close(id)
	}
	if s.history != nil {
		if err := s.history.DeleteApp(ctx, id); err != nil {
			s.log.Warn("delete history failed", zap.String("app", id), zap.Error(err))
		}
	}
	s.emitter.Emit(ctx, EventAppDeleted, id)
	return nil
}
