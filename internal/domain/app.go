package domain

import (
	"context"
	"time"
)

// AppDefinition is the document owning a canvas. Components is the field the
// editor keeps in sync.
type AppDefinition struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Components Components `json:"components"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// WithComponents returns a copy of the document carrying the given mapping.
func (d AppDefinition) WithComponents(c Components) AppDefinition {
	d.Components = c
	return d
}

// HistoryEntry is one snapshot of an application's components, recorded
// after a canvas gesture.
type HistoryEntry struct {
	ID         string     `json:"id"`
	AppID      string     `json:"appId"`
	Label      string     `json:"label"`
	Components Components `json:"components"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type AppStore interface {
	CreateApp(ctx context.Context, app *AppDefinition) error
	GetApp(ctx context.Context, id string) (*AppDefinition, error)
	ListApps(ctx context.Context) ([]AppDefinition, error)
	UpdateComponents(ctx context.Context, id string, c Components) error
	RenameApp(ctx context.Context, id, name string) error
	DeleteApp(ctx context.Context, id string) error
}

type HistoryStore interface {
	PushEntry(ctx context.Context, e *HistoryEntry) error
	ListEntries(ctx context.Context, appID string, limit int) ([]HistoryEntry, error)
	GetEntry(ctx context.Context, id string) (*HistoryEntry, error)
	PruneApp(ctx context.Context, appID string, keep int) (int64, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteApp(ctx context.Context, appID string) error
}
