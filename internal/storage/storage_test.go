package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"appbuilder/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleComponents() domain.Components {
	return domain.Components{
		"w1": {
			ID: "w1", Top: 60, Left: 20, Width: 80, Height: 30,
			Component: domain.ComponentData{
				TypeDescriptor: domain.TypeDescriptor{
					Component:   "button",
					DisplayName: "Button",
					DefaultSize: domain.Size{Width: 80, Height: 30},
					Properties:  map[string]domain.PropertyDef{"text": {Type: "text", DisplayName: "Text"}},
					Events:      []string{"onClick"},
				},
				Name: "button1",
			},
		},
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))

	lite := &DB{driver: DriverSQLite}
	assert.Equal(t, "x = ?", lite.rebind("x = ?"))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "")
	assert.Error(t, err)
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "again.db")
	db, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestAppStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewAppStore(openTestDB(t))

	app := &domain.AppDefinition{ID: "app-1", Name: "Orders", Components: sampleComponents()}
	require.NoError(t, store.CreateApp(ctx, app))
	assert.False(t, app.CreatedAt.IsZero())

	got, err := store.GetApp(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, "Orders", got.Name)
	if diff := cmp.Diff(sampleComponents(), got.Components); diff != "" {
		t.Errorf("components mismatch (-want +got):\n%s", diff)
	}

	updated := sampleComponents()
	b := updated["w1"]
	b.Left = 200
	updated["w1"] = b
	require.NoError(t, store.UpdateComponents(ctx, "app-1", updated))
	require.NoError(t, store.RenameApp(ctx, "app-1", "Invoices"))

	got, err = store.GetApp(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, "Invoices", got.Name)
	assert.Equal(t, 200, got.Components["w1"].Left)
}

func TestAppStore_EmptyComponentsDecodeToEmptyMap(t *testing.T) {
	ctx := context.Background()
	store := NewAppStore(openTestDB(t))
	require.NoError(t, store.CreateApp(ctx, &domain.AppDefinition{ID: "a", Name: "A"}))

	got, err := store.GetApp(ctx, "a")
	require.NoError(t, err)
	assert.NotNil(t, got.Components)
	assert.Empty(t, got.Components)
}

func TestAppStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := NewAppStore(openTestDB(t))

	_, err := store.GetApp(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.UpdateComponents(ctx, "missing", nil), ErrNotFound)
	assert.ErrorIs(t, store.RenameApp(ctx, "missing", "x"), ErrNotFound)
	assert.ErrorIs(t, store.DeleteApp(ctx, "missing"), ErrNotFound)
}

func TestAppStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewAppStore(openTestDB(t))
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.CreateApp(ctx, &domain.AppDefinition{ID: id, Name: id}))
	}
	require.NoError(t, store.DeleteApp(ctx, "b"))

	apps, err := store.ListApps(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "a", apps[0].ID)
	assert.Equal(t, "c", apps[1].ID)
}

func TestHistoryStore_PushListGet(t *testing.T) {
	ctx := context.Background()
	hist := NewHistoryStore(openTestDB(t))

	for _, label := range []string{"drop", "move", "resize"} {
		require.NoError(t, hist.PushEntry(ctx, &domain.HistoryEntry{
			AppID: "app-1", Label: label, Components: sampleComponents(),
		}))
	}
	require.NoError(t, hist.PushEntry(ctx, &domain.HistoryEntry{AppID: "other", Label: "drop"}))

	entries, err := hist.ListEntries(ctx, "app-1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"resize", "move", "drop"},
		[]string{entries[0].Label, entries[1].Label, entries[2].Label})

	limited, err := hist.ListEntries(ctx, "app-1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	got, err := hist.GetEntry(ctx, entries[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "move", got.Label)
	if diff := cmp.Diff(sampleComponents(), got.Components); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}

	_, err = hist.GetEntry(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistoryStore_PruneApp(t *testing.T) {
	ctx := context.Background()
	hist := NewHistoryStore(openTestDB(t))
	for i := 0; i < 10; i++ {
		require.NoError(t, hist.PushEntry(ctx, &domain.HistoryEntry{AppID: "app-1", Label: "drop"}))
	}
	newest, err := hist.ListEntries(ctx, "app-1", 1)
	require.NoError(t, err)

	removed, err := hist.PruneApp(ctx, "app-1", 4)
	require.NoError(t, err)
	assert.EqualValues(t, 6, removed)

	entries, err := hist.ListEntries(ctx, "app-1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, newest[0].ID, entries[0].ID)

	removed, err = hist.PruneApp(ctx, "app-1", 4)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestHistoryStore_PruneBeforeAndDeleteApp(t *testing.T) {
	ctx := context.Background()
	hist := NewHistoryStore(openTestDB(t))
	require.NoError(t, hist.PushEntry(ctx, &domain.HistoryEntry{AppID: "a", Label: "old"}))
	cutoff := time.Now().Add(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, hist.PushEntry(ctx, &domain.HistoryEntry{AppID: "a", Label: "new"}))
	require.NoError(t, hist.PushEntry(ctx, &domain.HistoryEntry{AppID: "b", Label: "new"}))

	removed, err := hist.PruneBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	require.NoError(t, hist.DeleteApp(ctx, "a"))
	left, err := hist.ListEntries(ctx, "a", 0)
	require.NoError(t, err)
	assert.Empty(t, left)
	left, err = hist.ListEntries(ctx, "b", 0)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestMongoApp_ComponentsAreEmbeddedDocuments(t *testing.T) {
	components := sampleComponents()
	data, err := bson.Marshal(mongoApp{ID: "a1", Name: "Orders", Components: toMongoComponents(components)})
	require.NoError(t, err)

	raw := bson.Raw(data)
	assert.Equal(t, bson.TypeEmbeddedDocument, raw.Lookup("components").Type)
	assert.Equal(t, "button", raw.Lookup("components", "w1", "component", "component").StringValue())
	assert.Equal(t, "button1", raw.Lookup("components", "w1", "component", "name").StringValue())

	var decoded mongoApp
	require.NoError(t, bson.Unmarshal(data, &decoded))
	if diff := cmp.Diff(components, decoded.toDomain().Components); diff != "" {
		t.Errorf("components mismatch (-want +got):\n%s", diff)
	}
}
