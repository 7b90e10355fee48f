package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"appbuilder/internal/domain"
)

// HistoryStore keeps per-app snapshots of the canvas components.
type HistoryStore struct {
	db *DB

	mu   sync.Mutex
	last int64 // keeps created_at strictly increasing within this process
}

func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func (s *HistoryStore) stamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC().UnixNano()
	if now <= s.last {
		now = s.last + 1
	}
	s.last = now
	return time.Unix(0, now).UTC()
}

// PushEntry records a snapshot. ID and CreatedAt are assigned here.
func (s *HistoryStore) PushEntry(ctx context.Context, e *domain.HistoryEntry) error {
	data, err := json.Marshal(e.Components)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	e.ID = uuid.NewString()
	e.CreatedAt = s.stamp()
	_, err = s.db.Conn().ExecContext(ctx, s.db.rebind(
		`INSERT INTO canvas_history (id, app_id, label, snapshot_json, created_at) VALUES (?, ?, ?, ?, ?)`),
		e.ID, e.AppID, e.Label, string(data), e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// ListEntries returns up to limit entries for an app, newest first.
// A non-positive limit returns all of them.
func (s *HistoryStore) ListEntries(ctx context.Context, appID string, limit int) ([]domain.HistoryEntry, error) {
	query := `SELECT id, app_id, label, snapshot_json, created_at FROM canvas_history
		 WHERE app_id = ? ORDER BY created_at DESC`
	args := []any{appID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Conn().QueryContext(ctx, s.db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (s *HistoryStore) GetEntry(ctx context.Context, id string) (*domain.HistoryEntry, error) {
	row := s.db.Conn().QueryRowContext(ctx, s.db.rebind(
		`SELECT id, app_id, label, snapshot_json, created_at FROM canvas_history WHERE id = ?`), id)
	e, err := scanEntry(row)
	if err != nil {
		return nil, notFound(err, "history entry", id)
	}
	return e, nil
}

// PruneApp removes the oldest entries of an app beyond the newest keep.
func (s *HistoryStore) PruneApp(ctx context.Context, appID string, keep int) (int64, error) {
	// Collect IDs first and close the cursor before deleting: SQLite runs on a
	// single connection.
	rows, err := s.db.Conn().QueryContext(ctx, s.db.rebind(
		`SELECT id FROM canvas_history WHERE app_id = ? ORDER BY created_at DESC`), appID)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	var stale []string
	for i := 0; rows.Next(); i++ {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("prune history: %w", err)
		}
		if i >= keep {
			stale = append(stale, id)
		}
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	del := s.db.rebind(`DELETE FROM canvas_history WHERE id = ?`)
	for _, id := range stale {
		if _, err := tx.ExecContext(ctx, del, id); err != nil {
			return 0, fmt.Errorf("delete history entry %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int64(len(stale)), nil
}

// PruneBefore removes every entry recorded before cutoff.
func (s *HistoryStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.Conn().ExecContext(ctx, s.db.rebind(
		`DELETE FROM canvas_history WHERE created_at < ?`), cutoff.UTC().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return res.RowsAffected()
}

// DeleteApp removes all history of an app.
func (s *HistoryStore) DeleteApp(ctx context.Context, appID string) error {
	_, err := s.db.Conn().ExecContext(ctx, s.db.rebind(
		`DELETE FROM canvas_history WHERE app_id = ?`), appID)
	return err
}

func scanEntry(row scanner) (*domain.HistoryEntry, error) {
	var (
		e       domain.HistoryEntry
		data    string
		created int64
	)
	if err := row.Scan(&e.ID, &e.AppID, &e.Label, &data, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &e.Components); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", e.ID, err)
	}
	e.CreatedAt = time.Unix(0, created).UTC()
	return &e, nil
}
