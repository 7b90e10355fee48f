package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"appbuilder/internal/domain"
)

// AppStore implements domain.AppStore on a SQL database.
type AppStore struct {
	db *DB
}

func NewAppStore(db *DB) *AppStore {
	return &AppStore{db: db}
}

func (s *AppStore) CreateApp(ctx context.Context, a *domain.AppDefinition) error {
	if a.Components == nil {
		a.Components = domain.Components{}
	}
	data, err := json.Marshal(a.Components)
	if err != nil {
		return fmt.Errorf("encode components: %w", err)
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	_, err = s.db.Conn().ExecContext(ctx, s.db.rebind(
		`INSERT INTO apps (id, name, components_json, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`),
		a.ID, a.Name, string(data), now.UnixNano(), now.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert app: %w", err)
	}
	return nil
}

func (s *AppStore) GetApp(ctx context.Context, id string) (*domain.AppDefinition, error) {
	row := s.db.Conn().QueryRowContext(ctx, s.db.rebind(
		`SELECT id, name, components_json, created_at, updated_at FROM apps WHERE id = ?`), id)
	a, err := scanApp(row)
	if err != nil {
		return nil, notFound(err, "app", id)
	}
	return a, nil
}

func (s *AppStore) ListApps(ctx context.Context) ([]domain.AppDefinition, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT id, name, components_json, created_at, updated_at FROM apps ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}
	defer rows.Close()

	var apps []domain.AppDefinition
	for rows.Next() {
		a, err := scanApp(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

func (s *AppStore) UpdateComponents(ctx context.Context, id string, c domain.Components) error {
	if c == nil {
		c = domain.Components{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode components: %w", err)
	}
	return s.exec(ctx, id,
		`UPDATE apps SET components_json = ?, updated_at = ? WHERE id = ?`,
		string(data), time.Now().UTC().UnixNano(), id)
}

func (s *AppStore) RenameApp(ctx context.Context, id, name string) error {
	return s.exec(ctx, id,
		`UPDATE apps SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().UTC().UnixNano(), id)
}

func (s *AppStore) DeleteApp(ctx context.Context, id string) error {
	return s.exec(ctx, id, `DELETE FROM apps WHERE id = ?`, id)
}

// exec runs a single-row write and reports ErrNotFound when nothing matched.
func (s *AppStore) exec(ctx context.Context, id, query string, args ...any) error {
	res, err := s.db.Conn().ExecContext(ctx, s.db.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("app %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("app %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("app %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApp(row scanner) (*domain.AppDefinition, error) {
	var (
		a                domain.AppDefinition
		data             string
		created, updated int64
	)
	if err := row.Scan(&a.ID, &a.Name, &data, &created, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &a.Components); err != nil {
		return nil, fmt.Errorf("decode components of app %s: %w", a.ID, err)
	}
	if a.Components == nil {
		a.Components = domain.Components{}
	}
	a.CreatedAt = time.Unix(0, created).UTC()
	a.UpdatedAt = time.Unix(0, updated).UTC()
	return &a, nil
}
