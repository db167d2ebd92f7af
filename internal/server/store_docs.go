package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DocStore implements CatalogStore on the catalogs table, keeping each
// document as JSONB.
type DocStore struct {
	db *sql.DB
}

// NewDocStore expects the migrations to have been applied to db.
func NewDocStore(db *sql.DB) *DocStore {
	return &DocStore{db: db}
}

func nowUTC() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

func (s *DocStore) ListCatalogs(ctx context.Context) ([]CatalogSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, object_count, updated_at FROM catalogs ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing catalogs: %w", err)
	}
	defer rows.Close()

	out := []CatalogSummary{}
	for rows.Next() {
		var c CatalogSummary
		if err := rows.Scan(&c.Name, &c.ObjectCount, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning catalog: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *DocStore) GetCatalog(ctx context.Context, name string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM catalogs WHERE name = ?`, name,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading catalog %q: %w", name, err)
	}
	return []byte(data), nil
}

func (s *DocStore) PutCatalog(ctx context.Context, name string, data []byte, objectCount int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO catalogs (name, object_count, data, updated_at) VALUES (?, ?, jsonb(?), ?)
		 ON CONFLICT(name) DO UPDATE SET object_count = excluded.object_count,
		   data = excluded.data, updated_at = excluded.updated_at`,
		name, objectCount, string(data), nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("saving catalog %q: %w", name, err)
	}
	return nil
}

func (s *DocStore) DeleteCatalog(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM catalogs WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting catalog %q: %w", name, err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
