package migrations_test

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/playperu/planetquest/internal/database"
	"github.com/playperu/planetquest/internal/migrations"
)

func openMigrated(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(context.Background(), db, slog.Default()); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return db
}

func TestCatalogsSchema(t *testing.T) {
	db := openMigrated(t)

	want := map[string]bool{"name": true, "object_count": true, "data": true, "updated_at": true}
	rows, err := db.Query(`SELECT name FROM pragma_table_info('catalogs')`)
	if err != nil {
		t.Fatalf("reading catalogs columns: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			t.Fatalf("scanning column: %v", err)
		}
		if !want[col] {
			t.Errorf("unexpected column %q", col)
		}
		delete(want, col)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterating columns: %v", err)
	}
	for col := range want {
		t.Errorf("missing column %q", col)
	}
}

func TestCatalogsNameIsUnique(t *testing.T) {
	db := openMigrated(t)

	insert := `INSERT INTO catalogs (name, object_count, data, updated_at) VALUES ('demo', 1, jsonb('{}'), 'now')`
	if _, err := db.Exec(insert); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := db.Exec(insert); err == nil {
		t.Error("duplicate catalog name accepted")
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := openMigrated(t)

	if err := migrations.Run(context.Background(), db, slog.Default()); err != nil {
		t.Fatalf("second run (should be no-op): %v", err)
	}

	var versions int
	if err := db.QueryRow(`SELECT count(*) FROM goose_db_version WHERE version_id > 0`).Scan(&versions); err != nil {
		t.Fatalf("reading goose versions: %v", err)
	}
	if versions != 1 {
		t.Errorf("applied versions = %d, want 1", versions)
	}
}
