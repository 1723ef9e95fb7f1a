package migrations

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateUp(t *testing.T) {
	db := openTestDB(t)

	version, _, err := Version(db)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if version != 0 {
		t.Errorf("fresh database version = %d, want 0", version)
	}

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}
	// Second run is a no-op.
	if err := MigrateUp(db); err != nil {
		t.Fatalf("second MigrateUp() error = %v", err)
	}

	version, dirty, err := Version(db)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("Version() = %d, dirty=%v; want 1, clean", version, dirty)
	}

	for _, table := range []string{"folders", "files", "history"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}
