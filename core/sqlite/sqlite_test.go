package sqlite

import (
	"path/filepath"
	"testing"
)

func TestDriverInfo(t *testing.T) {
	info := GetInfo()

	if info.DriverName == "" || info.DriverType == "" || info.Package == "" {
		t.Errorf("GetInfo() has empty fields: %+v", info)
	}
	if info.DriverName != driverName || info.DriverType != driverType {
		t.Errorf("GetInfo() = %+v, want driver %s (%s)", info, driverName, driverType)
	}
	if info.IsCGO != IsCGO() {
		t.Errorf("IsCGO mismatch: info=%v, func=%v", info.IsCGO, IsCGO())
	}

	t.Logf("SQLite driver: %s (%s) from %s", info.DriverName, info.DriverType, info.Package)
}

func TestOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE test (id INTEGER PRIMARY KEY, value TEXT)`); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO test (value) VALUES (?)`, "hello"); err != nil {
		t.Fatalf("failed to insert: %v", err)
	}

	var value string
	if err := db.QueryRow(`SELECT value FROM test WHERE id = 1`).Scan(&value); err != nil {
		t.Fatalf("failed to query: %v", err)
	}
	if value != "hello" {
		t.Errorf("value = %q, want hello", value)
	}

	var fk int
	if err := db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("failed to read pragma: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestWithForeignKeys(t *testing.T) {
	plain := withForeignKeys("a.db")
	query := withForeignKeys("file:a.db?mode=ro")
	if plain[:5] != "a.db?" {
		t.Errorf("withForeignKeys(a.db) = %q", plain)
	}
	if query[:len("file:a.db?mode=ro&")] != "file:a.db?mode=ro&" {
		t.Errorf("withForeignKeys(query) = %q", query)
	}
}

func TestOpenReadOnly(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ro.db")

	rw, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := rw.Exec(`CREATE TABLE notes (body TEXT)`); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	if _, err := rw.Exec(`INSERT INTO notes (body) VALUES ('kept')`); err != nil {
		t.Fatalf("failed to insert: %v", err)
	}
	rw.Close()

	db, err := OpenReadOnly(dbPath)
	if err != nil {
		t.Fatalf("OpenReadOnly() error = %v", err)
	}
	defer db.Close()

	var body string
	if err := db.QueryRow(`SELECT body FROM notes`).Scan(&body); err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if body != "kept" {
		t.Errorf("body = %q, want kept", body)
	}

	var fk int
	if err := db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("failed to read pragma: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}

	if _, err := db.Exec(`CREATE TABLE extra (id INTEGER)`); err == nil {
		t.Error("read-only handle accepted a write")
	}
}

func TestOpenReadOnlyMissingFile(t *testing.T) {
	if db, err := OpenReadOnly(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		db.Close()
		t.Error("OpenReadOnly() should fail for a missing file")
	}
}
