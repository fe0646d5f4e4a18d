// Package sqlite opens the database behind the chunk catalog.
//
// Build modes:
//   - Default: pure Go modernc.org/sqlite, no CGO required
//   - CGO (-tags cgo_sqlite): mattn/go-sqlite3 via contrib/sqlite-external
//
// Use Open instead of sql.Open so the driver matching the build is used.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
)

// IsCGO returns true if the CGO implementation is being used.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens a SQLite database using the driver selected at build time.
// Foreign key enforcement is switched on for every connection.
func Open(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open(driverName, withForeignKeys(dataSourceName))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", dataSourceName, err)
	}
	return db, nil
}

// OpenReadOnly opens an existing SQLite database in read-only mode. Writes
// through the returned handle fail, and a missing file is an error rather
// than a new empty database.
func OpenReadOnly(path string) (*sql.DB, error) {
	db, err := Open("file:" + path + "?mode=ro")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: open %s read-only: %w", path, err)
	}
	return db, nil
}

// withForeignKeys appends the pragma parameter understood by each driver.
func withForeignKeys(dsn string) string {
	param := "_pragma=foreign_keys(1)"
	if IsCGO() {
		param = "_foreign_keys=1"
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + param
	}
	return dsn + "?" + param
}

// Info describes the SQLite driver compiled into this build.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns information about the current SQLite configuration.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
