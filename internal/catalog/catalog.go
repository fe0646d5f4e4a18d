// Package catalog records which chunks live in which PNG files so they can
// be searched by type without re-reading every image.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JxBP/pngme/core/filter"
	"github.com/JxBP/pngme/core/png"
	"github.com/JxBP/pngme/core/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS files (
	id          INTEGER PRIMARY KEY,
	path        TEXT NOT NULL UNIQUE,
	scan_id     TEXT NOT NULL,
	chunk_count INTEGER NOT NULL,
	indexed_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS chunks (
	file_id      INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
	seq          INTEGER NOT NULL,
	type         TEXT NOT NULL,
	length       INTEGER NOT NULL,
	crc          INTEGER NOT NULL,
	critical     INTEGER NOT NULL,
	public       INTEGER NOT NULL,
	safe_to_copy INTEGER NOT NULL,
	PRIMARY KEY (file_id, seq)
);
CREATE INDEX IF NOT EXISTS chunks_type ON chunks(type);
`

// Entry is one indexed chunk.
type Entry struct {
	Path   string
	Seq    int // position of the chunk within its file
	Type   string
	Length uint32
	CRC    uint32
}

// Catalog is a SQLite-backed chunk index.
type Catalog struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the catalog at dsn.
func Open(ctx context.Context, dsn string) (*Catalog, error) {
	db, err := sqlite.Open(dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: create schema: %w", err)
	}
	return &Catalog{db: db, now: time.Now}, nil
}

// ErrNotCatalog is returned by OpenReadOnly for a database without the
// catalog tables.
var ErrNotCatalog = errors.New("not a chunk catalog")

// OpenReadOnly opens an existing catalog for lookups. The database is never
// modified, so the schema must already be present.
func OpenReadOnly(ctx context.Context, path string) (*Catalog, error) {
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, err
	}

	var n int
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('files', 'chunks')`).Scan(&n)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: inspect %s: %w", path, err)
	}
	if n != 2 {
		db.Close()
		return nil, fmt.Errorf("catalog: %s: %w", path, ErrNotCatalog)
	}
	return &Catalog{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Record replaces everything known about path with the chunks of p that
// match f (nil matches all). It returns the scan ID and the number of
// chunks written.
func (c *Catalog) Record(ctx context.Context, path string, p *png.Png, f *filter.Filter) (string, int, error) {
	scanID := uuid.NewString()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, fmt.Errorf("catalog: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, path); err != nil {
		return "", 0, fmt.Errorf("catalog: clear %s: %w", path, err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO files (path, scan_id, chunk_count, indexed_at) VALUES (?, ?, ?, ?)`,
		path, scanID, p.Len(), c.now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", 0, fmt.Errorf("catalog: insert file %s: %w", path, err)
	}
	fileID, err := res.LastInsertId()
	if err != nil {
		return "", 0, fmt.Errorf("catalog: file id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks
		(file_id, seq, type, length, crc, critical, public, safe_to_copy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", 0, fmt.Errorf("catalog: prepare: %w", err)
	}
	defer stmt.Close()

	written := 0
	for seq, ch := range p.Chunks() {
		if !f.Match(ch) {
			continue
		}
		t := ch.Type()
		if _, err := stmt.ExecContext(ctx, fileID, seq, t.String(), int64(ch.Length()), int64(ch.CRC()),
			t.IsCritical(), t.IsPublic(), t.IsSafeToCopy()); err != nil {
			return "", 0, fmt.Errorf("catalog: insert chunk %s: %w", t, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return "", 0, fmt.Errorf("catalog: commit: %w", err)
	}
	return scanID, written, nil
}

// FindByType returns every indexed chunk of type t ordered by path and position.
func (c *Catalog) FindByType(ctx context.Context, t png.ChunkType) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT f.path, ch.seq, ch.type, ch.length, ch.crc
		FROM chunks ch JOIN files f ON f.id = ch.file_id
		WHERE ch.type = ?
		ORDER BY f.path, ch.seq`, t.String())
	if err != nil {
		return nil, fmt.Errorf("catalog: query %s: %w", t, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var length, crc int64
		if err := rows.Scan(&e.Path, &e.Seq, &e.Type, &length, &crc); err != nil {
			return nil, fmt.Errorf("catalog: scan: %w", err)
		}
		e.Length = uint32(length)
		e.CRC = uint32(crc)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: rows: %w", err)
	}
	return out, nil
}

// FileCount returns the number of indexed files.
func (c *Catalog) FileCount(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&n); err != nil {
		return 0, fmt.Errorf("catalog: count: %w", err)
	}
	return n, nil
}
