// Package library stores named macros in an SQLite database.
//
// Each macro is kept in the binary macro encoding of package ops, so a
// stored macro is byte-identical to the .ops file it came from.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gogpu/darkroom/ops"
)

// ErrNotFound is returned when no macro has the requested name.
var ErrNotFound = errors.New("library: macro not found")

// Schema creates the macro table.
const Schema = `
CREATE TABLE IF NOT EXISTS macros (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	records    BLOB NOT NULL,
	count      INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);`

// Entry describes a stored macro.
type Entry struct {
	ID      string
	Name    string
	Count   int
	Created time.Time
	Updated time.Time
}

// Library is a macro store backed by an SQLite database.
type Library struct {
	DB *sql.DB
}

// Open opens (or creates) the library database at path. Use ":memory:" for
// a throwaway library.
func Open(path string) (*Library, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("library: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("library: open: %w", err)
	}
	if path == ":memory:" {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}

	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		Schema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("library: %w", err)
		}
	}
	return &Library{DB: db}, nil
}

// Close closes the database.
func (l *Library) Close() error {
	return l.DB.Close()
}

// Store saves records under name, replacing any macro with the same name.
// The stored entry keeps its id across replacements.
func (l *Library) Store(ctx context.Context, name string, records []ops.Op) (*Entry, error) {
	if name == "" {
		return nil, errors.New("library: empty macro name")
	}
	data, err := ops.Marshal(records)
	if err != nil {
		return nil, err
	}
	now := time.Now().UnixMilli()

	_, err = l.DB.ExecContext(ctx, `
		INSERT INTO macros (id, name, records, count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			records = excluded.records,
			count = excluded.count,
			updated_at = excluded.updated_at`,
		uuid.NewString(), name, data, len(records), now, now)
	if err != nil {
		return nil, fmt.Errorf("library: store %q: %w", name, err)
	}
	return l.entry(ctx, name)
}

// Fetch returns the records stored under name.
func (l *Library) Fetch(ctx context.Context, name string) ([]ops.Op, error) {
	var data []byte
	err := l.DB.QueryRowContext(ctx,
		`SELECT records FROM macros WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("library: fetch %q: %w", name, err)
	}
	return ops.Unmarshal(data)
}

// List returns all stored macros ordered by name.
func (l *Library) List(ctx context.Context) ([]Entry, error) {
	rows, err := l.DB.QueryContext(ctx, `
		SELECT id, name, count, created_at, updated_at
		FROM macros ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("library: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Delete removes the macro stored under name.
func (l *Library) Delete(ctx context.Context, name string) error {
	res, err := l.DB.ExecContext(ctx, `DELETE FROM macros WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("library: delete %q: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}

func (l *Library) entry(ctx context.Context, name string) (*Entry, error) {
	row := l.DB.QueryRowContext(ctx, `
		SELECT id, name, count, created_at, updated_at
		FROM macros WHERE name = ?`, name)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var (
		e                Entry
		created, updated int64
	)
	if err := s.Scan(&e.ID, &e.Name, &e.Count, &created, &updated); err != nil {
		return nil, err
	}
	e.Created = time.UnixMilli(created)
	e.Updated = time.UnixMilli(updated)
	return &e, nil
}
