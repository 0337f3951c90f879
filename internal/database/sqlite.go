package database

import (
	"context"
	"database/sql"
	"fmt"

	"timestreams/internal/database/migrations"
	"timestreams/internal/timestreams"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteHistory implements the History interface using SQLite.
type SQLiteHistory struct {
	db   *sql.DB
	path string
}

// NewSQLiteHistory opens the database at path and brings its schema up to
// date. path can be a file path or MemoryPath.
func NewSQLiteHistory(path string) (*SQLiteHistory, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	return &SQLiteHistory{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection. An in-memory
// database is pinned to one connection, since each connection would
// otherwise see its own empty database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	// The server records requests from many goroutines.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

// Record appends r. ID is assigned by the database and ignored here.
func (s *SQLiteHistory) Record(ctx context.Context, r timestreams.RequestRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO requests (request_id, stream, post_id, status, filepath, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.RequestID, r.Stream, r.PostID, r.Status, r.FilePath, r.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording request %s: %w", r.RequestID, err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *SQLiteHistory) Recent(ctx context.Context, limit int) ([]timestreams.RequestRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, stream, post_id, status, filepath, created_at FROM requests ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer rows.Close()

	var out []timestreams.RequestRecord
	for rows.Next() {
		var r timestreams.RequestRecord
		if err := rows.Scan(&r.ID, &r.RequestID, &r.Stream, &r.PostID, &r.Status, &r.FilePath, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	return out, nil
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteHistory) CheckMigrations() error {
	return migrations.CheckStatus(s.db)
}

func (s *SQLiteHistory) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", s.path, err)
	}
	return nil
}

// Compile-time check that SQLiteHistory implements timestreams.History interface
var _ timestreams.History = (*SQLiteHistory)(nil)
