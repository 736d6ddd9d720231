package postindex

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Row is one indexed post.
type Row struct {
	URL         string
	Title       string
	Date        string
	Categories  []string
	Fingerprint string
}

// Store is a SQLite post index.
type Store struct {
	db *sql.DB
}

// Create replaces any database at path with an empty index.
func Create(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale index: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE posts (
		url TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		date TEXT NOT NULL,
		categories TEXT NOT NULL,
		fingerprint TEXT NOT NULL
	);
	CREATE INDEX idx_posts_date ON posts(date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Insert adds rows in a single transaction.
func (s *Store) Insert(ctx context.Context, rows []Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO posts (url, title, date, categories, fingerprint) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.URL, r.Title, r.Date, strings.Join(r.Categories, ","), r.Fingerprint); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert %s: %w", r.URL, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
