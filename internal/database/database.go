package database

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	conn *sql.DB
	path string
}

func New(path string) (*DB, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(2)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// DatabaseSizeBytes returns the file size of the database.
func (db *DB) DatabaseSizeBytes() (int64, error) {
	info, err := os.Stat(db.path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Timestamps are stored as UTC strings in SQLite's datetime format.
const timeLayout = "2006-01-02 15:04:05"

func timeString(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func (db *DB) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id                 TEXT PRIMARY KEY,
			display_name       TEXT    NOT NULL,
			base_score         INTEGER NOT NULL DEFAULT 50,
			positive_keywords  TEXT    NOT NULL DEFAULT '[]',
			negative_keywords  TEXT    NOT NULL DEFAULT '[]',
			source_reliability TEXT    NOT NULL DEFAULT '{}',
			region_tags        TEXT    NOT NULL DEFAULT '[]',
			region_boost       REAL    NOT NULL DEFAULT 1.0,
			controversy_factor REAL    NOT NULL DEFAULT 1.0,
			exclusion_patterns TEXT    NOT NULL DEFAULT '[]',
			created_at         TEXT    NOT NULL DEFAULT (datetime('now')),
			updated_at         TEXT    NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS fingerprints (
			article_id         TEXT PRIMARY KEY,
			url_hash           TEXT    NOT NULL,
			title_hash         TEXT    NOT NULL,
			content_hash       TEXT    NOT NULL,
			signature          TEXT    NOT NULL DEFAULT '[]',
			first_delivered_at TEXT    NOT NULL,
			last_delivered_at  TEXT    NOT NULL,
			delivery_count     INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fingerprints_url_hash ON fingerprints(url_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_fingerprints_title_hash ON fingerprints(title_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_fingerprints_content_hash ON fingerprints(content_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_fingerprints_first_delivered ON fingerprints(first_delivered_at)`,
		`CREATE TABLE IF NOT EXISTS deliveries (
			id             TEXT PRIMARY KEY,
			created_at     TEXT    NOT NULL,
			article_count  INTEGER NOT NULL DEFAULT 0,
			primary_count  INTEGER NOT NULL DEFAULT 0,
			surprise_count INTEGER NOT NULL DEFAULT 0,
			shortfall      INTEGER NOT NULL DEFAULT 0,
			article_ids    TEXT    NOT NULL DEFAULT '[]'
		)`,
		`CREATE TABLE IF NOT EXISTS feedback_events (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			topic_id        TEXT    NOT NULL,
			article_id      TEXT    NOT NULL DEFAULT '',
			corrected_score INTEGER NOT NULL,
			old_base_score  INTEGER NOT NULL,
			new_base_score  INTEGER NOT NULL,
			mode            TEXT    NOT NULL,
			created_at      TEXT    NOT NULL DEFAULT (datetime('now'))
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w\nstatement: %s", err, stmt)
		}
	}

	return nil
}
