package store

import (
	"database/sql"
	"fmt"
)

const (
	tableRequestEvents = "request_events"
	tablePapers        = "papers"
	tableAttempts      = "attempts"
	tableAnswers       = "answers"
)

// Timestamps are stored as unix milliseconds.
var ddl = []string{
	`CREATE TABLE IF NOT EXISTS request_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL UNIQUE,
		timestamp INTEGER NOT NULL,
		operation TEXT NOT NULL,
		target TEXT NOT NULL DEFAULT '',
		latency_ms INTEGER NOT NULL DEFAULT 0,
		success INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS papers (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		payload BLOB NOT NULL,
		imported_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS attempts (
		id TEXT PRIMARY KEY,
		paper_id TEXT NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at INTEGER,
		finished_at INTEGER,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS attempts_paper_user ON attempts (paper_id, user_id)`,
	`CREATE TABLE IF NOT EXISTS answers (
		attempt_id TEXT NOT NULL REFERENCES attempts(id) ON DELETE CASCADE,
		exercise_id TEXT NOT NULL,
		item_id TEXT NOT NULL,
		answer_index INTEGER NOT NULL,
		time_spent INTEGER NOT NULL DEFAULT 0,
		answered_at INTEGER NOT NULL,
		PRIMARY KEY (attempt_id, item_id)
	)`,
}

func migrate(db *sql.DB) error {
	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
