package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Timestamps are stored as unix milliseconds.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS interview_sessions (
		id                 TEXT PRIMARY KEY,
		user_id            TEXT NOT NULL,
		role               TEXT NOT NULL,
		level              TEXT NOT NULL,
		current_difficulty REAL NOT NULL,
		status             TEXT NOT NULL,
		evaluation         TEXT,
		overall_score      REAL,
		created_at         INTEGER NOT NULL,
		ended_at           INTEGER,
		duration_ms        INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user_created
		ON interview_sessions (user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS interview_messages (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id   TEXT NOT NULL REFERENCES interview_sessions (id) ON DELETE CASCADE,
		seq          INTEGER NOT NULL,
		role         TEXT NOT NULL,
		content      TEXT NOT NULL,
		metric_index INTEGER,
		created_at   INTEGER NOT NULL,
		UNIQUE (session_id, seq)
	)`,
	`CREATE TABLE IF NOT EXISTS performance_metrics (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id      TEXT NOT NULL REFERENCES interview_sessions (id) ON DELETE CASCADE,
		seq             INTEGER NOT NULL,
		question_number INTEGER NOT NULL,
		technical_depth REAL NOT NULL,
		clarity         REAL NOT NULL,
		confidence      REAL NOT NULL,
		source          TEXT NOT NULL DEFAULT '',
		created_at      INTEGER NOT NULL,
		UNIQUE (session_id, seq)
	)`,
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at    INTEGER NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		purpose       TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    INTEGER NOT NULL DEFAULT 0,
		success       INTEGER NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body  TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
