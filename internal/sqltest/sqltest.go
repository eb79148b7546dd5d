// Package sqltest opens throwaway SQLite databases with the bot schema
// for package tests.
package sqltest

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Schema mirrors the Postgres migrations using SQLite types.
const Schema = `
CREATE TABLE users (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id  BIGINT NOT NULL UNIQUE,
	username VARCHAR(255)
);
CREATE TABLE tags (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id BIGINT NOT NULL REFERENCES users (user_id),
	tag     VARCHAR(30) NOT NULL,
	text    VARCHAR(2000) NOT NULL
);
CREATE TABLE dialog_sessions (
	user_id    BIGINT NOT NULL,
	chat_id    BIGINT NOT NULL,
	state      VARCHAR(64) NOT NULL,
	data       TEXT NOT NULL DEFAULT '{}',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, chat_id)
);
`

// Open returns an in-memory database with Schema applied.
// The pool is pinned to one connection so every query sees the same memory DB.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		t.Fatalf("apply schema: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
