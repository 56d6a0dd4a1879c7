// Package localstore provides the durable SQLite-backed storage used by the
// sync engine: one table per entity type, the offline mutation queue and a
// generic key-value table for sync bookkeeping.
//
// The store has no network awareness. Every operation is atomic from the
// caller's point of view; concurrent writers are serialized by SQLite.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by Find* operations when no row matches.
var ErrNotFound = errors.New("localstore: not found")

// Entity type tags used by the offline queue and the change feed.
const (
	EntityCategory      = "category"
	EntityStatement     = "statement"
	EntityState         = "state"
	EntityQuickes       = "quickes"
	EntityDialogChat    = "dialogChat"
	EntityDialogMessage = "dialogMessage"
)

// Offline queue operation types.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpSet    = "set"
)

// Sync key-value keys owned by the engine.
const (
	KeyCursor           = "sync.cursor"
	KeyStateWatermark   = "watermark.state"
	KeyQuickesWatermark = "watermark.quickes"
)

// Store is the local cache for all entity types plus the offline queue and
// the sync key-value table.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the SQLite database at path and initializes the
// schema. Use ":memory:" for an in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps writers serialized (no SQLITE_BUSY) and makes
	// :memory: stores coherent across the pool.
	db.SetMaxOpenConns(1)
	store, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an existing database handle and initializes the schema.
func New(db *sql.DB) (*Store, error) {
	if err := initializeSchema(db); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db, logger: slog.Default()}, nil
}

// SetLogger replaces the store logger.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for tests and tooling.
func (s *Store) DB() *sql.DB { return s.db }

func initializeSchema(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	tables := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id         TEXT PRIMARY KEY,
			label      TEXT NOT NULL,
			created    INTEGER NOT NULL,
			is_default INTEGER NOT NULL DEFAULT 0,
			ai_use     INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER
		)`,

		`CREATE TABLE IF NOT EXISTS statements (
			id          TEXT PRIMARY KEY,
			category_id TEXT NOT NULL,
			text        TEXT NOT NULL,
			created     INTEGER NOT NULL,
			updated_at  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_statements_category ON statements(category_id)`,

		// Singleton row, fixed key.
		`CREATE TABLE IF NOT EXISTS user_state (
			id          INTEGER PRIMARY KEY CHECK (id = 1),
			inited      INTEGER NOT NULL DEFAULT 0,
			quickes     TEXT NOT NULL DEFAULT '[]',
			preferences TEXT NOT NULL DEFAULT '{}'
		)`,

		`CREATE TABLE IF NOT EXISTS dialog_chats (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL DEFAULT '',
			created    INTEGER NOT NULL,
			updated_at INTEGER
		)`,

		`CREATE TABLE IF NOT EXISTS dialog_messages (
			id      TEXT PRIMARY KEY,
			chat_id TEXT NOT NULL,
			role    TEXT NOT NULL,
			content TEXT NOT NULL,
			source  TEXT NOT NULL DEFAULT '',
			created INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dialog_messages_chat ON dialog_messages(chat_id)`,

		`CREATE TABLE IF NOT EXISTS dialog_suggestions (
			id      TEXT PRIMARY KEY,
			chat_id TEXT NOT NULL,
			text    TEXT NOT NULL,
			created INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dialog_suggestions_chat ON dialog_suggestions(chat_id)`,

		`CREATE TABLE IF NOT EXISTS offline_queue (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			entity_type TEXT NOT NULL,
			op_type     TEXT NOT NULL CHECK (op_type IN ('create','update','delete','set')),
			payload     BLOB NOT NULL,
			created_at  INTEGER NOT NULL,
			retry_count INTEGER NOT NULL DEFAULT 0,
			last_error  TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS sync_kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// inTx runs fn inside a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
