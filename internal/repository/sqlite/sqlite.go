// Package sqlite implements the repository interfaces on an embedded
// SQLite database.
//
// WHY SQLITE?
// The credential store holds one small table of users plus their sessions.
// An embedded database means no separate server to run - a single file (or
// ":memory:" in tests) is the whole store.
//
// WHY modernc.org/sqlite?
// It is a pure-Go translation of SQLite - no CGo, no C compiler, painless
// cross-compilation. The driver registers itself as "sqlite" via the blank
// import below.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver with database/sql
)

// DB wraps a sql.DB connection pool and hands out the per-entity stores
// that implement the repository interfaces. The server owns the
// lifecycle: New opens and migrates, Close flushes and releases the file.
type DB struct {
	conn     *sql.DB
	users    *UserStore
	sessions *SessionStore
}

// Users returns the UserRepository implementation backed by this database.
func (db *DB) Users() *UserStore {
	return db.users
}

// Sessions returns the SessionRepository implementation backed by this
// database.
func (db *DB) Sessions() *SessionStore {
	return db.sessions
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Ping forces a real connection so a bad path surfaces here rather
	// than on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight - needed once
	// concurrent requests share this pool.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{
		conn:     conn,
		users:    &UserStore{conn: conn},
		sessions: &SessionStore{conn: conn},
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this
// idempotent across restarts.
//
// The UNIQUE index on users.email is the duplicate-email correctness
// boundary: concurrent signups race to the index, not to an application
// check. google_id is nullable so the UNIQUE index ignores local-only
// accounts (SQLite treats NULLs as distinct).
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL DEFAULT '',
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT,
			google_id     TEXT UNIQUE,
			gender        TEXT NOT NULL DEFAULT '',
			dob           TEXT NOT NULL DEFAULT '',
			provider      TEXT NOT NULL DEFAULT 'local',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id),
			email      TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			expires_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
	`)
	if err != nil {
		return fmt.Errorf("creating sessions table: %w", err)
	}

	return nil
}
