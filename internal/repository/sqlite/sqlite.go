// Package sqlite implements the repository interfaces on an embedded
// SQLite database.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite: no CGo, no C toolchain, works
// everywhere Go cross-compiles. The driver registers itself with
// database/sql under the name "sqlite" via its init function, which is why
// the import below is a blank (side-effect only) import.
//
// The ledger needs exactly one piece of store-side atomicity: the
// download-count increment, which is a single UPDATE statement. WAL mode
// lets readers proceed while a write is in flight, and the busy timeout
// makes concurrent writers queue on the write lock instead of failing
// with SQLITE_BUSY, so k concurrent increments yield exactly k.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB pool and implements the repository interfaces.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations. The
// parent directory is created if needed. Tests pass a file in a throwaway
// temp dir; a shared in-memory DB doesn't survive database/sql's pooling.
//
// The pragmas ride on the DSN because database/sql hands out many
// connections and per-connection settings set via Exec would only reach
// one of them.
func New(dbPath string) (*DB, error) {
	if !strings.HasPrefix(dbPath, ":memory:") {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: creating database directory %s: %w", dir, err)
			}
		}
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force an immediate connection so a bad path fails here, not on the
	// first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

// Close closes the connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to
// run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     INTEGER NOT NULL DEFAULT 0,
			avatar_url    TEXT NOT NULL DEFAULT '',
			is_active     INTEGER NOT NULL DEFAULT 1,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS files (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL REFERENCES users(id),
			filename       TEXT NOT NULL,
			file_path      TEXT NOT NULL,
			file_type      TEXT NOT NULL,
			data_type      TEXT NOT NULL,
			model_type     TEXT NOT NULL DEFAULT '',
			num_samples    INTEGER NOT NULL DEFAULT 1,
			file_size      INTEGER NOT NULL DEFAULT 0,
			download_count INTEGER NOT NULL DEFAULT 0,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_files_user_id ON files(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating files table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS generations (
			id              TEXT PRIMARY KEY,
			user_id         TEXT NOT NULL,
			generation_type TEXT NOT NULL,
			domain          TEXT NOT NULL DEFAULT '',
			topic           TEXT NOT NULL DEFAULT '',
			num_samples     INTEGER NOT NULL DEFAULT 1,
			status          TEXT NOT NULL DEFAULT 'completed',
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_generations_user_id ON generations(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating generations table: %w", err)
	}

	return nil
}
