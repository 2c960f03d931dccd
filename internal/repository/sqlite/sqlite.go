// Package sqlite implements the repository interfaces on SQLite via the pure
// Go driver modernc.org/sqlite, so the binary builds without cgo. Use
// ":memory:" as the path for throwaway databases in tests.
package sqlite

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements every repository
// interface. One connection pool serves all entities.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite. The congratulation and
	// birthday_tags cascades depend on this pragma.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it idempotent.
//
// Deleting a birthday cascades to its congratulations and tag links; a
// comment thread has no meaning without its record, and orphaned join rows
// would only accumulate.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			login         TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     INTEGER NOT NULL DEFAULT 0,
			avatar_url    TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_users_github_id ON users(github_id);

		CREATE TABLE IF NOT EXISTS tags (
			id    TEXT PRIMARY KEY,
			label TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS birthdays (
			id          TEXT PRIMARY KEY,
			first_name  TEXT NOT NULL,
			last_name   TEXT NOT NULL DEFAULT '',
			birth_date  DATETIME NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			author_id   TEXT NOT NULL REFERENCES users(id),
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_birthdays_author_id ON birthdays(author_id);

		CREATE TABLE IF NOT EXISTS birthday_tags (
			birthday_id TEXT NOT NULL REFERENCES birthdays(id) ON DELETE CASCADE,
			tag_id      TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
			PRIMARY KEY (birthday_id, tag_id)
		);

		CREATE TABLE IF NOT EXISTS congratulations (
			id          TEXT PRIMARY KEY,
			text        TEXT NOT NULL,
			author_id   TEXT NOT NULL REFERENCES users(id),
			birthday_id TEXT NOT NULL REFERENCES birthdays(id) ON DELETE CASCADE,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_congratulations_birthday_id
			ON congratulations(birthday_id);
	`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	return db.seedTags()
}

// seedTags inserts the default tag catalog on first run. INSERT OR IGNORE
// keeps repeat runs harmless.
func (db *DB) seedTags() error {
	defaults := []struct{ id, label string }{
		{"tag-family", "Family"},
		{"tag-friends", "Friends"},
		{"tag-colleagues", "Colleagues"},
		{"tag-school", "School"},
	}
	for _, tag := range defaults {
		if _, err := db.conn.Exec(
			`INSERT OR IGNORE INTO tags (id, label) VALUES (?, ?)`,
			tag.id, tag.label,
		); err != nil {
			return fmt.Errorf("seeding tag %s: %w", tag.label, err)
		}
	}
	return nil
}
