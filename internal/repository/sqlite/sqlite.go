// Package sqlite implements the repository interfaces on an embedded
// SQLite database via the pure-Go modernc.org/sqlite driver (no CGo, so
// cross-compilation stays trivial).
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps the connection pool and implements the repository interfaces.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// An in-memory database exists per connection; with more than one
	// pooled connection the schema would vanish between queries.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in flight, which a web
	// server needs. Foreign keys are off by default in SQLite.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
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

// Close closes the connection pool. Callers should defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                      TEXT PRIMARY KEY,
			email                   TEXT NOT NULL UNIQUE,
			password_hash           TEXT NOT NULL,
			name                    TEXT NOT NULL DEFAULT '',
			require_password_change INTEGER NOT NULL DEFAULT 0,
			security_question       TEXT NOT NULL DEFAULT '',
			security_answer_hash    TEXT NOT NULL DEFAULT '',
			created_at              DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at              DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS locations (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL REFERENCES users(id),
			name         TEXT NOT NULL,
			latitude     REAL NOT NULL,
			longitude    REAL NOT NULL,
			address      TEXT NOT NULL DEFAULT '',
			place_id     TEXT NOT NULL DEFAULT '',
			category     TEXT NOT NULL DEFAULT '',
			notes        TEXT NOT NULL DEFAULT '',
			usage_count  INTEGER NOT NULL DEFAULT 0,
			last_used_at DATETIME,
			is_public    INTEGER NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_locations_user_id ON locations(user_id);
		CREATE INDEX IF NOT EXISTS idx_locations_public ON locations(is_public);
	`)
	if err != nil {
		return fmt.Errorf("creating locations table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS photos (
			id                TEXT PRIMARY KEY,
			user_id           TEXT NOT NULL REFERENCES users(id),
			file_name         TEXT NOT NULL,
			original_name     TEXT NOT NULL DEFAULT '',
			url               TEXT NOT NULL,
			location_id       TEXT,
			taken_at          DATETIME,
			latitude          REAL,
			longitude         REAL,
			gps_source        TEXT NOT NULL DEFAULT '',
			camera_make       TEXT NOT NULL DEFAULT '',
			camera_model      TEXT NOT NULL DEFAULT '',
			width             INTEGER NOT NULL DEFAULT 0,
			height            INTEGER NOT NULL DEFAULT 0,
			size_bytes        INTEGER NOT NULL DEFAULT 0,
			mime_type         TEXT NOT NULL DEFAULT '',
			category          TEXT NOT NULL,
			title             TEXT NOT NULL DEFAULT '',
			description       TEXT NOT NULL DEFAULT '',
			tags              TEXT NOT NULL DEFAULT '[]',
			is_public         INTEGER NOT NULL DEFAULT 0,
			trashed           INTEGER NOT NULL DEFAULT 0,
			trashed_at        DATETIME,
			edited            INTEGER NOT NULL DEFAULT 0,
			edited_at         DATETIME,
			original_file_url TEXT NOT NULL DEFAULT '',
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_photos_user_id ON photos(user_id);
		CREATE INDEX IF NOT EXISTS idx_photos_user_category ON photos(user_id, category);
		CREATE INDEX IF NOT EXISTS idx_photos_location_id ON photos(location_id);
	`)
	if err != nil {
		return fmt.Errorf("creating photos table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS canvas_projects (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL REFERENCES users(id),
			title         TEXT NOT NULL DEFAULT '',
			current_page  INTEGER NOT NULL DEFAULT 0,
			pages         TEXT NOT NULL DEFAULT '[]',
			thumbnail_url TEXT NOT NULL DEFAULT '',
			version       INTEGER NOT NULL DEFAULT 1,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_canvas_user_id ON canvas_projects(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating canvas_projects table: %w", err)
	}

	return nil
}

// nullableTime converts a scanned sql.NullTime to the *time.Time used in
// the models.
func nullableTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// nullableFloat converts a scanned sql.NullFloat64 to *float64.
func nullableFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

// nullableString converts a scanned sql.NullString to *string, mapping
// both NULL and the empty string to nil.
func nullableString(ns sql.NullString) *string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	s := ns.String
	return &s
}
