// Package db provides the SQLite-backed detection audit store.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrDatabaseNotFound is returned by OpenWithOptions when the file is missing
// and CreateIfNotExists is false.
var ErrDatabaseNotFound = errors.New("database not found")

// DB wraps a SQLite connection pool.
type DB struct {
	*sql.DB
	path string
}

// OpenOptions controls how a database is opened.
type OpenOptions struct {
	// CreateIfNotExists creates the file (and parent directory) when missing.
	CreateIfNotExists bool
	// InitSchema applies pending migrations after opening.
	InitSchema bool
	// ReadOnly opens the database in read-only mode.
	ReadOnly bool
}

// Open opens (creating if needed) and migrates the database at path.
func Open(path string) (*DB, error) {
	return OpenWithOptions(path, OpenOptions{CreateIfNotExists: true, InitSchema: true})
}

// OpenAndMigrate is Open; kept as the explicit name at call sites that rely on
// the schema being current.
func OpenAndMigrate(path string) (*DB, error) {
	return Open(path)
}

// OpenWithOptions opens the database at path. The special path ":memory:"
// opens a private in-memory database.
func OpenWithOptions(path string, opts OpenOptions) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	memory := path == ":memory:"
	if !memory {
		if _, err := os.Stat(path); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("stat database: %w", err)
			}
			if !opts.CreateIfNotExists || opts.ReadOnly {
				return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
	}

	sqlDB, err := sql.Open("sqlite", dsn(path, opts.ReadOnly))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if memory {
		// Each connection to :memory: is a separate database.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	db := &DB{DB: sqlDB, path: path}
	if opts.InitSchema && !opts.ReadOnly {
		if err := db.Migrate(); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}
	return db, nil
}

// Path returns the file the database was opened from.
func (db *DB) Path() string {
	return db.path
}

func dsn(path string, readOnly bool) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(1)")
	if path == ":memory:" {
		return ":memory:?" + q.Encode()
	}
	if readOnly {
		q.Set("mode", "ro")
	} else {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	return "file:" + path + "?" + q.Encode()
}

// migrations are applied in order; each entry's index+1 is its version.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS detections (
		id                     TEXT PRIMARY KEY,
		session_id             TEXT NOT NULL,
		tier                   TEXT NOT NULL,
		tier_rank              INTEGER NOT NULL,
		score                  REAL NOT NULL,
		confidence             REAL NOT NULL,
		pattern_descriptions   TEXT NOT NULL DEFAULT '[]',
		risk_factor_count      INTEGER NOT NULL DEFAULT 0,
		risk_factor_categories TEXT NOT NULL DEFAULT '[]',
		sentiment_comparative  REAL NOT NULL DEFAULT 0,
		sentiment_fault        INTEGER NOT NULL DEFAULT 0,
		library_version        TEXT NOT NULL DEFAULT '',
		library_hash           TEXT NOT NULL DEFAULT '',
		detected_at            TEXT NOT NULL,
		recorded_at            TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_detections_session ON detections(session_id);
	CREATE INDEX IF NOT EXISTS idx_detections_detected_at ON detections(detected_at);
	CREATE INDEX IF NOT EXISTS idx_detections_tier_rank ON detections(tier_rank);`,
}

// Migrate brings the schema up to date.
func (db *DB) Migrate() error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	current, err := db.SchemaVersion()
	if err != nil {
		return err
	}

	for i := current; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
			i+1, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", i+1, err)
		}
	}
	return nil
}

// SchemaVersion returns the highest applied migration, or 0.
func (db *DB) SchemaVersion() (int, error) {
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return int(v.Int64), nil
}
