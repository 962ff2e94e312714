package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"phototriage/internal/logger"
)

// SchemaVersion is stored in PRAGMA user_version.
const SchemaVersion = 1

// psql builds statements with ? placeholders for the sqlite3 driver.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// DB wraps the SQLite database connection with thread-safe access.
type DB struct {
	conn   *sql.DB
	mu     sync.RWMutex
	logger *logger.Logger
}

// New opens the ledger database, creating its directory and schema as needed.
func New(dbPath string, logger *logger.Logger) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn, logger: logger}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// migrate brings the photos table to SchemaVersion. Any other stored version
// drops and recreates the table, losing its rows.
func (db *DB) migrate() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	var version int
	if err := db.conn.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if version == SchemaVersion {
		_, err := db.conn.Exec(createPhotosTable)
		return err
	}

	if version != 0 && db.logger != nil {
		db.logger.Warning("Ledger schema version %d != %d, dropping and recreating photos table", version, SchemaVersion)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DROP TABLE IF EXISTS photos`); err != nil {
		return fmt.Errorf("failed to drop photos table: %w", err)
	}
	if _, err := tx.Exec(createPhotosTable); err != nil {
		return fmt.Errorf("failed to create photos table: %w", err)
	}
	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, SchemaVersion)); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}

	return tx.Commit()
}

const createPhotosTable = `
	CREATE TABLE IF NOT EXISTS photos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_path TEXT,
		timestamp TEXT,
		uploaded INTEGER DEFAULT 0
	);
`

// Version returns the stored schema version.
func (db *DB) Version() (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var version int
	err := db.conn.QueryRow(`PRAGMA user_version`).Scan(&version)
	return version, err
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection for use by repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Lock() { db.mu.Lock() }
func (db *DB) Unlock() { db.mu.Unlock() }
func (db *DB) RLock() { db.mu.RLock() }
func (db *DB) RUnlock() { db.mu.RUnlock() }
