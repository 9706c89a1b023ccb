package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names. "sqlite" is the pure-Go modernc
// driver, "sqlite3" the cgo mattn driver.
const (
	DriverModernc = "sqlite"
	DriverCgo     = "sqlite3"
)

const sqlCreateKVTable = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

const (
	sqlSelectValue = `SELECT value FROM kv WHERE key = ?`
	sqlUpsertValue = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`
	sqlDeleteValue = `DELETE FROM kv WHERE key = ?`
)

// DB is the node's flat key/value store.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the database at path with the named driver and
// ensures the schema exists.
func Open(driver, path string) (*DB, error) {
	switch driver {
	case DriverModernc, DriverCgo:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	sqlDB, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serializes
	// writes the same way for file databases.
	sqlDB.SetMaxOpenConns(1)

	d := &DB{db: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	log.Printf("Opened %s database at %s", driver, path)
	return d, nil
}

func (d *DB) migrate() error {
	if _, err := d.db.Exec(sqlCreateKVTable); err != nil {
		return fmt.Errorf("failed to create kv table: %w", err)
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Get returns the value stored under key. ok is false when the key is absent.
func (d *DB) Get(key string) (value string, ok bool, err error) {
	err = d.db.QueryRow(sqlSelectValue, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

// Put replaces the whole value stored under key.
func (d *DB) Put(key, value string) error {
	if _, err := d.db.Exec(sqlUpsertValue, key, value); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (d *DB) Delete(key string) error {
	if _, err := d.db.Exec(sqlDeleteValue, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
