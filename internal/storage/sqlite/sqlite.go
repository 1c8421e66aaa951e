// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// busyTimeoutMillis is how long a writer waits for the database lock.
const busyTimeoutMillis = 5000

// Dialect is the SQLite flavour of the shared SQL store.
// Every transaction starts with BEGIN IMMEDIATE (see dsn), so the row read by
// LockExpense cannot change before the transaction ends and no lock clause is needed.
var Dialect = sqlstore.Dialect{
	Name:              "sqlite",
	NoLimit:           "-1",
	IsUniqueViolation: isUniqueViolation,
}

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	*sqlstore.Store
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Run migrations on their own connection
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStore{Store: sqlstore.New(db, Dialect)}, nil
}

// dsn enables foreign keys and a busy timeout on every connection, and makes
// transactions take the write lock up front.
func dsn(dbPath string) string {
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)&_txlock=immediate",
		dbPath, busyTimeoutMillis)
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// Connections without extended result codes only report the primary code.
		return strings.Contains(se.Error(), "UNIQUE constraint failed")
	}
	return false
}
