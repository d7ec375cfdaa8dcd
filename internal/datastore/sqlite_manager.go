package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/voicediary/composite/internal/errors"
	"github.com/voicediary/composite/internal/logger"
)

// Config holds SQLite configuration.
type Config struct {
	// Path is the database file. Parent directories are created.
	Path               string
	SlowQueryThreshold time.Duration
	Logger             logger.Logger
}

// SQLiteManager handles the SQLite database.
type SQLiteManager struct {
	db     *gorm.DB
	dbPath string
}

// NewSQLiteManager opens the SQLite database at cfg.Path.
//
// Transactions begin IMMEDIATE so the barrier's read-then-update runs under
// the database write lock, which is how SQLite provides row locking.
func NewSQLiteManager(cfg Config) (*SQLiteManager, error) {
	if cfg.Path == "" {
		return nil, errors.Newf("sqlite path is empty").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.New(fmt.Errorf("failed to create database directory: %w", err)).
				Component("datastore").
				Category(errors.CategoryFileIO).
				Build()
		}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Global().Module("datastore")
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON&_txlock=immediate", cfg.Path)
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(log, cfg.SlowQueryThreshold))
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open sqlite database: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("path", cfg.Path).
			Build()
	}

	return &SQLiteManager{db: db, dbPath: cfg.Path}, nil
}

// Initialize creates the schema.
func (m *SQLiteManager) Initialize() error {
	return migrate(m.db)
}

// DB returns the underlying GORM database.
func (m *SQLiteManager) DB() *gorm.DB {
	return m.db
}

// Path returns the database file path.
func (m *SQLiteManager) Path() string {
	return m.dbPath
}

// Close closes the database connection.
func (m *SQLiteManager) Close() error {
	return closeDB(m.db)
}

// IsMySQL returns false for SQLite manager.
func (m *SQLiteManager) IsMySQL() bool {
	return false
}
