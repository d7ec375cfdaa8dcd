// Package datastore opens the relational store shared by every producer and
// aggregation worker and migrates its schema.
package datastore

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/voicediary/composite/internal/conf"
	"github.com/voicediary/composite/internal/datastore/entities"
	"github.com/voicediary/composite/internal/errors"
	"github.com/voicediary/composite/internal/logger"
)

// Manager defines the interface for database lifecycle operations.
type Manager interface {
	// Initialize creates or migrates the schema.
	Initialize() error
	// DB returns the underlying GORM database.
	DB() *gorm.DB
	// Path returns the database location (file path for SQLite, host:port/db for MySQL).
	Path() string
	// Close closes the database connection.
	Close() error
	// IsMySQL returns true if this is a MySQL manager.
	IsMySQL() bool
}

// Models lists every entity managed by AutoMigrate.
func Models() []any {
	return []any{
		&entities.JobState{},
		&entities.AudioAnalysis{},
		&entities.TextSentiment{},
		&entities.CompositeResult{},
		&entities.NotificationRecord{},
	}
}

// Open creates the manager selected by settings and initializes the schema.
func Open(settings *conf.DatabaseSettings, log logger.Logger) (Manager, error) {
	if log == nil {
		log = logger.Global().Module("datastore")
	}

	var (
		m   Manager
		err error
	)
	switch settings.Type {
	case conf.DatabaseMySQL:
		m, err = NewMySQLManager(&MySQLConfig{
			Host:               settings.MySQL.Host,
			Port:               settings.MySQL.Port,
			Username:           settings.MySQL.Username,
			Password:           settings.MySQL.Password,
			Database:           settings.MySQL.Database,
			MaxOpenConns:       settings.MySQL.MaxOpenConns,
			MaxIdleConns:       settings.MySQL.MaxIdleConns,
			ConnMaxLifetime:    settings.MySQL.ConnMaxLifetime,
			SlowQueryThreshold: settings.SlowQueryThreshold,
			Logger:             log,
		})
	case conf.DatabaseSQLite, "":
		m, err = NewSQLiteManager(Config{
			Path:               settings.SQLite.Path,
			SlowQueryThreshold: settings.SlowQueryThreshold,
			Logger:             log,
		})
	default:
		return nil, errors.Newf("unsupported database type %q", settings.Type).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err != nil {
		return nil, err
	}

	if err := m.Initialize(); err != nil {
		_ = m.Close()
		return nil, err
	}

	log.Info("database ready",
		logger.String("path", m.Path()),
		logger.Bool("mysql", m.IsMySQL()))
	return m, nil
}

// migrate runs AutoMigrate for all models.
func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return errors.New(fmt.Errorf("failed to migrate schema: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return nil
}

func gormConfig(log logger.Logger, slow time.Duration) *gorm.Config {
	return &gorm.Config{
		Logger:         logger.NewGormLoggerAdapter(log, slow),
		TranslateError: true,
	}
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}
