package datastore

import (
	"fmt"
	"net"
	"time"

	sqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/voicediary/composite/internal/errors"
	"github.com/voicediary/composite/internal/logger"
)

// MySQLConfig holds MySQL-specific configuration.
type MySQLConfig struct {
	Host               string
	Port               string
	Username           string
	Password           string
	Database           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	SlowQueryThreshold time.Duration
	Logger             logger.Logger
}

// MySQLManager handles the MySQL database. Barrier reads use SELECT ... FOR
// UPDATE, so several service instances can share one database.
type MySQLManager struct {
	db       *gorm.DB
	location string // host:port/database for display
}

// NewMySQLManager opens a MySQL connection pool.
func NewMySQLManager(cfg *MySQLConfig) (*MySQLManager, error) {
	dsn := mysqlDSN(cfg)
	location := fmt.Sprintf("%s:%s/%s", cfg.Host, cfg.Port, cfg.Database)

	log := cfg.Logger
	if log == nil {
		log = logger.Global().Module("datastore")
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig(log, cfg.SlowQueryThreshold))
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open MySQL database: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("location", location).
			Build()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	sqlDB.SetMaxIdleConns(orDefault(cfg.MaxIdleConns, 10))
	sqlDB.SetMaxOpenConns(orDefault(cfg.MaxOpenConns, 100))
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return &MySQLManager{db: db, location: location}, nil
}

// mysqlDSN builds the driver DSN. Times are read and written in UTC so lease
// expiry compares equal across hosts.
func mysqlDSN(cfg *MySQLConfig) string {
	c := sqldriver.NewConfig()
	c.User = cfg.Username
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	c.DBName = cfg.Database
	c.ParseTime = true
	c.Loc = time.UTC
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// Initialize creates or migrates the schema.
func (m *MySQLManager) Initialize() error {
	return migrate(m.db)
}

// DB returns the underlying GORM database.
func (m *MySQLManager) DB() *gorm.DB {
	return m.db
}

// Path returns the database location (host:port/database).
func (m *MySQLManager) Path() string {
	return m.location
}

// Close closes the database connection.
func (m *MySQLManager) Close() error {
	return closeDB(m.db)
}

// IsMySQL returns true for MySQL manager.
func (m *MySQLManager) IsMySQL() bool {
	return true
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
