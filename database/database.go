// Package database opens the GORM connection used by the store-owning modules.
package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/todo-app/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Driver names reported by DriverName.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DriverName picks the driver for a DSN.
func DriverName(dsn string) string {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Open connects to the configured database and applies pool settings.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	var dialector gorm.Dialector
	switch DriverName(cfg.DSN) {
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		dialector = sqlite.Open(sqliteDSN(cfg.DSN))
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLife > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLife)
	}

	return db, nil
}

// sqliteDSN adds a busy timeout to file databases; several modules hold their
// own pool against the same file.
func sqliteDSN(dsn string) string {
	if dsn == ":memory:" || strings.Contains(dsn, "?") {
		return dsn
	}
	return dsn + "?_busy_timeout=5000&_journal_mode=WAL"
}

// Ping checks connectivity for health reporting.
func Ping(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Redact hides the password of a postgres DSN for logging.
func Redact(dsn string) string {
	if DriverName(dsn) != DriverPostgres {
		return dsn
	}
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		return dsn[:scheme+3] + creds[:colon] + ":***" + dsn[at:]
	}
	return dsn
}
