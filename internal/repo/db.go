// Package repo contains the persistence layer built on GORM with a pure-Go
// SQLite driver. It owns schema migration and the query helpers used by the
// service layer. Functions take a context and a *gorm.DB so callers control
// cancellation and transactions.
package repo

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/agritrust/go-agritrust-backend/internal/domain"
)

// ErrNotFound is returned by lookup helpers when no row matches.
var ErrNotFound = gorm.ErrRecordNotFound

// OpenSQLite opens (or creates) the SQLite database at path and configures
// the connection pool and pragmas for a single-writer web workload.
func OpenSQLite(path string, enableTracing bool) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql.DB handle: %w", err)
	}
	// SQLite supports one writer; keep the pool small.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if enableTracing {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, fmt.Errorf("gorm otel plugin: %w", err)
		}
	}

	return db, nil
}

// AutoMigrate creates or updates the schema for all persisted models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.AutoPayRule{},
		&domain.Document{},
		&domain.Payment{},
		&domain.LotEvent{},
		&domain.Idempotency{},
	)
}
