// Package db opens the database, applies the schema and seeds reference data.
package db

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/beaudelaire1/trait-d-union-sub000/internal/config"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
)

const (
	connectAttempts = 10
	connectDelay    = 2 * time.Second
)

// Open connects with a retry loop so the app can start alongside Postgres.
func Open(cfg config.DatabaseConfig, debug bool, log *slog.Logger) (*gorm.DB, error) {
	level := logger.Silent
	if debug {
		level = logger.Info
	}
	gcfg := &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}

	dialector := postgres.Open(cfg.DSN())
	if cfg.IsSQLite() {
		sep := "?"
		if strings.Contains(cfg.SQLitePath, "?") {
			sep = "&"
		}
		dialector = sqlite.Open(cfg.SQLitePath + sep + "_foreign_keys=on&_busy_timeout=5000")
	}

	var (
		conn *gorm.DB
		err  error
	)
	for i := 0; i < connectAttempts; i++ {
		conn, err = gorm.Open(dialector, gcfg)
		if err == nil {
			err = conn.Exec("SELECT 1").Error
		}
		if err == nil {
			break
		}
		log.Warn("database not ready, retrying", "attempt", i+1, "of", connectAttempts, "error", err)
		time.Sleep(connectDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}

	if cfg.IsSQLite() {
		// SQLite serializes writers; a single connection avoids "database is locked".
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	log.Info("database connected", "driver", cfg.Driver, "host", cfg.Host, "dbname", cfg.DBName)
	return conn, nil
}

// Migrate applies the schema with gorm AutoMigrate.
func Migrate(conn *gorm.DB) error {
	for _, m := range models.All() {
		if err := conn.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	for _, table := range []string{"quotes", "invoices", "quote_validations"} {
		if !conn.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// RunSQLMigrations applies the versioned SQL files of dir with golang-migrate.
func RunSQLMigrations(dir, databaseURL string) error {
	m, err := migrate.New("file://"+dir, databaseURL)
	if err != nil {
		return fmt.Errorf("sql migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sql migrations: %w", err)
	}
	return nil
}
