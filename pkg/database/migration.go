package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	postgres "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// migrationLogger adapts ectologger to golang-migrate's logger.
type migrationLogger struct {
	ectologger.Logger
}

func (l migrationLogger) Verbose() bool {
	return true
}

func (l migrationLogger) Printf(format string, v ...any) {
	l.Infof(format, v...)
}

// MigrationConfig controls how migrations run at startup.
type MigrationConfig struct {
	FolderPath string
	Version    uint // 0 means migrate to latest
	Force      int  // non-zero forces the schema version before migrating
}

// Migrate runs the SQL migrations in cfg.FolderPath against db.
func Migrate(db DB, databaseName string, cfg MigrationConfig, logger ectologger.Logger) error {
	folder := cfg.FolderPath
	if _, err := os.Stat(folder); err != nil {
		wd, _ := os.Getwd()
		folder = filepath.Join(wd, cfg.FolderPath)
		if _, err := os.Stat(folder); err != nil {
			return fmt.Errorf("migration folder %s does not exist: %w", cfg.FolderPath, err)
		}
	}

	driver, err := postgres.WithInstance(db.Unsafe().DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+folder, databaseName, driver)
	if err != nil {
		logger.WithError(err).Error("failed to create migrate instance")
		return err
	}
	m.Log = migrationLogger{Logger: logger}

	if cfg.Force != 0 {
		if err := m.Force(cfg.Force); err != nil {
			return fmt.Errorf("failed to force migration version %d: %w", cfg.Force, err)
		}
	}

	if cfg.Version > 0 {
		err = m.Migrate(cfg.Version)
	} else {
		err = m.Up()
	}
	if err != nil && err != migrate.ErrNoChange {
		logger.WithError(err).Error("migration failed")
		return err
	}

	version, dirty, _ := m.Version()
	logger.WithFields(map[string]any{
		"version": version,
		"dirty":   dirty,
	}).Info("database migrations complete")

	return nil
}
