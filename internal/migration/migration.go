package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var schemaFiles embed.FS

const (
	schemaDir        = "sql"
	schemaTableName  = "limaskap_schema_migrations"
	schemaSourceName = "embedded"
)

// RunMigrations brings a postgres database up to the newest embedded schema.
func RunMigrations(db *sql.DB) error {
	return Up(db, zap.NewNop())
}

// Up applies pending schema versions and logs the version it ends on. A
// database left dirty by an interrupted run is reported, not forced.
func Up(db *sql.DB, log *zap.Logger) error {
	if db == nil {
		return errors.New("migration: nil database handle")
	}
	if log == nil {
		log = zap.NewNop()
	}

	m, err := open(db, log)
	if err != nil {
		return err
	}
	// m.Close would also close db, which the rest of the app still uses.

	if version, dirty, err := m.Version(); err == nil && dirty {
		return fmt.Errorf("migration: schema version %d is dirty, fix it by hand", version)
	}

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		log.Debug("schema already current")
	case err != nil:
		return fmt.Errorf("migration: up: %w", err)
	}

	version, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migration: read version: %w", err)
	}
	log.Info("schema ready", zap.Uint("version", version))
	return nil
}

func open(db *sql.DB, log *zap.Logger) (*migrate.Migrate, error) {
	src, err := iofs.New(schemaFiles, schemaDir)
	if err != nil {
		return nil, fmt.Errorf("migration: source: %w", err)
	}

	target, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: schemaTableName})
	if err != nil {
		return nil, fmt.Errorf("migration: driver: %w", err)
	}

	m, err := migrate.NewWithInstance(schemaSourceName, src, "postgres", target)
	if err != nil {
		return nil, fmt.Errorf("migration: init: %w", err)
	}
	m.Log = migrateLogger{log: log.Named("migrate")}
	return m, nil
}

// migrateLogger adapts zap to migrate.Logger.
type migrateLogger struct {
	log *zap.Logger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return l.log.Core().Enabled(zap.DebugLevel)
}
