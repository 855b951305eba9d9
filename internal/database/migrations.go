package database

import (
	"context"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// MigrationRunner applies the audit schema migrations. It runs at startup
// for the postgres backend only; the sqlite backend creates its schema
// inline.
type MigrationRunner struct {
	migrate *migrate.Migrate
	log     *logrus.Logger
}

func NewMigrationRunner(databaseURL, migrationsPath string, logger *logrus.Logger) (*MigrationRunner, error) {
	m, err := migrate.New(
		fmt.Sprintf("file://%s", migrationsPath),
		databaseURL,
	)
	if err != nil {
		return nil, fmt.Errorf("opening audit migrations at %s: %w", migrationsPath, err)
	}

	return &MigrationRunner{
		migrate: m,
		log:     logger,
	}, nil
}

// Up applies all pending audit schema migrations.
func (mr *MigrationRunner) Up(ctx context.Context) error {
	mr.log.Info("Applying audit store migrations")

	if err := mr.migrate.Up(); err != nil {
		if err == migrate.ErrNoChange {
			mr.log.Info("Audit store schema already current")
			return nil
		}
		return fmt.Errorf("applying audit migrations: %w", err)
	}

	version, dirty, err := mr.migrate.Version()
	if err != nil {
		mr.log.WithError(err).Warn("Could not read audit schema version after migrating")
	} else {
		mr.log.WithFields(logrus.Fields{
			"schema_version": version,
			"dirty":          dirty,
		}).Info("Audit store schema migrated")
	}

	return nil
}

// Down rolls back the most recent audit schema migration.
func (mr *MigrationRunner) Down(ctx context.Context) error {
	mr.log.Info("Rolling back one audit store migration")

	if err := mr.migrate.Steps(-1); err != nil {
		if err == migrate.ErrNoChange {
			mr.log.Info("No audit migrations to roll back")
			return nil
		}
		return fmt.Errorf("rolling back audit migration: %w", err)
	}

	version, dirty, err := mr.migrate.Version()
	if err != nil {
		mr.log.WithError(err).Warn("Could not read audit schema version after rollback")
	} else {
		mr.log.WithFields(logrus.Fields{
			"schema_version": version,
			"dirty":          dirty,
		}).Info("Audit store migration rolled back")
	}

	return nil
}

// Version reports the current audit schema version and dirty flag.
func (mr *MigrationRunner) Version() (uint, bool, error) {
	return mr.migrate.Version()
}

func (mr *MigrationRunner) Close() error {
	sourceErr, dbErr := mr.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("closing audit migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("closing audit migration database handle: %w", dbErr)
	}
	return nil
}
