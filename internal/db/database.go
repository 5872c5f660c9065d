// Package db holds the Postgres schema, its queries and the store adapters
// behind the video, course, progress and user packages.
package db

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const migrationsDir = "sql/migrations"

type DatabaseConnection struct {
	*pgxpool.Pool
}

// NewDatabaseConnection wraps a pool that has already answered a ping.
func NewDatabaseConnection(pool *pgxpool.Pool) *DatabaseConnection {
	return &DatabaseConnection{pool}
}

func (db *DatabaseConnection) Queries() *Queries {
	return New(db)
}

func (db *DatabaseConnection) NewWithTX(ctx context.Context) (*Queries, pgx.Tx, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return New(tx), tx, nil
}

//go:embed sql/migrations/*.sql
var embedMigrations embed.FS

// Migrate runs the goose migrations. GOOSE_DOWN_TO migrates down to a
// version, GOOSE_UP_TO stops short of the latest.
func (db *DatabaseConnection) Migrate(ctx context.Context) error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	stdDb := stdlib.OpenDBFromPool(db.Pool)
	defer stdDb.Close()

	currentVersion, err := goose.GetDBVersionContext(ctx, stdDb)
	if err != nil {
		return err
	}

	migrations, err := goose.CollectMigrations(migrationsDir, 0, goose.MaxVersion)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		slog.Debug("migration embedded", "source", m.Source, "version", m.Version, "applied", m.Version <= currentVersion)
	}

	var targetVersion int64
	if down, ok := os.LookupEnv("GOOSE_DOWN_TO"); ok {
		targetVersion, err = strconv.ParseInt(down, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse GOOSE_DOWN_TO version: %w", err)
		}
		slog.Info("migrating down", "from", currentVersion, "to", targetVersion)
		return goose.DownToContext(ctx, stdDb, migrationsDir, targetVersion)
	}

	targetVersion = goose.MaxVersion
	if up, ok := os.LookupEnv("GOOSE_UP_TO"); ok {
		targetVersion, err = strconv.ParseInt(up, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse GOOSE_UP_TO version: %w", err)
		}
	}
	slog.Info("migrating up", "from", currentVersion, "embedded", len(migrations))
	return goose.UpToContext(ctx, stdDb, migrationsDir, targetVersion)
}

// SchemaVersion returns the applied goose version and the newest embedded
// migration.
func (db *DatabaseConnection) SchemaVersion(ctx context.Context) (current, latest int64, err error) {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, 0, err
	}

	stdDb := stdlib.OpenDBFromPool(db.Pool)
	defer stdDb.Close()

	current, err = goose.GetDBVersionContext(ctx, stdDb)
	if err != nil {
		return 0, 0, err
	}
	migrations, err := goose.CollectMigrations(migrationsDir, 0, goose.MaxVersion)
	if err != nil {
		return 0, 0, err
	}
	if last, err := migrations.Last(); err == nil {
		latest = last.Version
	}
	return current, latest, nil
}
