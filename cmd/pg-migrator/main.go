package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thirdcoast.systems/lessonstream/internal/application"
	"thirdcoast.systems/lessonstream/internal/config"
	"thirdcoast.systems/lessonstream/internal/db"
)

func main() {
	slog.Info("starting lessonstream migrator")

	startupCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	startupCtx, timeout := context.WithTimeout(startupCtx, 2*time.Minute)
	defer timeout()

	conf, err := config.LoadConfig(startupCtx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	pool, err := application.OpenDBPoolWithRetry(startupCtx, *conf)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	dbc := db.NewDatabaseConnection(pool)
	if err := dbc.Migrate(startupCtx); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	current, latest, err := dbc.SchemaVersion(startupCtx)
	if err != nil {
		slog.Error("failed to read schema version", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations complete", "version", current, "latest", latest)
}
