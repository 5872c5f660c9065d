package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"thirdcoast.systems/lessonstream/internal/config"
)

var (
	dbOpenBackoffBase = 1 * time.Second
	dbOpenBackoffCap  = 30 * time.Second
	dbPingTimeout     = 1 * time.Second
)

// dbBackoff grows along the Fibonacci sequence, capped per attempt and in
// total attempts by DATABASE_RETRIES.
func dbBackoff(retries int) retry.Backoff {
	if retries <= 0 {
		retries = 1
	}
	b := retry.NewFibonacci(dbOpenBackoffBase)
	b = retry.WithCappedDuration(dbOpenBackoffCap, b)
	return retry.WithMaxRetries(uint64(retries-1), b)
}

// OpenDBPoolWithRetry initializes a new PostgreSQL connection pool and waits
// until it answers a ping.
func OpenDBPoolWithRetry(ctx context.Context, conf config.Config) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(conf.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	slog.Info("connecting to database", "host", cfg.ConnConfig.Host)

	var pool *pgxpool.Pool
	attempt := 0
	err = retry.Do(ctx, dbBackoff(conf.DatabaseRetries), func(ctx context.Context) error {
		attempt++
		if pool == nil {
			p, err := pgxpool.NewWithConfig(ctx, cfg)
			if err != nil {
				slog.Warn("database pool open failed", "attempt", attempt, "error", err)
				return retry.RetryableError(err)
			}
			pool = p
		}

		pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			slog.Warn("database ping failed", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempt, err)
	}

	slog.Info("connected to database", "host", cfg.ConnConfig.Host, "attempts", attempt)
	return pool, nil
}
