// db.go
//
// Storage wiring for the gomoku server.
// Responsibilities:
//   - Selecting the Store backend named by the configuration.
//   - Opening and migrating SQLite, or connecting to Redis.
//
// The returned Store owns its connection; Close releases it.

package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/gomoku/assets"
	"github.com/robalobadob/gomoku/internal/config"
	"github.com/robalobadob/gomoku/internal/database"
	"github.com/robalobadob/gomoku/internal/store"
)

// openStore builds the configured backend. It does not initialize the match.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	opts := store.Options{StrictTurns: cfg.Game.StrictTurns}

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		log.Info().Msg("using in-memory store")
		return store.NewMemoryStore(opts), nil

	case config.DriverSQLite:
		db, err := database.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, db, assets.FS, assets.MigrationsDir); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info().Str("path", cfg.Storage.SQLitePath).Msg("using sqlite store")
		return store.NewSQLiteStore(db, opts), nil

	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.GetRedisAddr(),
			DB:   cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("can't connect to redis: %w", err)
		}
		log.Info().Str("addr", cfg.Redis.GetRedisAddr()).Str("prefix", cfg.Redis.Prefix).Msg("using redis store")
		return store.NewRedisStore(client, cfg.Redis.Prefix, opts), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
