package statestore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"TgFlow/bot/flow"
	"TgFlow/internal/config"
	repository "TgFlow/internal/database"
	"TgFlow/internal/lib/sl"
)

// Open builds the chat state store selected by conf.Store.Driver. The returned
// closer releases the underlying connection.
func Open(ctx context.Context, conf *config.Config, log *slog.Logger) (flow.ChatStateStore, func() error, error) {
	log = log.With(sl.Module("statestore"))
	noop := func() error { return nil }

	driver := conf.Store.Driver
	if driver == "" {
		driver = config.StoreMemory
	}

	var (
		store  flow.ChatStateStore
		closer = noop
	)
	switch driver {
	case config.StoreMemory:
		store = flow.NewMemoryStore()
	case config.StoreMongo:
		mongo := repository.NewMongoClient(conf, log)
		if err := mongo.Ping(ctx); err != nil {
			return nil, nil, err
		}
		store = flow.NewRepositoryStore(mongo)
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		store = NewRedisStore(client, conf.Redis.Prefix)
		closer = client.Close
	case config.StoreSQLite:
		db, err := sql.Open("sqlite", conf.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite open: %w", err)
		}
		s, err := NewSQLiteStore(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		store = s
		closer = db.Close
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", driver)
	}

	if conf.Store.CacheTTL > 0 && driver != config.StoreMemory {
		store = NewCachedStore(store, conf.Store.CacheTTL, conf.Store.CacheCleanup)
	}
	log.Info("chat state store ready",
		slog.String("driver", driver),
		slog.Duration("cache_ttl", conf.Store.CacheTTL),
	)
	return store, closer, nil
}
