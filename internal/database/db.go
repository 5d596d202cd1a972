// Package database opens the backing stores and applies schema migrations.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"auction-engine/internal/config"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
)

// OpenPostgres opens a PostgreSQL pool and verifies it with a ping
func OpenPostgres(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// OpenRedis creates a Redis client whose socket timeouts follow the store timeout
func OpenRedis(ctx context.Context, cfg config.RedisConfig, storeTimeout time.Duration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  storeTimeout,
		ReadTimeout:  storeTimeout,
		WriteTimeout: storeTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}
