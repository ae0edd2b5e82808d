// Package tokenstore persists the bearer token of each portal session.
// Every backend keeps exactly one string per key and must survive process restarts
// except Memory, which is intended for development and tests.
package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"bankportal.org/internal/config"
)

// ErrNotFound is returned by Get when no token is stored under the key.
var ErrNotFound = errors.New("token not found")

// Store keeps one token string per key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, token string) error
	// Delete removes the key; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Open builds the backend selected by cfg.
func Open(ctx context.Context, cfg config.TokenStore, ttl time.Duration) (Store, error) {
	switch cfg.Kind {
	case config.StoreMemory, "":
		return NewMemory(), nil
	case config.StoreFile:
		return NewFile(cfg.Dir)
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		s := NewRedis(client, WithTTL(ttl))
		if err := s.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis token store: %w", err)
		}
		return s, nil
	case config.StorePostgres:
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		return NewPostgres(db), nil
	default:
		return nil, fmt.Errorf("unknown token store %q", cfg.Kind)
	}
}
