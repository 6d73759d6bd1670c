package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Connect builds a client and fails fast when redis is unreachable.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	rdb := New(cfg)

	err := rdb.Ping(ctx).Err()

	if err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return rdb, nil
}
