// Package redis opens a go-redis client and verifies the connection.
package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

type Option func(*redis.Options)

func WithPassword(password string) Option {
	return func(o *redis.Options) {
		o.Password = password
	}
}

func WithDB(db int) Option {
	return func(o *redis.Options) {
		o.DB = db
	}
}

func WithPoolSize(n int) Option {
	return func(o *redis.Options) {
		o.PoolSize = n
	}
}

func New(ctx context.Context, addr string, opts ...Option) (*redis.Client, error) {
	const op = "redis.New"

	options := &redis.Options{Addr: addr}
	for _, opt := range opts {
		opt(options)
	}

	client := redis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%s: failed to connect to redis: %w", op, err)
	}

	return client, nil
}
