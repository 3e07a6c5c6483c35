package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisKV persiste blobs no Redis, sem TTL
type RedisKV struct {
	Client *redis.Client
}

func NewRedisKV(c *redis.Client) *RedisKV { return &RedisKV{Client: c} }

// Get retorna (nil, nil) quando a chave não existe
func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	return r.Client.Set(ctx, key, value, 0).Err()
}
