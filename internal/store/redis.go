package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisOpTimeout = 5 * time.Second
	redisScanBatch = 200
)

// RedisConfig holds the configuration for the Redis client.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	Namespace string // Prepended to every key, e.g. "reel:"
}

// RedisStore implements domain.KeyValueStore on a shared Redis instance.
// Entries never expire on their own; freshness is decided by the loaders.
type RedisStore struct {
	client    *redis.Client
	namespace string
	logger    *slog.Logger
}

// NewRedisStore connects to Redis and pings it before returning.
func NewRedisStore(ctx context.Context, cfg RedisConfig, logger *slog.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("connected to redis", "addr", cfg.Addr, "namespace", cfg.Namespace)

	return &RedisStore{
		client:    rdb,
		namespace: cfg.Namespace,
		logger:    logger.With("component", "redis_store"),
	}, nil
}

func (s *RedisStore) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	data, err := s.client.Get(ctx, s.namespace+key).Bytes()
	if err != nil {
		// redis.Nil is a normal miss; anything else is logged and treated as a miss
		if !errors.Is(err, redis.Nil) {
			s.logger.Error("redis get failed", "error", err, "key", key)
		}
		return nil, false
	}
	return data, true
}

func (s *RedisStore) Set(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := s.client.Set(ctx, s.namespace+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := s.client.Del(ctx, s.namespace+key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s from redis: %w", key, err)
	}
	return nil
}

func (s *RedisStore) RemovePrefix(prefix string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	pattern := s.namespace + escapeGlob(prefix) + "*"
	iter := s.client.Scan(ctx, 0, pattern, redisScanBatch).Iterator()

	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= redisScanBatch {
			if err := s.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("failed to delete prefix %s: %w", prefix, err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan prefix %s: %w", prefix, err)
	}
	if len(batch) > 0 {
		if err := s.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to delete prefix %s: %w", prefix, err)
		}
	}
	return nil
}

// Close closes the Redis client connection.
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// escapeGlob quotes the characters SCAN MATCH treats as patterns.
func escapeGlob(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
