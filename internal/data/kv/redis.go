package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/fitcoach-backend/internal/platform/logger"
)

type redisStore struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	prefix string
}

// NewRedisStore keeps one hash per origin under prefix+origin.
func NewRedisStore(rdb goredis.UniversalClient, prefix string, baseLog *logger.Logger) Store {
	if prefix == "" {
		prefix = "fitcoach:kv:"
	}
	return &redisStore{
		log:    baseLog.With("repo", "KVStore", "backend", "redis"),
		rdb:    rdb,
		prefix: prefix,
	}
}

// DialRedis opens a client and verifies it with PING.
func DialRedis(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (s *redisStore) hashKey(origin string) string { return s.prefix + origin }

func (s *redisStore) Get(ctx context.Context, origin, key string) (string, bool, error) {
	if err := checkOrigin(origin); err != nil {
		return "", false, err
	}
	v, err := s.rdb.HGet(ctx, s.hashKey(origin), key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *redisStore) Set(ctx context.Context, origin, key, value string) error {
	if err := checkOrigin(origin); err != nil {
		return err
	}
	return s.rdb.HSet(ctx, s.hashKey(origin), key, value).Err()
}

// SetMany is a single multi-field HSET, which redis applies atomically.
func (s *redisStore) SetMany(ctx context.Context, origin string, values map[string]string) error {
	if err := checkOrigin(origin); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	return s.rdb.HSet(ctx, s.hashKey(origin), values).Err()
}

func (s *redisStore) Remove(ctx context.Context, origin, key string) error {
	if err := checkOrigin(origin); err != nil {
		return err
	}
	return s.rdb.HDel(ctx, s.hashKey(origin), key).Err()
}

func (s *redisStore) Clear(ctx context.Context, origin string) error {
	if err := checkOrigin(origin); err != nil {
		return err
	}
	return s.rdb.Del(ctx, s.hashKey(origin)).Err()
}

func (s *redisStore) Close() error { return s.rdb.Close() }
