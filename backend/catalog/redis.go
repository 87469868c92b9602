package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"learnhub/backend/models"
)

const snapshotKey = "learnhub:catalog:v1"

type RedisSnapshot struct {
	rdb *goredis.Client
	key string
}

// NewRedisSnapshot connects to addr and pings it before returning.
func NewRedisSnapshot(ctx context.Context, addr string) (*RedisSnapshot, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisSnapshot{rdb: rdb, key: snapshotKey}, nil
}

func (r *RedisSnapshot) Load(ctx context.Context) ([]models.Course, bool, error) {
	raw, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var courses []models.Course
	if err := json.Unmarshal(raw, &courses); err != nil {
		return nil, false, fmt.Errorf("decode catalog snapshot: %w", err)
	}
	return courses, true, nil
}

// Save stores the list; ttl <= 0 stores it without expiry.
func (r *RedisSnapshot) Save(ctx context.Context, courses []models.Course, ttl time.Duration) error {
	raw, err := json.Marshal(courses)
	if err != nil {
		return fmt.Errorf("encode catalog snapshot: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	return r.rdb.Set(ctx, r.key, raw, ttl).Err()
}

func (r *RedisSnapshot) Clear(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key).Err()
}

func (r *RedisSnapshot) Close() error {
	return r.rdb.Close()
}
