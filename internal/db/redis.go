// internal/db/redis.go
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Marga-Ghale/ora-training-backend/internal/logs"
)

const sessionKeyPrefix = "session:"

type RedisDB struct {
	Client *redis.Client
}

func NewRedisDB(redisURL string) (*RedisDB, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logs.Logger.Info("[Redis] Connected to Redis")
	return &RedisDB{Client: client}, nil
}

func (r *RedisDB) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

func (r *RedisDB) Close() {
	if r.Client != nil {
		r.Client.Close()
		logs.Logger.Info("[Redis] Connection closed")
	}
}

// SetSession stores value as JSON under session:<key>.
func (r *RedisDB) SetSession(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, sessionKeyPrefix+key, data, expiration).Err()
}

// GetSession loads session:<key> into dest. A missing key is reported as
// found=false with a nil error.
func (r *RedisDB) GetSession(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := r.Client.Get(ctx, sessionKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisDB) DeleteSession(ctx context.Context, key string) error {
	return r.Client.Del(ctx, sessionKeyPrefix+key).Err()
}
