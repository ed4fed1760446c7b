package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/Vaidehip0407/SKOPE-ERP/internal/domain"
)

type RedisClosingReportCache struct {
	client *redis.Client
}

func NewRedisClosingReportCache(addr string, password string, db int) *RedisClosingReportCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisClosingReportCache{client: client}
}

func (c *RedisClosingReportCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisClosingReportCache) Close() error {
	return c.client.Close()
}

func (c *RedisClosingReportCache) Get(ctx context.Context, key string) (*domain.DailyClosingReport, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var report domain.DailyClosingReport
	if err := json.Unmarshal([]byte(val), &report); err != nil {
		return nil, false, err
	}
	return &report, true, nil
}

func (c *RedisClosingReportCache) Set(ctx context.Context, key string, value *domain.DailyClosingReport, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}
