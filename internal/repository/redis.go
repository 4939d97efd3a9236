package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"scantrack/internal/config"
	"scantrack/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisDeviceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisDeviceCache(client *redis.Client, ttl time.Duration) *RedisDeviceCache {
	return &RedisDeviceCache{
		client: client,
		ttl:    ttl,
	}
}

func deviceKey(apiKey string) string {
	return fmt.Sprintf("device:%s", apiKey)
}

func (r *RedisDeviceCache) GetDevice(ctx context.Context, apiKey string) (*models.Device, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, deviceKey(apiKey)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device from redis: %w", err)
	}

	var device models.Device
	if err := json.Unmarshal([]byte(val), &device); err != nil {
		return nil, fmt.Errorf("failed to unmarshal device: %w", err)
	}
	return &device, nil
}

func (r *RedisDeviceCache) SetDevice(ctx context.Context, device *models.Device) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(device)
	if err != nil {
		return fmt.Errorf("failed to marshal device: %w", err)
	}

	if err := r.client.Set(ctx, deviceKey(device.APIKey), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set device in redis: %w", err)
	}
	return nil
}

func (r *RedisDeviceCache) InvalidateDevice(ctx context.Context, apiKey string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, deviceKey(apiKey)).Err(); err != nil {
		return fmt.Errorf("failed to delete device from redis: %w", err)
	}
	return nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
