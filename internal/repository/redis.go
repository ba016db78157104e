package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clinicbook/internal/config"
	"clinicbook/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisAvailabilityCache struct {
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

	client := redis.NewClient(options)

	return client
}

func NewRedisAvailabilityCache(client *redis.Client, ttl time.Duration) *RedisAvailabilityCache {
	return &RedisAvailabilityCache{
		client: client,
		ttl:    ttl,
	}
}

func slotsKey(eventTypeID int64, date string) string {
	return fmt.Sprintf("slots:%s:%d", date, eventTypeID)
}

func (r *RedisAvailabilityCache) GetSlots(ctx context.Context, eventTypeID int64, date string) (*models.SlotList, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, slotsKey(eventTypeID, date)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slots from redis: %w", err)
	}

	var list models.SlotList
	if err := json.Unmarshal([]byte(val), &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal slots: %w", err)
	}

	return &list, nil
}

func (r *RedisAvailabilityCache) SetSlots(ctx context.Context, list *models.SlotList) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal slots: %w", err)
	}

	key := slotsKey(list.EventTypeID, list.Date)
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set slots in redis: %w", err)
	}

	return nil
}

// InvalidateDate drops every cached slot list for a date, across all
// event types. Bookings block globally, so one booking dirties them all.
func (r *RedisAvailabilityCache) InvalidateDate(ctx context.Context, date string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	keys, err := r.client.Keys(ctx, fmt.Sprintf("slots:%s:*", date)).Result()
	if err != nil {
		return fmt.Errorf("failed to list slot keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete slot keys: %w", err)
	}
	return nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
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
