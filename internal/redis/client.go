package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"order_manager/internal/models"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

func Initialize(redisURL string, ttl time.Duration) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb, ttl: ttl}, nil
}

func orderKey(id uint) string {
	return fmt.Sprintf("order:%d", id)
}

// Order caching
func (c *Client) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := c.getJSON(ctx, orderKey(id), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) SetOrder(ctx context.Context, order *models.Order) error {
	return c.setJSON(ctx, orderKey(order.ID), order, c.ttl)
}

func (c *Client) DeleteOrder(ctx context.Context, id uint) error {
	return c.rdb.Del(ctx, orderKey(id)).Err()
}

func (c *Client) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return c.rdb.Set(ctx, key, jsonData, ttl).Err()
}

func (c *Client) getJSON(ctx context.Context, key string, dest interface{}) error {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

// Close Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
