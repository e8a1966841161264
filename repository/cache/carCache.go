package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"carrental/model"

	"github.com/redis/go-redis/v9"
)

// CarCache is a cache-aside layer for the car catalog. Entries are keyed by the
// filter and invalidated wholesale on any car or booking write; a nil client
// degrades to a no-op so the API runs without Redis.
type CarCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(addr, password string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}

func NewCarCache(client *redis.Client, ttl time.Duration) *CarCache {
	return &CarCache{client: client, ttl: ttl}
}

func listKey(f model.CarFilter) string {
	pickup, ret := "", ""
	if f.PickupDate != nil {
		pickup = f.PickupDate.UTC().Format(time.RFC3339)
	}
	if f.ReturnDate != nil {
		ret = f.ReturnDate.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("cars:list:%s:%s:%d:%d:%d:%s:%s",
		f.Category, f.Transmission, f.LocationID, f.MinPrice, f.MaxPrice, pickup, ret)
}

func (c *CarCache) GetList(ctx context.Context, f model.CarFilter) ([]model.Car, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	val, err := c.client.Get(ctx, listKey(f)).Result()
	if err != nil {
		return nil, false
	}
	var cars []model.Car
	if err := json.Unmarshal([]byte(val), &cars); err != nil {
		return nil, false
	}
	return cars, true
}

func (c *CarCache) SetList(ctx context.Context, f model.CarFilter, cars []model.Car) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(cars)
	if err != nil {
		return
	}
	c.client.Set(ctx, listKey(f), data, c.ttl)
}

// Invalidate drops every cached listing. Car writes and booking transitions are
// rare next to reads, so a full flush of the namespace is good enough.
func (c *CarCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, "cars:list:*", 100).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if client == nil {
		return nil
	}
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}
