package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "seatbooking"

// Config holds Redis connection configuration
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects to Redis and verifies the connection with a ping
func NewClient(cfg Config) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}

	return client, nil
}

// OccupancyCache keeps short-lived snapshots of occupied seats per bus and date.
// Snapshots are advisory; the ledger stays authoritative.
type OccupancyCache struct {
	client *redis.Client
	ttl    time.Duration
}

// MaxOccupancyTTL bounds how long a snapshot written after a concurrent
// Invalidate can stay stale.
const MaxOccupancyTTL = 30 * time.Second

// NewOccupancyCache creates a cache whose entries expire after ttl, capped at MaxOccupancyTTL
func NewOccupancyCache(client *redis.Client, ttl time.Duration) *OccupancyCache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if ttl > MaxOccupancyTTL {
		ttl = MaxOccupancyTTL
	}
	return &OccupancyCache{client: client, ttl: ttl}
}

// OccupancyKey is the Redis key for a bus on a travel date
func OccupancyKey(busID, travelDate string) string {
	return fmt.Sprintf("%s:occupied:%s:%s", keyPrefix, busID, travelDate)
}

// Get returns the cached seats. ok is false on a miss.
func (c *OccupancyCache) Get(ctx context.Context, busID, travelDate string) ([]int, bool, error) {
	raw, err := c.client.Get(ctx, OccupancyKey(busID, travelDate)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read occupancy cache: %w", err)
	}

	var seats []int
	if err := json.Unmarshal(raw, &seats); err != nil {
		return nil, false, fmt.Errorf("failed to decode occupancy cache: %w", err)
	}
	return seats, true, nil
}

func (c *OccupancyCache) Set(ctx context.Context, busID, travelDate string, seats []int) error {
	if seats == nil {
		seats = []int{}
	}
	raw, err := json.Marshal(seats)
	if err != nil {
		return fmt.Errorf("failed to encode occupancy cache: %w", err)
	}
	if err := c.client.Set(ctx, OccupancyKey(busID, travelDate), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write occupancy cache: %w", err)
	}
	return nil
}

// Invalidate drops the snapshot after a booking takes or releases seats
func (c *OccupancyCache) Invalidate(ctx context.Context, busID, travelDate string) error {
	if err := c.client.Del(ctx, OccupancyKey(busID, travelDate)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate occupancy cache: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable
func (c *OccupancyCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
