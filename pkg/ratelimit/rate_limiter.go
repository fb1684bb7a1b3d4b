package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config controls the fixed-window limiter
type Config struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

// Result represents a rate limit check result
type Result struct {
	Allowed   bool  `json:"allowed"`
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"reset_time"`
}

// RateLimiter counts requests per client and route class in Redis
type RateLimiter struct {
	client *redis.Client
	config Config
}

// INCR and set expiry on first hit in one round trip
const fixedWindowScript = `
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return {current, ttl}
`

func NewRateLimiter(client *redis.Client, config Config) *RateLimiter {
	if config.Requests <= 0 {
		config.Requests = 30
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	return &RateLimiter{client: client, config: config}
}

// Key builds the Redis key for a client and route class
func Key(clientID, class string) string {
	return fmt.Sprintf("seatbooking:ratelimit:%s:%s", clientID, class)
}

// Allow records one request and reports whether it is within the limit
func (r *RateLimiter) Allow(ctx context.Context, clientID, class string) (*Result, error) {
	limit := r.config.Requests
	if !r.config.Enabled || r.client == nil {
		return &Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit,
			ResetTime: time.Now().Add(r.config.Window).Unix(),
		}, nil
	}

	res, err := r.client.Eval(ctx, fixedWindowScript, []string{Key(clientID, class)}, r.config.Window.Milliseconds()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis eval failed: %w", err)
	}

	values, ok := res.([]interface{})
	if !ok || len(values) != 2 {
		return nil, fmt.Errorf("unexpected redis response")
	}
	count, _ := values[0].(int64)
	ttl, _ := values[1].(int64)
	if ttl < 0 {
		ttl = r.config.Window.Milliseconds()
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   int(count) <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetTime: time.Now().Add(time.Duration(ttl) * time.Millisecond).Unix(),
	}, nil
}
