package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Decision is the outcome of one attempt against a limiter.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// gcraScript keeps one theoretical arrival time per key. ARGV[1] is the
// emission interval and ARGV[2] the burst window, both in milliseconds.
const gcraScript = `
local interval = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local t = redis.call("TIME")
local now = t[1] * 1000 + math.floor(t[2] / 1000)

local tat = tonumber(redis.call("GET", KEYS[1]))
if tat == nil or tat < now then
  tat = now
end

local next_tat = tat + interval
local allow_at = next_tat - window
if now < allow_at then
  return {0, 0, allow_at - now}
end

redis.call("SET", KEYS[1], next_tat, "PX", next_tat - now)
return {1, math.floor((now - allow_at) / interval), 0}
`

// RedisGCRA limits with the generic cell rate algorithm so every API
// replica shares the same allowance.
type RedisGCRA struct {
	client redis.Cmdable
	script *redis.Script
}

func NewRedisGCRA(client redis.Cmdable) *RedisGCRA {
	if client == nil {
		return nil
	}
	return &RedisGCRA{client: client, script: redis.NewScript(gcraScript)}
}

func (g *RedisGCRA) Allow(ctx context.Context, key string, perSecond float64, burst int) (*Decision, error) {
	if g == nil || g.client == nil {
		return nil, errors.New("redis limiter not configured")
	}
	interval, window, err := gcraWindow(key, perSecond, burst)
	if err != nil {
		return nil, err
	}
	res, err := g.script.Run(ctx, g.client, []string{key}, interval.Milliseconds(), window.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, err
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("unexpected limiter reply of %d values", len(res))
	}
	return &Decision{
		Allowed:    res[0] == 1,
		Limit:      burst,
		Remaining:  int(res[1]),
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// gcraWindow converts a rate and burst into the emission interval and the
// window a full burst may use.
func gcraWindow(key string, perSecond float64, burst int) (time.Duration, time.Duration, error) {
	if key == "" {
		return 0, 0, errors.New("rate limiter key is empty")
	}
	if perSecond <= 0 || burst <= 0 {
		return 0, 0, errors.New("rate limiter rate and burst must be positive")
	}
	interval := time.Duration(math.Ceil(float64(time.Second) / perSecond))
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	return interval, interval * time.Duration(burst), nil
}
