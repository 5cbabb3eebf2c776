// Package ratelimit implements a fixed-window limiter shared across
// instances through Redis.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Count      int
	RetryAfter time.Duration
}

type Limiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

// New returns a limiter. A nil client or a non-positive limit yields a
// limiter that allows everything.
func New(client redis.UniversalClient, prefix string, limit int, window time.Duration) *Limiter {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "gym:rate_limit"
	}
	return &Limiter{client: client, prefix: prefix, limit: limit, window: window}
}

// Enabled reports whether Allow can ever reject.
func (l *Limiter) Enabled() bool {
	return l != nil && l.client != nil && l.limit > 0 && l.window > 0
}

// Allow counts one hit for subject within scope.
func (l *Limiter) Allow(ctx context.Context, scope, subject string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}

	scope = strings.TrimSpace(scope)
	subject = strings.TrimSpace(subject)
	if scope == "" || subject == "" {
		return Result{Allowed: true}, nil
	}

	windowMs := l.window.Milliseconds()
	if windowMs < 1000 {
		windowMs = 1000
	}

	key := fmt.Sprintf("%s:%s:%s", l.prefix, scope, subject)
	raw, err := fixedWindowScript.Run(ctx, l.client, []string{key}, windowMs).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit script: %w", err)
	}
	return parseResult(raw, windowMs, l.limit)
}

func parseResult(raw interface{}, windowMs int64, limit int) (Result, error) {
	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return Result{}, fmt.Errorf("unexpected rate limit response shape: %T", raw)
	}
	count, ok := values[0].(int64)
	if !ok {
		return Result{}, fmt.Errorf("unexpected rate limit count type: %T", values[0])
	}
	ttlMs, ok := values[1].(int64)
	if !ok {
		return Result{}, fmt.Errorf("unexpected rate limit ttl type: %T", values[1])
	}
	if ttlMs < 0 {
		ttlMs = windowMs
	}

	retrySeconds := int(math.Ceil(float64(ttlMs) / 1000.0))
	if retrySeconds < 1 {
		retrySeconds = 1
	}

	return Result{
		Allowed:    int(count) <= limit,
		Count:      int(count),
		RetryAfter: time.Duration(retrySeconds) * time.Second,
	}, nil
}
