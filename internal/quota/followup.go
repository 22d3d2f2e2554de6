// Package quota enforces the per-tier follow-up allowance server-side.
// Free accounts get a fixed number of follow-up questions per session;
// paying accounts are unlimited.
package quota

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var incrScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

var refundScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current > 0 then
  redis.call("DECR", KEYS[1])
end
return current
`)

// FollowupCounter counts follow-up questions per session in Redis, so the
// allowance holds across instances and restarts. Counters expire after the
// session TTL purely as housekeeping.
type FollowupCounter struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisFollowupCounter creates a Redis-backed follow-up counter.
func NewRedisFollowupCounter(addr, password, prefix string, ttl time.Duration) (*FollowupCounter, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("followup counter redis addr is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "fixmyad:followups"
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &FollowupCounter{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix: prefix,
		ttl:    ttl,
	}, nil
}

// Allow records one follow-up against the session and reports whether it is
// within the limit. A limit <= 0 means unlimited. On Redis failures the
// counter fails closed and returns false.
func (c *FollowupCounter) Allow(ctx context.Context, sessionID string, limit int) bool {
	if c == nil {
		return false
	}
	if limit <= 0 {
		return true
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = "unknown"
	}
	key := c.prefix + ":" + sessionID
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	count, err := incrScript.Run(ctx, c.client, []string{key}, c.ttl.Milliseconds()).Int64()
	if err != nil {
		return false
	}
	return count <= int64(limit)
}

// Refund returns one follow-up to the session's allowance, used when the
// completion call failed after the slot was taken. Best-effort: never goes
// below zero, errors are dropped.
func (c *FollowupCounter) Refund(ctx context.Context, sessionID string) {
	if c == nil {
		return
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = "unknown"
	}
	key := c.prefix + ":" + sessionID
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_ = refundScript.Run(ctx, c.client, []string{key}).Err()
}
