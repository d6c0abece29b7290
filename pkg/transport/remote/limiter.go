package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ea-systems/ledger/pkg/transport"
)

// redisTokenBucketScript runs the token-bucket check-and-update atomically
// so concurrent ledgerd replicas sharing one Redis instance never
// over-admit a bursty peer.
var redisTokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local cost = tonumber(ARGV[3])
local now = tonumber(ARGV[4])

local state = redis.call("HMGET", key, "tokens", "last_refill")
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if not tokens or not last_refill then
    tokens = capacity
    last_refill = now
end

local elapsed = now - last_refill
if elapsed > 0 then
    local added = elapsed * rate
    tokens = tokens + added
    if tokens > capacity then
        tokens = capacity
    end
    last_refill = now
end

local allowed = 0
if tokens >= cost then
    tokens = tokens - cost
    allowed = 1
end

redis.call("HMSET", key, "tokens", tokens, "last_refill", last_refill)
redis.call("EXPIRE", key, 60)

return {allowed, tokens}
`)

// RedisLimiterPolicy bounds a peer's Append rate: RPM refills the bucket,
// Burst caps it.
type RedisLimiterPolicy struct {
	RPM   int
	Burst int
}

// RedisLimiter enforces RedisLimiterPolicy across every remote server
// replica sharing client (SPEC_FULL §4.K.1): a peer throttled on one
// replica is throttled on all of them.
type RedisLimiter struct {
	client *redis.Client
	policy RedisLimiterPolicy
}

// NewRedisLimiter wires a limiter atop an already-configured redis.Client.
func NewRedisLimiter(client *redis.Client, policy RedisLimiterPolicy) *RedisLimiter {
	return &RedisLimiter{client: client, policy: policy}
}

// Allow consumes one token for peerID, returning a *transport.BackpressureError
// indistinguishable from a local depth breach when the bucket is empty — the
// caller has no way to tell a distributed throttle from an in-process one,
// by design.
func (l *RedisLimiter) Allow(ctx context.Context, peerID string) error {
	key := fmt.Sprintf("ledger:limiter:%s", peerID)

	rate := float64(l.policy.RPM) / 60.0
	if rate <= 0 {
		rate = 1.0
	}
	now := float64(time.Now().UnixMicro()) / 1e6

	res, err := redisTokenBucketScript.Run(ctx, l.client, []string{key}, rate, l.policy.Burst, 1, now).Result()
	if err != nil {
		return &transport.TransportError{Cause: fmt.Errorf("remote: redis limiter: %w", err)}
	}

	results, ok := res.([]interface{})
	if !ok || len(results) != 2 {
		return &transport.TransportError{Cause: fmt.Errorf("remote: redis limiter: malformed script response")}
	}

	allowed, _ := results[0].(int64)
	if allowed != 1 {
		return &transport.BackpressureError{Depth: l.policy.Burst}
	}
	return nil
}
