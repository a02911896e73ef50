package ratelimit

import (
	"context"
	"errors"
	"math"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// bucketScript refills and spends one token atomically. It replies with
// {allowed, whole tokens left, milliseconds until the next token}.
const bucketScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local t = redis.call("TIME")
local now = t[1] * 1000 + math.floor(t[2] / 1000)

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1]) or burst
local last = tonumber(state[2]) or now
if now > last then
  tokens = math.min(burst, tokens + (now - last) / 1000 * rate)
end

local allowed = 0
local wait = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
else
  wait = math.ceil((1 - tokens) / rate * 1000)
end

redis.call("HSET", KEYS[1], "tokens", tokens, "ts", now)
redis.call("PEXPIRE", KEYS[1], ttl)
return {allowed, math.floor(tokens), wait}
`

// Policy is a refill rate in tokens per second and a bucket capacity.
type Policy struct {
	Rate  float64
	Burst int
}

func (p Policy) validate() error {
	if p.Rate <= 0 || p.Burst <= 0 {
		return errors.New("rate limit policy must be positive")
	}
	return nil
}

// idleTTL keeps a bucket for twice the time it takes to refill from empty.
func (p Policy) idleTTL() time.Duration {
	if p.validate() != nil {
		return time.Second
	}
	seconds := math.Ceil(float64(p.Burst) / p.Rate * 2)
	return time.Duration(math.Max(seconds, 1)) * time.Second
}

// Result describes one bucket decision.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Bucket is a redis token bucket shared by every API replica.
type Bucket struct {
	client redis.Scripter
	script *redis.Script
}

func NewBucket(client redis.Scripter) *Bucket {
	if client == nil {
		return nil
	}
	return &Bucket{client: client, script: redis.NewScript(bucketScript)}
}

var errBucketNotConfigured = errors.New("rate limit bucket not configured")

// Take spends one token from key under p.
func (b *Bucket) Take(ctx context.Context, key string, p Policy) (*Result, error) {
	if b == nil || b.client == nil {
		return nil, errBucketNotConfigured
	}
	if key == "" {
		return nil, errors.New("rate limit key is empty")
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	reply, err := b.script.Run(ctx, b.client, []string{key},
		p.Rate, p.Burst, p.idleTTL().Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, err
	}
	if len(reply) != 3 {
		return nil, errors.New("unexpected rate limit script reply")
	}

	return &Result{
		Allowed:    reply[0] == 1,
		Limit:      p.Burst,
		Remaining:  int(reply[1]),
		RetryAfter: time.Duration(reply[2]) * time.Millisecond,
	}, nil
}
