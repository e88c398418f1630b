package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeScript increments the counter only while it is below the limit and
// starts the window on the first hit.
var takeScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local ttl = redis.call('PTTL', KEYS[1])
if current >= tonumber(ARGV[1]) then
	return {0, current, ttl}
end
current = redis.call('INCR', KEYS[1])
if current == 1 or ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
	ttl = tonumber(ARGV[2])
end
return {1, current, ttl}
`)

// RedisStore keeps fixed window counters in Redis so limits hold across
// several server instances.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis backed store. Keys are stored under prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Take atomically counts a hit for key if the window has room.
func (s *RedisStore) Take(ctx context.Context, key string, limit int, window time.Duration) (bool, int64, time.Duration, error) {
	res, err := takeScript.Run(ctx, s.client, []string{s.prefix + key}, limit, window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, 0, fmt.Errorf("ratelimit: redis take: %w", err)
	}
	if len(res) != 3 {
		return false, 0, 0, fmt.Errorf("ratelimit: unexpected redis reply %v", res)
	}
	return res[0] == 1, res[1], time.Duration(max(res[2], 0)) * time.Millisecond, nil
}
