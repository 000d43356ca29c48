package limiter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript applies one hit to a hash {count, reset_at}; times are unix milliseconds.
var incrScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local count = tonumber(redis.call('HGET', KEYS[1], 'count'))
local reset = tonumber(redis.call('HGET', KEYS[1], 'reset_at'))
if count == nil or reset == nil or now > reset then
  count = 0
  reset = now + window
end
count = count + 1
redis.call('HSET', KEYS[1], 'count', count, 'reset_at', reset)
redis.call('PEXPIREAT', KEYS[1], reset + 1000)
return {count, reset}
`)

// RedisStore keeps buckets in Redis so several server instances share budgets.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore constructs a store; keys are namespaced with prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(k string) string { return s.prefix + k }

// Incr implements Store.
func (s *RedisStore) Incr(ctx context.Context, key string, now time.Time, window time.Duration) (Bucket, error) {
	res, err := incrScript.Run(ctx, s.client, []string{s.key(key)}, now.UnixMilli(), window.Milliseconds()).Int64Slice()
	if err != nil {
		return Bucket{}, fmt.Errorf("redis incr: %w", err)
	}
	if len(res) != 2 {
		return Bucket{}, fmt.Errorf("redis incr: unexpected reply %v", res)
	}
	return Bucket{Count: int(res[0]), ResetAt: time.UnixMilli(res[1])}, nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) (Bucket, bool, error) {
	m, err := s.client.HGetAll(ctx, s.key(key)).Result()
	if err != nil {
		return Bucket{}, false, err
	}
	if len(m) == 0 {
		return Bucket{}, false, nil
	}
	count, err := strconv.Atoi(m["count"])
	if err != nil {
		return Bucket{}, false, fmt.Errorf("redis bucket count: %w", err)
	}
	reset, err := strconv.ParseInt(m["reset_at"], 10, 64)
	if err != nil {
		return Bucket{}, false, fmt.Errorf("redis bucket reset_at: %w", err)
	}
	return Bucket{Count: count, ResetAt: time.UnixMilli(reset)}, true, nil
}

// Reset implements Store.
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}
