package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/matchmaker/internal/config"
)

// CounterTTL is refreshed on every read and write of a counter key.
const CounterTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

// KeyForLikeCount generates Redis key for a user's received-likes count.
func (c *RedisCache) KeyForLikeCount(userID string) string {
	return "likes:count:" + userID
}

// KeyForSession generates Redis key for a cached session user.
func (c *RedisCache) KeyForSession(userID string) string {
	return "session:user:" + userID
}

// ChannelForChat is the pub/sub channel carrying a match's new messages.
func (c *RedisCache) ChannelForChat(matchID string) string {
	return "chat:" + matchID
}

// SetLikeCount stores a freshly computed count with TTL.
func (c *RedisCache) SetLikeCount(ctx context.Context, userID string, count int64) error {
	return c.Client.Set(ctx, c.KeyForLikeCount(userID), count, CounterTTL).Err()
}

// GetLikeCount returns the cached count. ok is false on a cache miss.
func (c *RedisCache) GetLikeCount(ctx context.Context, userID string) (count int64, ok bool, err error) {
	key := c.KeyForLikeCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// corrupt entry, treat as miss
		_ = c.Client.Del(ctx, key).Err()
		return 0, false, nil
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, CounterTTL).Err()
	return n, true, nil
}

// adjustIfPresent only touches counters that are already cached. A blind
// INCR on a missing key would start from zero and hide the real count.
var adjustIfPresent = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return nil
end
local v = redis.call("INCRBY", KEYS[1], ARGV[1])
if v < 0 then
  redis.call("SET", KEYS[1], 0)
  v = 0
end
redis.call("EXPIRE", KEYS[1], ARGV[2])
return v
`)

// AdjustLikeCount adds delta to a cached count. Missing keys are left alone
// and will be rebuilt from the database on the next read.
func (c *RedisCache) AdjustLikeCount(ctx context.Context, userID string, delta int64) error {
	err := adjustIfPresent.Run(ctx, c.Client,
		[]string{c.KeyForLikeCount(userID)}, delta, int(CounterTTL.Seconds())).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// SetJSON stores v as JSON under key.
func (c *RedisCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return c.Client.Set(ctx, key, b, ttl).Err()
}

// GetJSON loads key into v. ok is false on a cache miss.
func (c *RedisCache) GetJSON(ctx context.Context, key string, v any) (ok bool, err error) {
	b, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

// Publish sends payload as JSON to channel.
func (c *RedisCache) Publish(ctx context.Context, channel string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.Client.Publish(ctx, channel, b).Err()
}

// Subscribe opens a subscription and waits for the server to confirm it, so
// messages published after Subscribe returns are not lost.
func (c *RedisCache) Subscribe(ctx context.Context, channel string) (*redis.PubSub, error) {
	ps := c.Client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}
	return ps, nil
}
