package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"montchatsouvenir/pkg/domain"
)

// Timestamps serialize as RFC 3339 through encoding/json and rehydrate to
// time.Time on retrieve, so the stored batch stays JSON-compatible.

// storeScript writes the batch only when the caller still holds the latest
// generation, making concurrent uploads last-claim-wins instead of
// last-write-wins.
var storeScript = redis.NewScript(`
local gen = redis.call("GET", KEYS[1])
if not gen or tonumber(gen) ~= tonumber(ARGV[1]) then
  return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
redis.call("PEXPIRE", KEYS[1], ARGV[3])
return 1
`)

// RedisCache keeps session conversations in Redis with the session TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache builds a Redis-backed session cache.
func NewRedisCache(addr, password string, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		ttl: ttl,
	}
}

// NextGeneration claims the session for a new extraction run.
func (c *RedisCache) NextGeneration(ctx context.Context, sessionID string) (int64, error) {
	gen, err := c.client.Incr(ctx, genKey(sessionID)).Result()
	if err != nil {
		return 0, fmt.Errorf("claim session: %w", err)
	}
	if err := c.client.PExpire(ctx, genKey(sessionID), c.ttl).Err(); err != nil {
		return 0, fmt.Errorf("claim session: %w", err)
	}
	return gen, nil
}

// Store replaces the session's batch. Each successful call fully overwrites
// any prior batch; there is no merging.
func (c *RedisCache) Store(ctx context.Context, sessionID string, generation int64, conv domain.Conversation) error {
	payload, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	keys := []string{genKey(sessionID), slotKey(sessionID)}
	ok, err := storeScript.Run(ctx, c.client, keys, generation, payload, c.ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("store conversation: %w", err)
	}
	if ok == 0 {
		return ErrStaleGeneration
	}
	return nil
}

// Retrieve returns the cached batch, rehydrated from JSON.
func (c *RedisCache) Retrieve(ctx context.Context, sessionID string) (domain.Conversation, bool, error) {
	payload, err := c.client.Get(ctx, slotKey(sessionID)).Bytes()
	if err == redis.Nil {
		return domain.Conversation{}, false, nil
	}
	if err != nil {
		return domain.Conversation{}, false, fmt.Errorf("retrieve conversation: %w", err)
	}
	var conv domain.Conversation
	if err := json.Unmarshal(payload, &conv); err != nil {
		return domain.Conversation{}, false, fmt.Errorf("decode conversation: %w", err)
	}
	return conv, true, nil
}

// Clear drops the session's batch.
func (c *RedisCache) Clear(ctx context.Context, sessionID string) error {
	if err := c.client.Del(ctx, slotKey(sessionID)).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("clear conversation: %w", err)
	}
	return nil
}

func slotKey(sessionID string) string {
	return "mts:session:" + sessionID + ":" + Slot
}

func genKey(sessionID string) string {
	return "mts:session:" + sessionID + ":generation"
}
