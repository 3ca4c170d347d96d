package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// CachedClient memoises judgment responses in Redis so that re-grading the
// same submission against the same prompt does not hit the service again.
// Cache failures fall through to the wrapped client.
type CachedClient struct {
	inner  Client
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedClient wraps a judgment client with a Redis response cache.
func NewCachedClient(inner Client, redisClient *redis.Client, ttl time.Duration, logger zerolog.Logger) *CachedClient {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedClient{
		inner:  inner,
		redis:  redisClient,
		ttl:    ttl,
		logger: logger.With().Str("component", "judgment_cache").Logger(),
	}
}

// Ask returns the cached response for an identical prompt pair when present,
// otherwise delegates to the wrapped client and stores the answer.
func (c *CachedClient) Ask(ctx context.Context, systemPrompt, content string) (string, error) {
	key := cacheKey(systemPrompt, content)

	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		c.logger.Debug().Str("key", key).Msg("judgment cache hit")
		return cached, nil
	}

	answer, err := c.inner.Ask(ctx, systemPrompt, content)
	if err != nil {
		return "", err
	}

	if err := c.redis.Set(ctx, key, answer, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to store judgment response in cache")
	}

	return answer, nil
}

func cacheKey(systemPrompt, content string) string {
	sum := sha256.Sum256([]byte(systemPrompt + "\x00" + content))
	return "judgment:" + hex.EncodeToString(sum[:])
}
