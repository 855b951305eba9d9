package external

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clinical-evidence-server/internal/domain"
)

// EvidenceCache wraps Redis with caching for merged evidence packages. It is
// the shared second tier behind the in-process LRU: a Redis miss costs one
// round trip, a full gather pass costs a dozen API calls.
type EvidenceCache struct {
	redis      *redis.Client
	defaultTTL time.Duration
}

// NewEvidenceCache connects to Redis and verifies the connection.
func NewEvidenceCache(redisURL string, defaultTTL time.Duration) (*EvidenceCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	if defaultTTL == 0 {
		defaultTTL = time.Hour
	}
	return &EvidenceCache{redis: client, defaultTTL: defaultTTL}, nil
}

type cachedEvidence struct {
	Package   *domain.EvidencePackage `json:"package"`
	CachedAt  time.Time               `json:"cached_at"`
	ExpiresAt time.Time               `json:"expires_at"`
}

// Get retrieves a cached evidence package. The boolean reports a hit;
// corrupted or expired entries are deleted and reported as misses.
func (c *EvidenceCache) Get(ctx context.Context, key string) (*domain.EvidencePackage, bool, error) {
	val, err := c.redis.Get(ctx, "evidence:"+key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting evidence cache: %w", err)
	}

	var cached cachedEvidence
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		c.redis.Del(ctx, "evidence:"+key)
		return nil, false, nil
	}
	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, "evidence:"+key)
		return nil, false, nil
	}
	return cached.Package, true, nil
}

// Set caches an evidence package. A zero ttl uses the default.
func (c *EvidenceCache) Set(ctx context.Context, key string, pkg *domain.EvidencePackage, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	cached := cachedEvidence{
		Package:   pkg,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshaling evidence cache entry: %w", err)
	}
	return c.redis.Set(ctx, "evidence:"+key, data, ttl).Err()
}

// Ping checks whether the Redis connection is alive.
func (c *EvidenceCache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *EvidenceCache) Close() error {
	return c.redis.Close()
}
