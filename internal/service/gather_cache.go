package service

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"

	"github.com/clinical-evidence-server/internal/domain"
	"github.com/clinical-evidence-server/pkg/external"
)

// GatherCache is the two-tier cache for merged evidence packages. The first
// tier is an in-process LRU; the second, optional tier is shared Redis so
// replicas can reuse each other's gather passes. Either tier can be absent.
type GatherCache struct {
	memory *lru.Cache
	shared *external.EvidenceCache
	ttl    time.Duration
	logger *logrus.Logger
}

type memoryCacheEntry struct {
	pkg       *domain.EvidencePackage
	expiresAt time.Time
}

// NewGatherCache builds the cache. shared may be nil for single-replica
// deployments without Redis.
func NewGatherCache(memorySize int, ttl time.Duration, shared *external.EvidenceCache, logger *logrus.Logger) (*GatherCache, error) {
	if memorySize <= 0 {
		memorySize = 256
	}
	if ttl == 0 {
		ttl = 30 * time.Minute
	}
	memory, err := lru.New(memorySize)
	if err != nil {
		return nil, err
	}
	return &GatherCache{
		memory: memory,
		shared: shared,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Get checks memory first, then the shared tier. A shared-tier hit is
// promoted into memory. Cache errors are treated as misses; the cache must
// never make a gather pass fail.
func (c *GatherCache) Get(ctx context.Context, key string) (*domain.EvidencePackage, bool) {
	if value, ok := c.memory.Get(key); ok {
		entry := value.(memoryCacheEntry)
		if time.Now().Before(entry.expiresAt) {
			return entry.pkg.Clone(), true
		}
		c.memory.Remove(key)
	}

	if c.shared == nil {
		return nil, false
	}
	pkg, found, err := c.shared.Get(ctx, key)
	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).Warn("Shared evidence cache lookup failed")
		}
		return nil, false
	}
	if !found || pkg == nil {
		return nil, false
	}
	c.memory.Add(key, memoryCacheEntry{pkg: pkg.Clone(), expiresAt: time.Now().Add(c.ttl)})
	return pkg, true
}

// Put stores the package in both tiers.
func (c *GatherCache) Put(ctx context.Context, key string, pkg *domain.EvidencePackage) {
	c.memory.Add(key, memoryCacheEntry{pkg: pkg.Clone(), expiresAt: time.Now().Add(c.ttl)})

	if c.shared == nil {
		return
	}
	if err := c.shared.Set(ctx, key, pkg, c.ttl); err != nil && c.logger != nil {
		c.logger.WithError(err).Warn("Shared evidence cache write failed")
	}
}
