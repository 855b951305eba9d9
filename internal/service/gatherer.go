package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/clinical-evidence-server/internal/domain"
	"github.com/clinical-evidence-server/pkg/external"
)

// GathererOptions tunes the fan-out behavior.
type GathererOptions struct {
	MaxConcurrency  int
	FallbackEnabled bool
}

// MultiSourceGatherer fans a query out to every configured evidence source
// concurrently, merges the fragments, scores sufficiency, and only then
// decides whether the paid web-search fallback is worth calling. Source
// failures never fail the pass: every adapter is failsafe-wrapped at
// construction.
type MultiSourceGatherer struct {
	adapters []external.SourceAdapter
	fallback external.SourceAdapter
	anchors  domain.AnchorMatcher
	scorer   domain.SufficiencyScorer
	cache    *GatherCache
	opts     GathererOptions
	logger   *logrus.Logger
}

// NewMultiSourceGatherer wires the gatherer. fallback and cache may be nil;
// anchors and scorer are required.
func NewMultiSourceGatherer(
	adapters []external.SourceAdapter,
	fallback external.SourceAdapter,
	anchors domain.AnchorMatcher,
	scorer domain.SufficiencyScorer,
	cache *GatherCache,
	opts GathererOptions,
	logger *logrus.Logger,
) *MultiSourceGatherer {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 8
	}

	wrapped := make([]external.SourceAdapter, len(adapters))
	for i, adapter := range adapters {
		wrapped[i] = external.Failsafe(adapter, logger)
	}
	if fallback != nil {
		fallback = external.Failsafe(fallback, logger)
	}

	return &MultiSourceGatherer{
		adapters: wrapped,
		fallback: fallback,
		anchors:  anchors,
		scorer:   scorer,
		cache:    cache,
		opts:     opts,
		logger:   logger,
	}
}

// Gather runs one evidence pass. The caller owns the deadline: the gatherer
// honors ctx but sets none of its own. The returned sufficiency score
// reflects the curated sources; web fallback results never add points.
func (g *MultiSourceGatherer) Gather(ctx context.Context, query string, drugKeywords []string, tags *domain.TagResult) (*domain.EvidencePackage, *domain.SufficiencyScore, error) {
	if tags == nil {
		tags = &domain.TagResult{}
	}
	req := external.FetchRequest{Query: query, DrugKeywords: drugKeywords}

	if g.cache != nil {
		if cached, ok := g.cache.Get(ctx, req.Key()); ok {
			score := g.scorer.Score(cached, tags.DiseaseTags, tags.DecisionTags)
			if g.logger != nil {
				g.logger.WithFields(logrus.Fields{
					"items": cached.TotalCount(),
					"score": score.Score,
				}).Debug("Served evidence package from cache")
			}
			return cached, score, nil
		}
	}

	started := time.Now()
	merged := domain.NewEvidencePackage()
	merged.AnchorGuidelines = g.anchors.GetGuidelines(query)

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(g.opts.MaxConcurrency)

	for _, adapter := range g.adapters {
		group.Go(func() error {
			fragment, err := adapter.Fetch(groupCtx, req)
			if err != nil {
				// Failsafe wrapping makes this unreachable for source
				// errors; only context cancellation lands here.
				return err
			}
			mu.Lock()
			merged.Merge(fragment)
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	score := g.scorer.Score(merged, tags.DiseaseTags, tags.DecisionTags)

	if score.ShouldCallFallback && g.opts.FallbackEnabled && g.fallback != nil {
		fragment, err := g.fallback.Fetch(ctx, req)
		if err == nil {
			merged.Merge(fragment)
		}
	}

	if g.cache != nil {
		g.cache.Put(ctx, req.Key(), merged)
	}

	if g.logger != nil {
		g.logger.WithFields(logrus.Fields{
			"sources":       len(g.adapters),
			"items":         merged.TotalCount(),
			"score":         score.Score,
			"level":         score.Level,
			"used_fallback": score.ShouldCallFallback && g.opts.FallbackEnabled && g.fallback != nil,
			"elapsed":       time.Since(started).String(),
		}).Info("Completed evidence gather pass")
	}
	return merged, score, nil
}
