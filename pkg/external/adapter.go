// Package external contains the clients for the evidence provider APIs and
// the adapter plumbing that makes them safe to fan out to: every provider is
// wrapped so that one failing or panicking source can never abort a gather
// pass.
package external

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/clinical-evidence-server/internal/domain"
)

// FetchRequest carries the per-query inputs a source adapter may use. Drug
// keywords are generic names; label registries ignore the free-text query
// and search by drug name instead.
type FetchRequest struct {
	Query        string
	DrugKeywords []string
}

// Key returns a stable cache key for the request.
func (r FetchRequest) Key() string {
	h := sha256.Sum256([]byte(r.Query + "|" + strings.Join(r.DrugKeywords, ",")))
	return fmt.Sprintf("%x", h[:8])
}

// SourceAdapter fetches evidence from one provider and returns it as a
// package fragment with only that provider's fields populated. Fragments are
// merged by the gatherer.
type SourceAdapter interface {
	Source() domain.SourceType
	Fetch(ctx context.Context, req FetchRequest) (*domain.EvidencePackage, error)
}

// failsafeAdapter converts every failure mode of the wrapped adapter,
// including panics, into an empty fragment. The gather fan-out depends on
// this guarantee: a dead provider degrades the package, never the request.
type failsafeAdapter struct {
	inner  SourceAdapter
	logger *logrus.Logger
}

// Failsafe wraps an adapter so Fetch never returns an error.
func Failsafe(inner SourceAdapter, logger *logrus.Logger) SourceAdapter {
	return &failsafeAdapter{inner: inner, logger: logger}
}

func (f *failsafeAdapter) Source() domain.SourceType {
	return f.inner.Source()
}

func (f *failsafeAdapter) Fetch(ctx context.Context, req FetchRequest) (pkg *domain.EvidencePackage, err error) {
	defer func() {
		if r := recover(); r != nil {
			if f.logger != nil {
				f.logger.WithFields(logrus.Fields{
					"source": f.inner.Source(),
					"panic":  r,
				}).Error("Evidence source panicked, returning empty fragment")
			}
			pkg = domain.NewEvidencePackage()
			err = nil
		}
	}()

	fragment, fetchErr := f.inner.Fetch(ctx, req)
	if fetchErr != nil {
		if f.logger != nil {
			f.logger.WithFields(logrus.Fields{
				"source": f.inner.Source(),
				"error":  fetchErr.Error(),
			}).Warn("Evidence source failed, returning empty fragment")
		}
		return domain.NewEvidencePackage(), nil
	}
	if fragment == nil {
		return domain.NewEvidencePackage(), nil
	}
	return fragment, nil
}

// memoAdapter short-circuits repeat fetches for the same request within the
// TTL window. Per-adapter memoization sits below the gather-level cache so
// that a cache miss on the merged package can still reuse fresh per-source
// fragments.
type memoAdapter struct {
	inner SourceAdapter
	cache *lru.LRU[string, *domain.EvidencePackage]
}

// Memoize wraps an adapter with an in-process TTL cache.
func Memoize(inner SourceAdapter, size int, ttl time.Duration) SourceAdapter {
	if size <= 0 {
		size = 128
	}
	return &memoAdapter{
		inner: inner,
		cache: lru.NewLRU[string, *domain.EvidencePackage](size, nil, ttl),
	}
}

func (m *memoAdapter) Source() domain.SourceType {
	return m.inner.Source()
}

func (m *memoAdapter) Fetch(ctx context.Context, req FetchRequest) (*domain.EvidencePackage, error) {
	key := string(m.inner.Source()) + ":" + req.Key()
	if cached, ok := m.cache.Get(key); ok {
		return cached.Clone(), nil
	}
	fragment, err := m.inner.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if fragment != nil {
		m.cache.Add(key, fragment.Clone())
	}
	return fragment, nil
}
