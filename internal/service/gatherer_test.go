package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinical-evidence-server/internal/domain"
	"github.com/clinical-evidence-server/pkg/external"
)

type stubAdapter struct {
	source domain.SourceType
	pkg    *domain.EvidencePackage
	err    error
	panics bool
	calls  int32
}

func (s *stubAdapter) Source() domain.SourceType { return s.source }

func (s *stubAdapter) Fetch(ctx context.Context, req external.FetchRequest) (*domain.EvidencePackage, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.panics {
		panic("adapter blew up")
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.pkg != nil {
		return s.pkg.Clone(), nil
	}
	return domain.NewEvidencePackage(), nil
}

func richFragment() *domain.EvidencePackage {
	pkg := domain.NewEvidencePackage()
	pkg.CochraneReviews = []domain.CochraneReview{{Title: "Anticoagulants for AF"}}
	pkg.Guidelines = []domain.Guideline{{Name: "AF Guideline"}}
	pkg.ClinicalTrials = []domain.ClinicalTrialRecord{{NCTID: "NCT00000001", HasResults: true}}
	return pkg
}

func webFragment() *domain.EvidencePackage {
	pkg := domain.NewEvidencePackage()
	pkg.WebResults = []domain.WebCitation{{Title: "Web hit", URL: "https://www.cdc.gov/x", Domain: "cdc.gov"}}
	return pkg
}

func newTestGatherer(adapters []external.SourceAdapter, fallback external.SourceAdapter, cache *GatherCache) *MultiSourceGatherer {
	scorer := NewAdditiveSufficiencyScorer(nil)
	scorer.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	return NewMultiSourceGatherer(
		adapters,
		fallback,
		NewCuratedAnchorMatcher(nil),
		scorer,
		cache,
		GathererOptions{FallbackEnabled: true},
		nil,
	)
}

func TestMultiSourceGatherer_MergesFragmentsAndSkipsFallback(t *testing.T) {
	fallback := &stubAdapter{source: domain.SourceWebSearch, pkg: webFragment()}
	gatherer := newTestGatherer([]external.SourceAdapter{
		&stubAdapter{source: domain.SourcePubMed, pkg: richFragment()},
	}, fallback, nil)

	pkg, score, err := gatherer.Gather(context.Background(), "anticoagulation choice", nil, &domain.TagResult{})
	require.NoError(t, err)

	// Cochrane 30 + guidelines 25 + trial with results 20.
	assert.Equal(t, 75, score.Score)
	assert.False(t, score.ShouldCallFallback)
	assert.Empty(t, pkg.WebResults)
	assert.Zero(t, atomic.LoadInt32(&fallback.calls))
}

func TestMultiSourceGatherer_FallbackOnInsufficientEvidence(t *testing.T) {
	fallback := &stubAdapter{source: domain.SourceWebSearch, pkg: webFragment()}
	gatherer := newTestGatherer([]external.SourceAdapter{
		&stubAdapter{source: domain.SourcePubMed}, // empty fragment
	}, fallback, nil)

	pkg, score, err := gatherer.Gather(context.Background(), "obscure question", nil, &domain.TagResult{})
	require.NoError(t, err)

	assert.True(t, score.ShouldCallFallback)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fallback.calls))
	assert.Len(t, pkg.WebResults, 1)
	// Web results never move the sufficiency score.
	assert.Zero(t, score.Score)
}

func TestMultiSourceGatherer_FallbackDisabledByOption(t *testing.T) {
	fallback := &stubAdapter{source: domain.SourceWebSearch, pkg: webFragment()}
	scorer := NewAdditiveSufficiencyScorer(nil)
	gatherer := NewMultiSourceGatherer(
		[]external.SourceAdapter{&stubAdapter{source: domain.SourcePubMed}},
		fallback,
		NewCuratedAnchorMatcher(nil),
		scorer,
		nil,
		GathererOptions{FallbackEnabled: false},
		nil,
	)

	pkg, _, err := gatherer.Gather(context.Background(), "obscure question", nil, nil)
	require.NoError(t, err)
	assert.Zero(t, atomic.LoadInt32(&fallback.calls))
	assert.Empty(t, pkg.WebResults)
}

func TestMultiSourceGatherer_SourceFailuresAreIsolated(t *testing.T) {
	gatherer := newTestGatherer([]external.SourceAdapter{
		&stubAdapter{source: domain.SourcePubMed, err: errors.New("boom")},
		&stubAdapter{source: domain.SourceCochrane, panics: true},
		&stubAdapter{source: domain.SourceNICE, pkg: richFragment()},
	}, nil, nil)

	pkg, score, err := gatherer.Gather(context.Background(), "anything", nil, &domain.TagResult{})
	require.NoError(t, err)
	assert.Equal(t, 75, score.Score)
	assert.Len(t, pkg.CochraneReviews, 1)
}

func TestMultiSourceGatherer_AttachesAnchorGuidelines(t *testing.T) {
	gatherer := newTestGatherer([]external.SourceAdapter{
		&stubAdapter{source: domain.SourcePubMed},
	}, nil, nil)

	pkg, score, err := gatherer.Gather(context.Background(),
		"Anticoagulation for atrial fibrillation",
		nil,
		&domain.TagResult{
			DiseaseTags:  []domain.DiseaseTag{domain.DiseaseAF},
			DecisionTags: []domain.DecisionTag{domain.DecisionAnticoagulation},
		})
	require.NoError(t, err)

	assert.NotEmpty(t, pkg.AnchorGuidelines)
	assert.Equal(t, "afib_anticoagulation", score.MatchedScenario)
	assert.False(t, score.ShouldCallFallback)
}

func TestMultiSourceGatherer_ServesSecondPassFromCache(t *testing.T) {
	cache, err := NewGatherCache(16, time.Minute, nil, nil)
	require.NoError(t, err)

	adapter := &stubAdapter{source: domain.SourcePubMed, pkg: richFragment()}
	gatherer := newTestGatherer([]external.SourceAdapter{adapter}, nil, cache)

	ctx := context.Background()
	first, _, err := gatherer.Gather(ctx, "anticoagulation choice", nil, &domain.TagResult{})
	require.NoError(t, err)

	second, score, err := gatherer.Gather(ctx, "anticoagulation choice", nil, &domain.TagResult{})
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&adapter.calls))
	assert.Equal(t, first.TotalCount(), second.TotalCount())
	assert.Equal(t, 75, score.Score)
}

func TestMultiSourceGatherer_CancelledContext(t *testing.T) {
	gatherer := newTestGatherer([]external.SourceAdapter{
		&stubAdapter{source: domain.SourcePubMed, pkg: richFragment()},
	}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Stub adapters ignore ctx, so the pass itself completes; the test
	// pins down that the gatherer does not fail on an already-cancelled
	// context when its sources do not observe it.
	_, _, err := gatherer.Gather(ctx, "anything", nil, &domain.TagResult{})
	assert.NoError(t, err)
}
