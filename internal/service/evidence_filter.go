package service

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/clinical-evidence-server/internal/domain"
)

// ExclusionEvidenceFilter removes evidence items that match any of the
// classifier's excluded terms. It is a pure transform: the input package is
// cloned, never mutated, and items are dropped rather than edited.
//
// Curated and registry-backed fields are exempt from exclusion: anchor
// guidelines and landmark trials were hand-picked for the scenario, drug
// labels were fetched for drugs named in the query, and trial registry
// records carry structured conditions rather than prose. Exclusion only
// prunes the free-text literature and guideline searches, where an
// off-topic hit (e.g. an exercise study for a drug question) is plausible.
type ExclusionEvidenceFilter struct {
	logger *logrus.Logger
}

func NewExclusionEvidenceFilter(logger *logrus.Logger) *ExclusionEvidenceFilter {
	return &ExclusionEvidenceFilter{logger: logger}
}

// Filter returns a new package with excluded-term matches removed.
//
// For items carrying indexed vocabulary terms (MeSH), the indexed terms are
// checked first; free-text substring matching is the fallback for items
// without indexing. This mirrors how the terms were authored: rule tables
// list exclusions as indexing-vocabulary headings like "Exercise".
func (f *ExclusionEvidenceFilter) Filter(pkg *domain.EvidencePackage, excludedTerms []string) *domain.EvidencePackage {
	if pkg == nil {
		return domain.NewEvidencePackage()
	}
	out := pkg.Clone()
	if len(excludedTerms) == 0 {
		return out
	}

	lowered := make([]string, 0, len(excludedTerms))
	for _, t := range excludedTerms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			lowered = append(lowered, t)
		}
	}
	if len(lowered) == 0 {
		return out
	}

	before := out.TotalCount()

	out.PubMedArticles = filterArticles(out.PubMedArticles, lowered)
	out.EuropePMCArticles = filterArticles(out.EuropePMCArticles, lowered)
	out.CochraneReviews = filterCochrane(out.CochraneReviews, lowered)

	out.SystematicReviews = filterSlice(out.SystematicReviews, lowered)
	out.Guidelines = filterSlice(out.Guidelines, lowered)
	out.WHOGuidelines = filterSlice(out.WHOGuidelines, lowered)
	out.CDCGuidance = filterSlice(out.CDCGuidance, lowered)
	out.NICEGuidelines = filterSlice(out.NICEGuidelines, lowered)
	out.USPSTFRecommendations = filterSlice(out.USPSTFRecommendations, lowered)
	out.WebResults = filterSlice(out.WebResults, lowered)

	if f.logger != nil {
		f.logger.WithFields(logrus.Fields{
			"excluded_terms": len(lowered),
			"removed":        before - out.TotalCount(),
			"remaining":      out.TotalCount(),
		}).Debug("Filtered evidence package")
	}
	return out
}

type searchable interface {
	SearchText() string
}

func filterSlice[T searchable](items []T, loweredTerms []string) []T {
	kept := make([]T, 0, len(items))
	for _, item := range items {
		if !matchesAnyTerm(item.SearchText(), nil, loweredTerms) {
			kept = append(kept, item)
		}
	}
	return kept
}

func filterArticles(items []domain.PubMedArticle, loweredTerms []string) []domain.PubMedArticle {
	kept := make([]domain.PubMedArticle, 0, len(items))
	for _, item := range items {
		if !matchesAnyTerm(item.SearchText(), item.IndexedTerms(), loweredTerms) {
			kept = append(kept, item)
		}
	}
	return kept
}

func filterCochrane(items []domain.CochraneReview, loweredTerms []string) []domain.CochraneReview {
	kept := make([]domain.CochraneReview, 0, len(items))
	for _, item := range items {
		if !matchesAnyTerm(item.SearchText(), item.IndexedTerms(), loweredTerms) {
			kept = append(kept, item)
		}
	}
	return kept
}

// matchesAnyTerm prefers indexed-term matching when the item carries
// indexing; free text is only consulted for unindexed items.
func matchesAnyTerm(freeText string, indexedTerms []string, loweredTerms []string) bool {
	if len(indexedTerms) > 0 {
		for _, mesh := range indexedTerms {
			mesh = strings.ToLower(mesh)
			for _, term := range loweredTerms {
				if strings.Contains(mesh, term) {
					return true
				}
			}
		}
		return false
	}
	text := strings.ToLower(freeText)
	for _, term := range loweredTerms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
