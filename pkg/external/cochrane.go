package external

import (
	"context"
	"fmt"
	"time"

	"github.com/clinical-evidence-server/internal/domain"
)

// CochraneAdapter retrieves Cochrane systematic reviews. The Cochrane
// Database of Systematic Reviews is indexed in PubMed, so the adapter runs a
// journal-filtered E-utilities search rather than a separate API.
type CochraneAdapter struct {
	client     *EntrezClient
	maxResults int
}

// CochraneConfig contains configuration for the Cochrane adapter.
type CochraneConfig struct {
	BaseURL    string
	APIKey     string
	Email      string
	Timeout    time.Duration
	RateLimit  int
	MaxResults int
}

func NewCochraneAdapter(config CochraneConfig) *CochraneAdapter {
	if config.MaxResults == 0 {
		config.MaxResults = 5
	}
	return &CochraneAdapter{
		client: NewEntrezClient(EntrezConfig{
			BaseURL:   config.BaseURL,
			APIKey:    config.APIKey,
			Email:     config.Email,
			Timeout:   config.Timeout,
			RateLimit: config.RateLimit,
		}),
		maxResults: config.MaxResults,
	}
}

func (a *CochraneAdapter) Source() domain.SourceType {
	return domain.SourceCochrane
}

func (a *CochraneAdapter) Fetch(ctx context.Context, req FetchRequest) (*domain.EvidencePackage, error) {
	term := req.Query + ` AND "Cochrane Database Syst Rev"[Journal]`

	pmids, err := a.client.Search(ctx, "pubmed", term, a.maxResults)
	if err != nil {
		return nil, fmt.Errorf("searching cochrane reviews: %w", err)
	}

	pkg := domain.NewEvidencePackage()
	if len(pmids) == 0 {
		return pkg, nil
	}

	articles, err := a.client.FetchArticles(ctx, "pubmed", pmids)
	if err != nil {
		return nil, fmt.Errorf("fetching cochrane reviews: %w", err)
	}

	for _, article := range articles {
		pkg.CochraneReviews = append(pkg.CochraneReviews, domain.CochraneReview{
			Title:     article.Title,
			Summary:   article.Abstract,
			DOI:       article.DOI,
			PMID:      article.PMID,
			Authors:   article.Authors,
			Year:      article.Year,
			MeshTerms: article.MeshTerms,
			URL:       "https://pubmed.ncbi.nlm.nih.gov/" + article.PMID + "/",
		})
	}
	return pkg, nil
}

// SystematicReviewAdapter retrieves non-Cochrane systematic reviews and
// meta-analyses via the PubMed systematic-review subset filter.
type SystematicReviewAdapter struct {
	client     *EntrezClient
	maxResults int
}

func NewSystematicReviewAdapter(config CochraneConfig) *SystematicReviewAdapter {
	if config.MaxResults == 0 {
		config.MaxResults = 5
	}
	return &SystematicReviewAdapter{
		client: NewEntrezClient(EntrezConfig{
			BaseURL:   config.BaseURL,
			APIKey:    config.APIKey,
			Email:     config.Email,
			Timeout:   config.Timeout,
			RateLimit: config.RateLimit,
		}),
		maxResults: config.MaxResults,
	}
}

func (a *SystematicReviewAdapter) Source() domain.SourceType {
	return domain.SourceSystematic
}

func (a *SystematicReviewAdapter) Fetch(ctx context.Context, req FetchRequest) (*domain.EvidencePackage, error) {
	term := req.Query + ` AND systematic[sb] NOT "Cochrane Database Syst Rev"[Journal]`

	pmids, err := a.client.Search(ctx, "pubmed", term, a.maxResults)
	if err != nil {
		return nil, fmt.Errorf("searching systematic reviews: %w", err)
	}

	pkg := domain.NewEvidencePackage()
	if len(pmids) == 0 {
		return pkg, nil
	}

	articles, err := a.client.FetchArticles(ctx, "pubmed", pmids)
	if err != nil {
		return nil, fmt.Errorf("fetching systematic reviews: %w", err)
	}

	for _, article := range articles {
		pkg.SystematicReviews = append(pkg.SystematicReviews, domain.SystematicReview{
			Title:    article.Title,
			Abstract: article.Abstract,
			DOI:      article.DOI,
			PMID:     article.PMID,
			Journal:  article.Journal,
			Year:     article.Year,
			URL:      "https://pubmed.ncbi.nlm.nih.gov/" + article.PMID + "/",
		})
	}
	return pkg, nil
}
