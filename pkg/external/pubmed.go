package external

import (
	"context"
	"fmt"
	"time"

	"github.com/clinical-evidence-server/internal/domain"
)

// PubMedAdapter searches PubMed for primary literature relevant to the
// query. Results carry MeSH indexing so downstream exclusion filtering can
// use the controlled vocabulary instead of free-text matching.
type PubMedAdapter struct {
	client     *EntrezClient
	maxResults int
}

// PubMedConfig contains configuration for the PubMed adapter.
type PubMedConfig struct {
	BaseURL    string
	APIKey     string
	Email      string
	Timeout    time.Duration
	RateLimit  int
	MaxResults int
}

func NewPubMedAdapter(config PubMedConfig) *PubMedAdapter {
	if config.MaxResults == 0 {
		config.MaxResults = 10
	}
	return &PubMedAdapter{
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

func (a *PubMedAdapter) Source() domain.SourceType {
	return domain.SourcePubMed
}

// Fetch searches PubMed and fetches full records for the top results.
func (a *PubMedAdapter) Fetch(ctx context.Context, req FetchRequest) (*domain.EvidencePackage, error) {
	term := req.Query + " AND english[lang] AND humans[mesh]"

	pmids, err := a.client.Search(ctx, "pubmed", term, a.maxResults)
	if err != nil {
		return nil, fmt.Errorf("searching pubmed: %w", err)
	}

	pkg := domain.NewEvidencePackage()
	if len(pmids) == 0 {
		return pkg, nil
	}

	articles, err := a.client.FetchArticles(ctx, "pubmed", pmids)
	if err != nil {
		return nil, fmt.Errorf("fetching pubmed articles: %w", err)
	}

	for _, article := range articles {
		pkg.PubMedArticles = append(pkg.PubMedArticles, domain.PubMedArticle{
			PMID:      article.PMID,
			PMCID:     article.PMCID,
			DOI:       article.DOI,
			Title:     article.Title,
			Abstract:  article.Abstract,
			Authors:   article.Authors,
			Journal:   article.Journal,
			Year:      article.Year,
			MeshTerms: article.MeshTerms,
			URL:       "https://pubmed.ncbi.nlm.nih.gov/" + article.PMID + "/",
		})
	}
	return pkg, nil
}
