package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/clinical-evidence-server/internal/domain"
)

// EuropePMCAdapter searches Europe PMC, which covers PubMed plus preprints,
// agency guidelines and European literature not indexed by NCBI.
type EuropePMCAdapter struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxResults int
}

// EuropePMCConfig contains configuration for the Europe PMC adapter.
type EuropePMCConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  int
	MaxResults int
}

func NewEuropePMCAdapter(config EuropePMCConfig) *EuropePMCAdapter {
	if config.BaseURL == "" {
		config.BaseURL = "https://www.ebi.ac.uk/europepmc/webservices/rest/"
	}
	if config.RateLimit == 0 {
		config.RateLimit = 5
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	if config.MaxResults == 0 {
		config.MaxResults = 10
	}
	return &EuropePMCAdapter{
		baseURL:    config.BaseURL,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		maxResults: config.MaxResults,
	}
}

func (a *EuropePMCAdapter) Source() domain.SourceType {
	return domain.SourceEuropePMC
}

type europePMCResponse struct {
	ResultList struct {
		Result []struct {
			PMID         string `json:"pmid"`
			PMCID        string `json:"pmcid"`
			DOI          string `json:"doi"`
			Title        string `json:"title"`
			AbstractText string `json:"abstractText"`
			AuthorString string `json:"authorString"`
			JournalTitle string `json:"journalTitle"`
			PubYear      string `json:"pubYear"`
		} `json:"result"`
	} `json:"resultList"`
}

func (a *EuropePMCAdapter) Fetch(ctx context.Context, req FetchRequest) (*domain.EvidencePackage, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"query":      {req.Query + " AND LANG:eng"},
		"format":     {"json"},
		"resultType": {"core"},
		"pageSize":   {strconv.Itoa(a.maxResults)},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating europepmc request: %w", err)
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing europepmc request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("europepmc returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading europepmc response: %w", err)
	}

	var response europePMCResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("parsing europepmc response: %w", err)
	}

	pkg := domain.NewEvidencePackage()
	for _, result := range response.ResultList.Result {
		year, _ := strconv.Atoi(result.PubYear)
		article := domain.PubMedArticle{
			PMID:     result.PMID,
			PMCID:    result.PMCID,
			DOI:      result.DOI,
			Title:    result.Title,
			Abstract: result.AbstractText,
			Journal:  result.JournalTitle,
			Year:     year,
		}
		if result.AuthorString != "" {
			article.Authors = []string{result.AuthorString}
		}
		if result.DOI != "" {
			article.URL = "https://doi.org/" + result.DOI
		} else if result.PMID != "" {
			article.URL = "https://europepmc.org/abstract/MED/" + result.PMID
		}
		pkg.EuropePMCArticles = append(pkg.EuropePMCArticles, article)
	}
	return pkg, nil
}
