package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/clinical-evidence-server/internal/domain"
)

// trustedWebDomains limits fallback results to medical publishers. The
// fallback runs when curated sources came back thin, which is exactly when a
// low-quality result would do the most damage.
var trustedWebDomains = []string{
	"nih.gov", "ncbi.nlm.nih.gov", "cdc.gov", "who.int", "fda.gov",
	"nice.org.uk", "uptodate.com", "cochranelibrary.com", "ahajournals.org",
	"nejm.org", "thelancet.com", "jamanetwork.com", "bmj.com",
	"mayoclinic.org", "medlineplus.gov",
}

// WebSearchAdapter is the paid fallback provider, backed by the Brave Search
// API. It carries its own circuit breaker: when the provider degrades, the
// breaker opens and the gatherer simply proceeds without web results.
type WebSearchAdapter struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	maxResults int
	logger     *logrus.Logger
}

// WebSearchConfig contains configuration for the web-search fallback.
type WebSearchConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RateLimit  int
	MaxResults int
}

func NewWebSearchAdapter(config WebSearchConfig, logger *logrus.Logger) *WebSearchAdapter {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.search.brave.com/res/v1/web/search"
	}
	if config.RateLimit == 0 {
		config.RateLimit = 1
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxResults == 0 {
		config.MaxResults = 5
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "WebSearch",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger != nil {
				logger.WithFields(logrus.Fields{
					"circuit_breaker": name,
					"from_state":      from.String(),
					"to_state":        to.String(),
				}).Warn("Circuit breaker state changed")
			}
		},
	})

	return &WebSearchAdapter{
		baseURL:    config.BaseURL,
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		breaker:    breaker,
		maxResults: config.MaxResults,
		logger:     logger,
	}
}

func (a *WebSearchAdapter) Source() domain.SourceType {
	return domain.SourceWebSearch
}

type braveSearchResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (a *WebSearchAdapter) Fetch(ctx context.Context, req FetchRequest) (*domain.EvidencePackage, error) {
	if a.apiKey == "" {
		return nil, domain.ErrMissingCredential
	}

	result, err := a.breaker.Execute(func() (interface{}, error) {
		return a.search(ctx, req.Query)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return nil, fmt.Errorf("web search unavailable: %w", domain.ErrSourceUnavailable)
		}
		return nil, fmt.Errorf("web search: %w", err)
	}
	return result.(*domain.EvidencePackage), nil
}

func (a *WebSearchAdapter) search(ctx context.Context, query string) (*domain.EvidencePackage, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"q":     {query},
		"count": {strconv.Itoa(a.maxResults * 4)}, // over-fetch, domain filter prunes
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Subscription-Token", a.apiKey)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}

	var response braveSearchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	pkg := domain.NewEvidencePackage()
	for _, result := range response.Web.Results {
		host := hostOf(result.URL)
		if !trustedDomain(host) {
			continue
		}
		pkg.WebResults = append(pkg.WebResults, domain.WebCitation{
			Title:   result.Title,
			URL:     result.URL,
			Snippet: result.Description,
			Domain:  host,
		})
		if len(pkg.WebResults) >= a.maxResults {
			break
		}
	}
	return pkg, nil
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}

func trustedDomain(host string) bool {
	for _, trusted := range trustedWebDomains {
		if host == trusted || strings.HasSuffix(host, "."+trusted) {
			return true
		}
	}
	return false
}
