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

// GuidelineAdapter queries one guideline publisher's search endpoint. The
// publishers expose no common API, so deployments point each instance at a
// search gateway (or an internal guideline mirror) that answers the shared
// JSON shape below. One adapter type serves WHO, CDC, NICE and USPSTF; only
// the source tag and the target package field differ.
type GuidelineAdapter struct {
	source       domain.SourceType
	organization string
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	limiter      *rate.Limiter
	maxResults   int
}

// GuidelineConfig contains configuration for one guideline publisher.
type GuidelineConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RateLimit  int
	MaxResults int
}

func newGuidelineAdapter(source domain.SourceType, organization string, config GuidelineConfig) *GuidelineAdapter {
	if config.RateLimit == 0 {
		config.RateLimit = 3
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	if config.MaxResults == 0 {
		config.MaxResults = 5
	}
	return &GuidelineAdapter{
		source:       source,
		organization: organization,
		baseURL:      config.BaseURL,
		apiKey:       config.APIKey,
		httpClient:   &http.Client{Timeout: config.Timeout},
		limiter:      rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		maxResults:   config.MaxResults,
	}
}

// NewWHOAdapter queries WHO guideline publications.
func NewWHOAdapter(config GuidelineConfig) *GuidelineAdapter {
	return newGuidelineAdapter(domain.SourceWHO, "WHO", config)
}

// NewCDCAdapter queries CDC clinical guidance.
func NewCDCAdapter(config GuidelineConfig) *GuidelineAdapter {
	return newGuidelineAdapter(domain.SourceCDC, "CDC", config)
}

// NewNICEAdapter queries NICE guidance.
func NewNICEAdapter(config GuidelineConfig) *GuidelineAdapter {
	return newGuidelineAdapter(domain.SourceNICE, "NICE", config)
}

// NewUSPSTFAdapter queries USPSTF recommendation statements.
func NewUSPSTFAdapter(config GuidelineConfig) *GuidelineAdapter {
	return newGuidelineAdapter(domain.SourceUSPSTF, "USPSTF", config)
}

func (a *GuidelineAdapter) Source() domain.SourceType {
	return a.source
}

type guidelineSearchResponse struct {
	Results []struct {
		Title          string `json:"title"`
		Summary        string `json:"summary"`
		Recommendation string `json:"recommendation"`
		Year           int    `json:"year"`
		URL            string `json:"url"`
	} `json:"results"`
}

func (a *GuidelineAdapter) Fetch(ctx context.Context, req FetchRequest) (*domain.EvidencePackage, error) {
	pkg := domain.NewEvidencePackage()
	if a.baseURL == "" {
		// Publisher not configured for this deployment.
		return pkg, nil
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"q":     {req.Query},
		"limit": {strconv.Itoa(a.maxResults)},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating %s guideline request: %w", a.organization, err)
	}
	if a.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing %s guideline request: %w", a.organization, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s guideline search returned status %d", a.organization, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s guideline response: %w", a.organization, err)
	}

	var response guidelineSearchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("parsing %s guideline response: %w", a.organization, err)
	}

	guidelines := make([]domain.Guideline, 0, len(response.Results))
	for _, result := range response.Results {
		guidelines = append(guidelines, domain.Guideline{
			Name:           result.Title,
			Organization:   a.organization,
			Year:           result.Year,
			Summary:        result.Summary,
			Recommendation: result.Recommendation,
			URL:            result.URL,
		})
	}

	switch a.source {
	case domain.SourceWHO:
		pkg.WHOGuidelines = guidelines
	case domain.SourceCDC:
		pkg.CDCGuidance = guidelines
	case domain.SourceNICE:
		pkg.NICEGuidelines = guidelines
	case domain.SourceUSPSTF:
		pkg.USPSTFRecommendations = guidelines
	default:
		pkg.Guidelines = guidelines
	}
	return pkg, nil
}
