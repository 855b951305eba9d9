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

	"golang.org/x/time/rate"

	"github.com/clinical-evidence-server/internal/domain"
)

// OpenFDAAdapter retrieves FDA drug labeling from the openFDA API. Like
// DailyMed it is drug-keyword gated; the two registries overlap but openFDA
// labels carry FDA-curated section text and NDC metadata.
type OpenFDAAdapter struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxLabels  int
}

// OpenFDAConfig contains configuration for the openFDA adapter.
type OpenFDAConfig struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit int
	MaxLabels int
}

func NewOpenFDAAdapter(config OpenFDAConfig) *OpenFDAAdapter {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.fda.gov/drug/"
	}
	if config.RateLimit == 0 {
		config.RateLimit = 4
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	if config.MaxLabels == 0 {
		config.MaxLabels = 1
	}
	return &OpenFDAAdapter{
		baseURL:    config.BaseURL,
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		maxLabels:  config.MaxLabels,
	}
}

func (a *OpenFDAAdapter) Source() domain.SourceType {
	return domain.SourceOpenFDA
}

type openFDALabelResponse struct {
	Results []struct {
		ID                      string   `json:"id"`
		EffectiveTime           string   `json:"effective_time"`
		BoxedWarning            []string `json:"boxed_warning"`
		IndicationsAndUsage     []string `json:"indications_and_usage"`
		DosageAndAdministration []string `json:"dosage_and_administration"`
		Contraindications       []string `json:"contraindications"`
		WarningsAndCautions     []string `json:"warnings_and_cautions"`
		AdverseReactions        []string `json:"adverse_reactions"`
		DrugInteractions        []string `json:"drug_interactions"`
		OpenFDA                 struct {
			BrandName        []string `json:"brand_name"`
			GenericName      []string `json:"generic_name"`
			ManufacturerName []string `json:"manufacturer_name"`
			ProductNDC       []string `json:"product_ndc"`
			SPLSetID         []string `json:"spl_set_id"`
		} `json:"openfda"`
	} `json:"results"`
}

func (a *OpenFDAAdapter) Fetch(ctx context.Context, req FetchRequest) (*domain.EvidencePackage, error) {
	pkg := domain.NewEvidencePackage()
	if len(req.DrugKeywords) == 0 {
		return pkg, nil
	}

	for _, drug := range req.DrugKeywords {
		labels, err := a.fetchLabelsForDrug(ctx, drug)
		if err != nil {
			return nil, fmt.Errorf("fetching openfda labels for %s: %w", drug, err)
		}
		pkg.FDALabels = append(pkg.FDALabels, labels...)
	}
	return pkg, nil
}

func (a *OpenFDAAdapter) fetchLabelsForDrug(ctx context.Context, drug string) ([]domain.DrugLabel, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"search": {fmt.Sprintf(`openfda.generic_name:"%s"`, drug)},
		"limit":  {strconv.Itoa(a.maxLabels)},
	}
	if a.apiKey != "" {
		params.Set("api_key", a.apiKey)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"label.json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating openfda request: %w", err)
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing openfda request: %w", err)
	}
	defer resp.Body.Close()

	// openFDA answers 404 for zero matches.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openfda returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading openfda response: %w", err)
	}

	var response openFDALabelResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("parsing openfda response: %w", err)
	}

	var labels []domain.DrugLabel
	for _, result := range response.Results {
		label := domain.DrugLabel{
			DrugName:      drug,
			PublishedDate: result.EffectiveTime,
			NDCCodes:      result.OpenFDA.ProductNDC,
			Sections:      map[string]string{},
		}
		if len(result.OpenFDA.SPLSetID) > 0 {
			label.SetID = result.OpenFDA.SPLSetID[0]
		}
		if len(result.OpenFDA.BrandName) > 0 {
			label.Title = result.OpenFDA.BrandName[0]
		}
		if len(result.OpenFDA.ManufacturerName) > 0 {
			label.Labeler = result.OpenFDA.ManufacturerName[0]
		}

		setSection := func(name string, values []string) {
			if len(values) > 0 {
				label.Sections[name] = strings.Join(values, " ")
			}
		}
		setSection("boxed_warning", result.BoxedWarning)
		setSection("indications_and_usage", result.IndicationsAndUsage)
		setSection("dosage_and_administration", result.DosageAndAdministration)
		setSection("contraindications", result.Contraindications)
		setSection("warnings_and_precautions", result.WarningsAndCautions)
		setSection("adverse_reactions", result.AdverseReactions)
		setSection("drug_interactions", result.DrugInteractions)

		labels = append(labels, label)
	}
	return labels, nil
}
