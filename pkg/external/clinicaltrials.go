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

// ClinicalTrialsAdapter queries the ClinicalTrials.gov v2 API for registered
// studies matching the query.
type ClinicalTrialsAdapter struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxResults int
}

// ClinicalTrialsConfig contains configuration for the trial registry adapter.
type ClinicalTrialsConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  int
	MaxResults int
}

func NewClinicalTrialsAdapter(config ClinicalTrialsConfig) *ClinicalTrialsAdapter {
	if config.BaseURL == "" {
		config.BaseURL = "https://clinicaltrials.gov/api/v2/"
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
	return &ClinicalTrialsAdapter{
		baseURL:    config.BaseURL,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		maxResults: config.MaxResults,
	}
}

func (a *ClinicalTrialsAdapter) Source() domain.SourceType {
	return domain.SourceClinicalTrials
}

type ctgovResponse struct {
	Studies []struct {
		HasResults      bool `json:"hasResults"`
		ProtocolSection struct {
			IdentificationModule struct {
				NCTID      string `json:"nctId"`
				BriefTitle string `json:"briefTitle"`
			} `json:"identificationModule"`
			DescriptionModule struct {
				BriefSummary string `json:"briefSummary"`
			} `json:"descriptionModule"`
			DesignModule struct {
				Phases []string `json:"phases"`
			} `json:"designModule"`
			StatusModule struct {
				OverallStatus   string `json:"overallStatus"`
				StartDateStruct struct {
					Date string `json:"date"`
				} `json:"startDateStruct"`
			} `json:"statusModule"`
			ConditionsModule struct {
				Conditions []string `json:"conditions"`
			} `json:"conditionsModule"`
			ArmsInterventionsModule struct {
				Interventions []struct {
					Name string `json:"name"`
				} `json:"interventions"`
			} `json:"armsInterventionsModule"`
		} `json:"protocolSection"`
	} `json:"studies"`
}

func (a *ClinicalTrialsAdapter) Fetch(ctx context.Context, req FetchRequest) (*domain.EvidencePackage, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"query.term": {req.Query},
		"pageSize":   {strconv.Itoa(a.maxResults)},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"studies?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating clinicaltrials request: %w", err)
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing clinicaltrials request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("clinicaltrials returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading clinicaltrials response: %w", err)
	}

	var response ctgovResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("parsing clinicaltrials response: %w", err)
	}

	pkg := domain.NewEvidencePackage()
	for _, study := range response.Studies {
		protocol := study.ProtocolSection
		record := domain.ClinicalTrialRecord{
			NCTID:      protocol.IdentificationModule.NCTID,
			Title:      protocol.IdentificationModule.BriefTitle,
			Summary:    protocol.DescriptionModule.BriefSummary,
			Status:     protocol.StatusModule.OverallStatus,
			HasResults: study.HasResults,
			Conditions: protocol.ConditionsModule.Conditions,
			URL:        "https://clinicaltrials.gov/study/" + protocol.IdentificationModule.NCTID,
		}
		if len(protocol.DesignModule.Phases) > 0 {
			record.Phase = protocol.DesignModule.Phases[len(protocol.DesignModule.Phases)-1]
		}
		for _, intervention := range protocol.ArmsInterventionsModule.Interventions {
			record.Interventions = append(record.Interventions, intervention.Name)
		}
		// Registry dates are "YYYY-MM" or "YYYY-MM-DD".
		if date := protocol.StatusModule.StartDateStruct.Date; len(date) >= 4 {
			if year, err := strconv.Atoi(date[:4]); err == nil {
				record.Year = year
			}
		}
		pkg.ClinicalTrials = append(pkg.ClinicalTrials, record)
	}
	return pkg, nil
}
