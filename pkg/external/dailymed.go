package external

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/clinical-evidence-server/internal/domain"
)

// splSectionNames maps SPL section LOINC codes to the clinically relevant
// label sections the pipeline extracts. Sections outside this map are
// ignored.
var splSectionNames = map[string]string{
	"34066-1": "boxed_warning",
	"34067-9": "indications_and_usage",
	"34068-7": "dosage_and_administration",
	"34070-3": "contraindications",
	"43685-7": "warnings_and_precautions",
	"34084-4": "adverse_reactions",
	"34073-7": "drug_interactions",
	"43684-0": "use_in_specific_populations",
}

// DailyMedAdapter retrieves structured product labels from the NLM DailyMed
// API. It only runs for queries that name a drug: the registry is searched
// by drug name, not free text.
type DailyMedAdapter struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxLabels  int
}

// DailyMedConfig contains configuration for the DailyMed adapter.
type DailyMedConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit int
	MaxLabels int // labels per drug keyword
}

func NewDailyMedAdapter(config DailyMedConfig) *DailyMedAdapter {
	if config.BaseURL == "" {
		config.BaseURL = "https://dailymed.nlm.nih.gov/dailymed/services/v2/"
	}
	if config.RateLimit == 0 {
		config.RateLimit = 5
	}
	if config.Timeout == 0 {
		config.Timeout = 20 * time.Second
	}
	if config.MaxLabels == 0 {
		config.MaxLabels = 1
	}
	return &DailyMedAdapter{
		baseURL:    config.BaseURL,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		maxLabels:  config.MaxLabels,
	}
}

func (a *DailyMedAdapter) Source() domain.SourceType {
	return domain.SourceDailyMed
}

type dailyMedSearchResponse struct {
	Data []struct {
		SetID         string `json:"setid"`
		Title         string `json:"title"`
		PublishedDate string `json:"published_date"`
	} `json:"data"`
}

type splDocument struct {
	XMLName   xml.Name `xml:"document"`
	Component struct {
		StructuredBody struct {
			Components []struct {
				Section splSection `xml:"section"`
			} `xml:"component"`
		} `xml:"structuredBody"`
	} `xml:"component"`
}

type splSection struct {
	Code struct {
		Code string `xml:"code,attr"`
	} `xml:"code"`
	Text        splText `xml:"text"`
	Subsections []struct {
		Section splSection `xml:"section"`
	} `xml:"component"`
}

type splText struct {
	Content string `xml:",innerxml"`
}

func (a *DailyMedAdapter) Fetch(ctx context.Context, req FetchRequest) (*domain.EvidencePackage, error) {
	pkg := domain.NewEvidencePackage()
	if len(req.DrugKeywords) == 0 {
		return pkg, nil
	}

	for _, drug := range req.DrugKeywords {
		labels, err := a.fetchLabelsForDrug(ctx, drug)
		if err != nil {
			return nil, fmt.Errorf("fetching dailymed labels for %s: %w", drug, err)
		}
		pkg.DrugLabels = append(pkg.DrugLabels, labels...)
	}
	return pkg, nil
}

func (a *DailyMedAdapter) fetchLabelsForDrug(ctx context.Context, drug string) ([]domain.DrugLabel, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"drug_name": {drug},
		"page_size": {fmt.Sprintf("%d", a.maxLabels)},
	}

	body, err := a.get(ctx, a.baseURL+"spls.json?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var search dailyMedSearchResponse
	if err := json.Unmarshal(body, &search); err != nil {
		return nil, fmt.Errorf("parsing spl search response: %w", err)
	}

	var labels []domain.DrugLabel
	for _, entry := range search.Data {
		label := domain.DrugLabel{
			SetID:         entry.SetID,
			DrugName:      drug,
			Title:         entry.Title,
			PublishedDate: entry.PublishedDate,
			URL:           "https://dailymed.nlm.nih.gov/dailymed/drugInfo.cfm?setid=" + entry.SetID,
		}

		sections, err := a.fetchLabelSections(ctx, entry.SetID)
		if err != nil {
			// A label whose SPL document cannot be parsed still carries
			// its title and link.
			sections = map[string]string{}
		}
		label.Sections = sections
		labels = append(labels, label)
	}
	return labels, nil
}

// fetchLabelSections downloads the SPL XML and extracts the sections named
// in splSectionNames, walking nested subsections.
func (a *DailyMedAdapter) fetchLabelSections(ctx context.Context, setID string) (map[string]string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := a.get(ctx, a.baseURL+"spls/"+setID+".xml")
	if err != nil {
		return nil, err
	}

	var doc splDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parsing spl document: %w", err)
	}

	sections := make(map[string]string)
	for _, component := range doc.Component.StructuredBody.Components {
		collectSections(component.Section, sections)
	}
	return sections, nil
}

func collectSections(section splSection, out map[string]string) {
	if name, ok := splSectionNames[section.Code.Code]; ok {
		if text := stripSPLMarkup(section.Text.Content); text != "" {
			out[name] = text
		}
	}
	for _, sub := range section.Subsections {
		collectSections(sub.Section, out)
	}
}

// stripSPLMarkup flattens SPL inline XML to plain text.
func stripSPLMarkup(content string) string {
	var b strings.Builder
	inTag := false
	for _, r := range content {
		switch {
		case r == '<':
			inTag = true
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func (a *DailyMedAdapter) get(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dailymed returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
