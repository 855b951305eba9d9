package domain

import "strings"

// SourceType names an external evidence provider.
type SourceType string

const (
	SourcePubMed         SourceType = "pubmed"
	SourceEuropePMC      SourceType = "europepmc"
	SourceCochrane       SourceType = "cochrane"
	SourceSystematic     SourceType = "systematic_reviews"
	SourceClinicalTrials SourceType = "clinicaltrials"
	SourceDailyMed       SourceType = "dailymed"
	SourceOpenFDA        SourceType = "openfda"
	SourceWHO            SourceType = "who"
	SourceCDC            SourceType = "cdc"
	SourceNICE           SourceType = "nice"
	SourceUSPSTF         SourceType = "uspstf"
	SourceGuidelines     SourceType = "guidelines"
	SourceLandmarkTrials SourceType = "landmark_trials"
	SourceAnchor         SourceType = "anchor_guidelines"
	SourceWebSearch      SourceType = "websearch"
)

// PubMedArticle is a literature citation from PubMed or Europe PMC.
type PubMedArticle struct {
	PMID      string   `json:"pmid,omitempty"`
	PMCID     string   `json:"pmcid,omitempty"`
	DOI       string   `json:"doi,omitempty"`
	Title     string   `json:"title"`
	Abstract  string   `json:"abstract,omitempty"`
	Authors   []string `json:"authors,omitempty"`
	Journal   string   `json:"journal,omitempty"`
	Year      int      `json:"year,omitempty"`
	MeshTerms []string `json:"mesh_terms,omitempty"`
	URL       string   `json:"url,omitempty"`
}

// SearchText returns the concatenated free text used for exclusion filtering.
func (a PubMedArticle) SearchText() string {
	return a.Title + " " + a.Abstract
}

// IndexedTerms returns the controlled-vocabulary terms attached to the item.
func (a PubMedArticle) IndexedTerms() []string {
	return a.MeshTerms
}

// CochraneReview is a gold-standard systematic review from the Cochrane
// Database of Systematic Reviews.
type CochraneReview struct {
	Title     string   `json:"title"`
	Summary   string   `json:"summary,omitempty"`
	DOI       string   `json:"doi,omitempty"`
	PMID      string   `json:"pmid,omitempty"`
	Authors   []string `json:"authors,omitempty"`
	Year      int      `json:"year,omitempty"`
	MeshTerms []string `json:"mesh_terms,omitempty"`
	URL       string   `json:"url,omitempty"`
}

// SearchText returns the concatenated free text used for exclusion filtering.
func (r CochraneReview) SearchText() string {
	return r.Title + " " + r.Summary
}

// IndexedTerms returns the controlled-vocabulary terms attached to the item.
func (r CochraneReview) IndexedTerms() []string {
	return r.MeshTerms
}

// SystematicReview is a non-Cochrane systematic review or meta-analysis.
type SystematicReview struct {
	Title    string `json:"title"`
	Abstract string `json:"abstract,omitempty"`
	DOI      string `json:"doi,omitempty"`
	PMID     string `json:"pmid,omitempty"`
	Journal  string `json:"journal,omitempty"`
	Year     int    `json:"year,omitempty"`
	URL      string `json:"url,omitempty"`
}

// SearchText returns the concatenated free text used for exclusion filtering.
func (r SystematicReview) SearchText() string {
	return r.Title + " " + r.Abstract
}

// ClinicalTrialRecord is a registered study from ClinicalTrials.gov.
type ClinicalTrialRecord struct {
	NCTID         string   `json:"nct_id"`
	Title         string   `json:"title"`
	Summary       string   `json:"summary,omitempty"`
	Phase         string   `json:"phase,omitempty"`
	Status        string   `json:"status,omitempty"`
	HasResults    bool     `json:"has_results"`
	Conditions    []string `json:"conditions,omitempty"`
	Interventions []string `json:"interventions,omitempty"`
	Year          int      `json:"year,omitempty"`
	URL           string   `json:"url,omitempty"`
}

// SearchText returns the concatenated free text used for exclusion filtering.
func (t ClinicalTrialRecord) SearchText() string {
	return t.Title + " " + t.Summary
}

// Guideline is a clinical practice guideline or recommendation statement.
type Guideline struct {
	Name           string `json:"name"`
	Organization   string `json:"organization,omitempty"`
	Year           int    `json:"year,omitempty"`
	Summary        string `json:"summary,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
	URL            string `json:"url,omitempty"`
}

// SearchText returns the concatenated free text used for exclusion filtering.
func (g Guideline) SearchText() string {
	return g.Name + " " + g.Summary + " " + g.Recommendation
}

// LandmarkTrial is a curated pivotal trial pre-associated with a clinical
// scenario (e.g. ARISTOTLE for apixaban in AF).
type LandmarkTrial struct {
	Name      string `json:"name"`
	Condition string `json:"condition"`
	Year      int    `json:"year,omitempty"`
	Finding   string `json:"finding,omitempty"`
	PMID      string `json:"pmid,omitempty"`
	URL       string `json:"url,omitempty"`
}

// SearchText returns the concatenated free text used for exclusion filtering.
func (l LandmarkTrial) SearchText() string {
	return l.Name + " " + l.Condition + " " + l.Finding
}

// DrugLabel is a structured product label from DailyMed or openFDA.
type DrugLabel struct {
	SetID         string            `json:"set_id,omitempty"`
	DrugName      string            `json:"drug_name"`
	Title         string            `json:"title,omitempty"`
	Labeler       string            `json:"labeler,omitempty"`
	PublishedDate string            `json:"published_date,omitempty"`
	NDCCodes      []string          `json:"ndc_codes,omitempty"`
	Sections      map[string]string `json:"sections,omitempty"`
	URL           string            `json:"url,omitempty"`
}

// SearchText returns the concatenated free text used for exclusion filtering.
func (d DrugLabel) SearchText() string {
	var b strings.Builder
	b.WriteString(d.Title)
	for _, s := range d.Sections {
		b.WriteString(" ")
		b.WriteString(s)
	}
	return b.String()
}

// WebCitation is a result from the general web-search fallback provider.
type WebCitation struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
	Domain  string `json:"domain,omitempty"`
}

// SearchText returns the concatenated free text used for exclusion filtering.
func (w WebCitation) SearchText() string {
	return w.Title + " " + w.Snippet
}

// EvidencePackage aggregates the results of one gather pass, one named array
// per source type. Absence of evidence is always an empty array, never nil,
// so downstream counting logic never null-checks. Each field is populated
// independently; a source failure leaves its field empty rather than
// aborting the package.
type EvidencePackage struct {
	PubMedArticles         []PubMedArticle       `json:"pubmed_articles"`
	EuropePMCArticles      []PubMedArticle       `json:"europepmc_articles"`
	CochraneReviews        []CochraneReview      `json:"cochrane_reviews"`
	SystematicReviews      []SystematicReview    `json:"systematic_reviews"`
	ClinicalTrials         []ClinicalTrialRecord `json:"clinical_trials"`
	Guidelines             []Guideline           `json:"guidelines"`
	WHOGuidelines          []Guideline           `json:"who_guidelines"`
	CDCGuidance            []Guideline           `json:"cdc_guidance"`
	NICEGuidelines         []Guideline           `json:"nice_guidelines"`
	USPSTFRecommendations  []Guideline           `json:"uspstf_recommendations"`
	AnchorGuidelines       []Guideline           `json:"anchor_guidelines"`
	LandmarkTrials         []LandmarkTrial       `json:"landmark_trials"`
	DrugLabels             []DrugLabel           `json:"drug_labels"`
	FDALabels              []DrugLabel           `json:"fda_labels"`
	WebResults             []WebCitation         `json:"web_results"`
}

// NewEvidencePackage returns a package with every field initialized to an
// empty array.
func NewEvidencePackage() *EvidencePackage {
	return &EvidencePackage{
		PubMedArticles:        []PubMedArticle{},
		EuropePMCArticles:     []PubMedArticle{},
		CochraneReviews:       []CochraneReview{},
		SystematicReviews:     []SystematicReview{},
		ClinicalTrials:        []ClinicalTrialRecord{},
		Guidelines:            []Guideline{},
		WHOGuidelines:         []Guideline{},
		CDCGuidance:           []Guideline{},
		NICEGuidelines:        []Guideline{},
		USPSTFRecommendations: []Guideline{},
		AnchorGuidelines:      []Guideline{},
		LandmarkTrials:        []LandmarkTrial{},
		DrugLabels:            []DrugLabel{},
		FDALabels:             []DrugLabel{},
		WebResults:            []WebCitation{},
	}
}

// Merge appends every field of other into p. Used by the gatherer to fold
// per-source fragments into the aggregate package.
func (p *EvidencePackage) Merge(other *EvidencePackage) {
	if other == nil {
		return
	}
	p.PubMedArticles = append(p.PubMedArticles, other.PubMedArticles...)
	p.EuropePMCArticles = append(p.EuropePMCArticles, other.EuropePMCArticles...)
	p.CochraneReviews = append(p.CochraneReviews, other.CochraneReviews...)
	p.SystematicReviews = append(p.SystematicReviews, other.SystematicReviews...)
	p.ClinicalTrials = append(p.ClinicalTrials, other.ClinicalTrials...)
	p.Guidelines = append(p.Guidelines, other.Guidelines...)
	p.WHOGuidelines = append(p.WHOGuidelines, other.WHOGuidelines...)
	p.CDCGuidance = append(p.CDCGuidance, other.CDCGuidance...)
	p.NICEGuidelines = append(p.NICEGuidelines, other.NICEGuidelines...)
	p.USPSTFRecommendations = append(p.USPSTFRecommendations, other.USPSTFRecommendations...)
	p.AnchorGuidelines = append(p.AnchorGuidelines, other.AnchorGuidelines...)
	p.LandmarkTrials = append(p.LandmarkTrials, other.LandmarkTrials...)
	p.DrugLabels = append(p.DrugLabels, other.DrugLabels...)
	p.FDALabels = append(p.FDALabels, other.FDALabels...)
	p.WebResults = append(p.WebResults, other.WebResults...)
}

// Clone returns a copy of the package whose arrays can be replaced without
// mutating the original. Item structs are shared; filtering builds new
// arrays, never mutates items in place.
func (p *EvidencePackage) Clone() *EvidencePackage {
	c := *p
	c.PubMedArticles = append([]PubMedArticle{}, p.PubMedArticles...)
	c.EuropePMCArticles = append([]PubMedArticle{}, p.EuropePMCArticles...)
	c.CochraneReviews = append([]CochraneReview{}, p.CochraneReviews...)
	c.SystematicReviews = append([]SystematicReview{}, p.SystematicReviews...)
	c.ClinicalTrials = append([]ClinicalTrialRecord{}, p.ClinicalTrials...)
	c.Guidelines = append([]Guideline{}, p.Guidelines...)
	c.WHOGuidelines = append([]Guideline{}, p.WHOGuidelines...)
	c.CDCGuidance = append([]Guideline{}, p.CDCGuidance...)
	c.NICEGuidelines = append([]Guideline{}, p.NICEGuidelines...)
	c.USPSTFRecommendations = append([]Guideline{}, p.USPSTFRecommendations...)
	c.AnchorGuidelines = append([]Guideline{}, p.AnchorGuidelines...)
	c.LandmarkTrials = append([]LandmarkTrial{}, p.LandmarkTrials...)
	c.DrugLabels = append([]DrugLabel{}, p.DrugLabels...)
	c.FDALabels = append([]DrugLabel{}, p.FDALabels...)
	c.WebResults = append([]WebCitation{}, p.WebResults...)
	return &c
}

// TotalCount returns the number of evidence items across all fields.
func (p *EvidencePackage) TotalCount() int {
	return len(p.PubMedArticles) + len(p.EuropePMCArticles) +
		len(p.CochraneReviews) + len(p.SystematicReviews) +
		len(p.ClinicalTrials) + len(p.Guidelines) + len(p.WHOGuidelines) +
		len(p.CDCGuidance) + len(p.NICEGuidelines) +
		len(p.USPSTFRecommendations) + len(p.AnchorGuidelines) +
		len(p.LandmarkTrials) + len(p.DrugLabels) + len(p.FDALabels) +
		len(p.WebResults)
}

// AllGuidelines returns every guideline-like item across the
// guideline-bearing fields, in field declaration order. Used by the
// conflict detector and the validator.
func (p *EvidencePackage) AllGuidelines() []Guideline {
	out := make([]Guideline, 0,
		len(p.Guidelines)+len(p.WHOGuidelines)+len(p.CDCGuidance)+
			len(p.NICEGuidelines)+len(p.USPSTFRecommendations)+len(p.AnchorGuidelines))
	out = append(out, p.Guidelines...)
	out = append(out, p.WHOGuidelines...)
	out = append(out, p.CDCGuidance...)
	out = append(out, p.NICEGuidelines...)
	out = append(out, p.USPSTFRecommendations...)
	out = append(out, p.AnchorGuidelines...)
	return out
}

// GuidelineCount returns the number of guideline-like items.
func (p *EvidencePackage) GuidelineCount() int {
	return len(p.Guidelines) + len(p.WHOGuidelines) + len(p.CDCGuidance) +
		len(p.NICEGuidelines) + len(p.USPSTFRecommendations) + len(p.AnchorGuidelines)
}

// TrialsWithResults returns the number of registered trials that have posted
// results.
func (p *EvidencePackage) TrialsWithResults() int {
	n := 0
	for _, t := range p.ClinicalTrials {
		if t.HasResults {
			n++
		}
	}
	return n
}

// RecentArticleCount returns the number of literature citations published in
// the last yearsBack years relative to currentYear.
func (p *EvidencePackage) RecentArticleCount(currentYear, yearsBack int) int {
	cutoff := currentYear - yearsBack
	n := 0
	for _, a := range p.PubMedArticles {
		if a.Year >= cutoff {
			n++
		}
	}
	for _, a := range p.EuropePMCArticles {
		if a.Year >= cutoff {
			n++
		}
	}
	return n
}

// HasIdentifier reports whether the given PMID, DOI or NCT identifier
// appears anywhere in the package. Used by the validator to detect possibly
// fabricated citations.
func (p *EvidencePackage) HasIdentifier(id string) bool {
	id = strings.TrimSpace(strings.ToLower(id))
	if id == "" {
		return false
	}
	match := func(candidates ...string) bool {
		for _, c := range candidates {
			if c != "" && strings.ToLower(c) == id {
				return true
			}
		}
		return false
	}
	for _, a := range p.PubMedArticles {
		if match(a.PMID, a.DOI, a.PMCID) {
			return true
		}
	}
	for _, a := range p.EuropePMCArticles {
		if match(a.PMID, a.DOI, a.PMCID) {
			return true
		}
	}
	for _, r := range p.CochraneReviews {
		if match(r.PMID, r.DOI) {
			return true
		}
	}
	for _, r := range p.SystematicReviews {
		if match(r.PMID, r.DOI) {
			return true
		}
	}
	for _, t := range p.ClinicalTrials {
		if match(t.NCTID) {
			return true
		}
	}
	for _, l := range p.LandmarkTrials {
		if match(l.PMID) {
			return true
		}
	}
	return false
}
