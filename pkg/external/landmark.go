package external

import (
	"context"
	"strings"

	"github.com/clinical-evidence-server/internal/domain"
)

// landmarkEntry pairs a curated pivotal trial with the lowercase keywords
// that make it relevant to a query.
type landmarkEntry struct {
	Keywords []string
	Trial    domain.LandmarkTrial
}

var landmarkTrials = []landmarkEntry{
	{
		Keywords: []string{"atrial fibrillation", "afib", "apixaban", "eliquis"},
		Trial: domain.LandmarkTrial{
			Name: "ARISTOTLE", Condition: "Atrial fibrillation", Year: 2011,
			Finding: "Apixaban was superior to warfarin for stroke prevention with less bleeding.",
			PMID:    "21870978", URL: "https://pubmed.ncbi.nlm.nih.gov/21870978/",
		},
	},
	{
		Keywords: []string{"atrial fibrillation", "afib", "rivaroxaban", "xarelto"},
		Trial: domain.LandmarkTrial{
			Name: "ROCKET AF", Condition: "Atrial fibrillation", Year: 2011,
			Finding: "Rivaroxaban was noninferior to warfarin for stroke or systemic embolism.",
			PMID:    "21830957", URL: "https://pubmed.ncbi.nlm.nih.gov/21830957/",
		},
	},
	{
		Keywords: []string{"atrial fibrillation", "afib", "dabigatran", "pradaxa"},
		Trial: domain.LandmarkTrial{
			Name: "RE-LY", Condition: "Atrial fibrillation", Year: 2009,
			Finding: "Dabigatran 150 mg reduced stroke versus warfarin with similar major bleeding.",
			PMID:    "19717844", URL: "https://pubmed.ncbi.nlm.nih.gov/19717844/",
		},
	},
	{
		Keywords: []string{"venous thromboembolism", "vte", "dvt", "pulmonary embolism", "apixaban"},
		Trial: domain.LandmarkTrial{
			Name: "AMPLIFY", Condition: "Acute venous thromboembolism", Year: 2013,
			Finding: "Apixaban was noninferior to conventional therapy with significantly less bleeding.",
			PMID:    "23808982", URL: "https://pubmed.ncbi.nlm.nih.gov/23808982/",
		},
	},
	{
		Keywords: []string{"heart failure", "hfref", "dapagliflozin", "sglt2"},
		Trial: domain.LandmarkTrial{
			Name: "DAPA-HF", Condition: "Heart failure with reduced ejection fraction", Year: 2019,
			Finding: "Dapagliflozin reduced worsening heart failure and cardiovascular death regardless of diabetes status.",
			PMID:    "31535829", URL: "https://pubmed.ncbi.nlm.nih.gov/31535829/",
		},
	},
	{
		Keywords: []string{"heart failure", "hfref", "sacubitril", "entresto"},
		Trial: domain.LandmarkTrial{
			Name: "PARADIGM-HF", Condition: "Heart failure with reduced ejection fraction", Year: 2014,
			Finding: "Sacubitril/valsartan reduced cardiovascular death and heart failure hospitalization versus enalapril.",
			PMID:    "25176015", URL: "https://pubmed.ncbi.nlm.nih.gov/25176015/",
		},
	},
	{
		Keywords: []string{"hypertension", "blood pressure target", "intensive blood pressure"},
		Trial: domain.LandmarkTrial{
			Name: "SPRINT", Condition: "Hypertension", Year: 2015,
			Finding: "Intensive SBP control below 120 mmHg reduced cardiovascular events and mortality.",
			PMID:    "26551272", URL: "https://pubmed.ncbi.nlm.nih.gov/26551272/",
		},
	},
	{
		Keywords: []string{"type 2 diabetes", "t2dm", "empagliflozin", "jardiance"},
		Trial: domain.LandmarkTrial{
			Name: "EMPA-REG OUTCOME", Condition: "Type 2 diabetes with cardiovascular disease", Year: 2015,
			Finding: "Empagliflozin reduced cardiovascular and all-cause mortality.",
			PMID:    "26378978", URL: "https://pubmed.ncbi.nlm.nih.gov/26378978/",
		},
	},
	{
		Keywords: []string{"acute coronary syndrome", "acs", "ticagrelor", "brilinta"},
		Trial: domain.LandmarkTrial{
			Name: "PLATO", Condition: "Acute coronary syndrome", Year: 2009,
			Finding: "Ticagrelor reduced vascular death, MI or stroke versus clopidogrel.",
			PMID:    "19717846", URL: "https://pubmed.ncbi.nlm.nih.gov/19717846/",
		},
	},
	{
		Keywords: []string{"stroke", "tia", "clopidogrel", "dual antiplatelet"},
		Trial: domain.LandmarkTrial{
			Name: "POINT", Condition: "Minor stroke and high-risk TIA", Year: 2018,
			Finding: "Clopidogrel plus aspirin reduced ischemic events but increased major hemorrhage.",
			PMID:    "29766750", URL: "https://pubmed.ncbi.nlm.nih.gov/29766750/",
		},
	},
	{
		Keywords: []string{"sepsis", "septic shock", "early goal-directed"},
		Trial: domain.LandmarkTrial{
			Name: "ProCESS", Condition: "Septic shock", Year: 2014,
			Finding: "Protocol-based EGDT did not improve outcomes versus usual care.",
			PMID:    "24635773", URL: "https://pubmed.ncbi.nlm.nih.gov/24635773/",
		},
	},
	{
		Keywords: []string{"osteoporosis", "alendronate", "fragility fracture"},
		Trial: domain.LandmarkTrial{
			Name: "FIT", Condition: "Postmenopausal osteoporosis", Year: 1996,
			Finding: "Alendronate reduced vertebral and hip fracture risk in women with prior vertebral fracture.",
			PMID:    "8950879", URL: "https://pubmed.ncbi.nlm.nih.gov/8950879/",
		},
	},
}

// LandmarkTrialAdapter serves a curated, in-process table of pivotal trials.
// It performs no I/O; the Fetch signature matches the other sources so the
// gatherer treats it uniformly.
type LandmarkTrialAdapter struct {
	entries []landmarkEntry
}

func NewLandmarkTrialAdapter() *LandmarkTrialAdapter {
	return &LandmarkTrialAdapter{entries: landmarkTrials}
}

func (a *LandmarkTrialAdapter) Source() domain.SourceType {
	return domain.SourceLandmarkTrials
}

// Fetch returns every curated trial with at least one keyword present in the
// query or the extracted drug keywords, deduplicated by trial name.
func (a *LandmarkTrialAdapter) Fetch(ctx context.Context, req FetchRequest) (*domain.EvidencePackage, error) {
	haystack := strings.ToLower(req.Query)
	for _, drug := range req.DrugKeywords {
		haystack += " " + strings.ToLower(drug)
	}

	pkg := domain.NewEvidencePackage()
	seen := make(map[string]bool)
	for _, entry := range a.entries {
		if seen[entry.Trial.Name] {
			continue
		}
		for _, keyword := range entry.Keywords {
			if strings.Contains(haystack, keyword) {
				pkg.LandmarkTrials = append(pkg.LandmarkTrials, entry.Trial)
				seen[entry.Trial.Name] = true
				break
			}
		}
	}
	return pkg, nil
}
