package service

import (
	"regexp"

	"github.com/sirupsen/logrus"

	"github.com/clinical-evidence-server/internal/domain"
)

// anchorScenario associates a named clinical scenario with the keyword
// triggers that recognize it and the curated gold-standard guidelines that
// anchor it. The keyword lists are compiled into word-boundary regexes once
// at construction; per-call compilation is both slow and a place escaping
// bugs creep in.
type anchorScenario struct {
	Name       string
	Keywords   []string
	Guidelines []domain.Guideline
}

// anchorScenarios is the curated scenario table. Guideline order within a
// scenario reflects authority: society guideline first, pivotal trials after.
var anchorScenarios = []anchorScenario{
	{
		Name:     "afib_anticoagulation",
		Keywords: []string{"atrial fibrillation", "afib", "a-fib"},
		Guidelines: []domain.Guideline{
			{Name: "2023 ACC/AHA/ACCP/HRS Guideline for the Diagnosis and Management of Atrial Fibrillation", Organization: "ACC/AHA", Year: 2023, URL: "https://www.ahajournals.org/doi/10.1161/CIR.0000000000001193"},
			{Name: "ARISTOTLE: Apixaban versus Warfarin in Patients with Atrial Fibrillation", Organization: "NEJM", Year: 2011, URL: "https://www.nejm.org/doi/full/10.1056/NEJMoa1107039"},
			{Name: "ROCKET AF: Rivaroxaban versus Warfarin in Nonvalvular Atrial Fibrillation", Organization: "NEJM", Year: 2011, URL: "https://www.nejm.org/doi/full/10.1056/NEJMoa1009638"},
			{Name: "RE-LY: Dabigatran versus Warfarin in Patients with Atrial Fibrillation", Organization: "NEJM", Year: 2009, URL: "https://www.nejm.org/doi/full/10.1056/NEJMoa0905561"},
		},
	},
	{
		Name:     "anticoagulation_ckd",
		Keywords: []string{"anticoagulation renal", "doac ckd", "apixaban renal", "anticoagulant kidney", "doac renal"},
		Guidelines: []domain.Guideline{
			{Name: "KDIGO 2024 Clinical Practice Guideline for the Evaluation and Management of Chronic Kidney Disease", Organization: "KDIGO", Year: 2024, URL: "https://kdigo.org/guidelines/ckd-evaluation-and-management/"},
			{Name: "Apixaban in Patients on Hemodialysis: RENAL-AF", Organization: "AHA", Year: 2022, URL: "https://www.ahajournals.org/doi/10.1161/CIRCULATIONAHA.121.054990"},
			{Name: "2021 CHEST Guideline on Antithrombotic Therapy for VTE Disease", Organization: "CHEST", Year: 2021, URL: "https://journal.chestnet.org/article/S0012-3692(21)01506-3/fulltext"},
		},
	},
	{
		Name:     "vte_treatment",
		Keywords: []string{"pulmonary embolism", "deep vein thrombosis", "venous thromboembolism", "dvt treatment"},
		Guidelines: []domain.Guideline{
			{Name: "2021 CHEST Guideline on Antithrombotic Therapy for VTE Disease", Organization: "CHEST", Year: 2021, URL: "https://journal.chestnet.org/article/S0012-3692(21)01506-3/fulltext"},
			{Name: "EINSTEIN: Oral Rivaroxaban for Symptomatic Venous Thromboembolism", Organization: "NEJM", Year: 2010, URL: "https://www.nejm.org/doi/full/10.1056/NEJMoa1007903"},
			{Name: "AMPLIFY: Oral Apixaban for the Treatment of Acute Venous Thromboembolism", Organization: "NEJM", Year: 2013, URL: "https://www.nejm.org/doi/full/10.1056/NEJMoa1302507"},
		},
	},
	{
		Name:     "heart_failure_gdmt",
		Keywords: []string{"heart failure", "hfref", "hfpef", "guideline directed medical therapy", "gdmt"},
		Guidelines: []domain.Guideline{
			{Name: "2022 AHA/ACC/HFSA Guideline for the Management of Heart Failure", Organization: "AHA/ACC", Year: 2022, URL: "https://www.ahajournals.org/doi/10.1161/CIR.0000000000001063"},
			{Name: "DAPA-HF: Dapagliflozin in Patients with Heart Failure and Reduced Ejection Fraction", Organization: "NEJM", Year: 2019, URL: "https://www.nejm.org/doi/full/10.1056/NEJMoa1911303"},
			{Name: "PARADIGM-HF: Angiotensin-Neprilysin Inhibition versus Enalapril in Heart Failure", Organization: "NEJM", Year: 2014, URL: "https://www.nejm.org/doi/full/10.1056/NEJMoa1409077"},
		},
	},
	{
		Name:     "sepsis_bundle",
		Keywords: []string{"sepsis", "septic shock"},
		Guidelines: []domain.Guideline{
			{Name: "Surviving Sepsis Campaign: International Guidelines for Management of Sepsis and Septic Shock 2021", Organization: "SCCM/ESICM", Year: 2021, URL: "https://www.sccm.org/surviving-sepsis-campaign"},
			{Name: "ProCESS: A Randomized Trial of Protocol-Based Care for Early Septic Shock", Organization: "NEJM", Year: 2014, URL: "https://www.nejm.org/doi/full/10.1056/NEJMoa1401602"},
			{Name: "ARISE: Goal-Directed Resuscitation for Patients with Early Septic Shock", Organization: "NEJM", Year: 2014, URL: "https://www.nejm.org/doi/full/10.1056/NEJMoa1404380"},
		},
	},
	{
		Name:     "stroke_secondary_prevention",
		Keywords: []string{"stroke prevention", "secondary stroke", "tia management", "after stroke"},
		Guidelines: []domain.Guideline{
			{Name: "2021 AHA/ASA Guideline for the Prevention of Stroke in Patients with Stroke and TIA", Organization: "AHA/ASA", Year: 2021, URL: "https://www.ahajournals.org/doi/10.1161/STR.0000000000000375"},
			{Name: "POINT: Clopidogrel and Aspirin in Acute Ischemic Stroke and High-Risk TIA", Organization: "NEJM", Year: 2018, URL: "https://www.nejm.org/doi/full/10.1056/NEJMoa1800410"},
			{Name: "CHANCE: Clopidogrel with Aspirin in Acute Minor Stroke or Transient Ischemic Attack", Organization: "NEJM", Year: 2013, URL: "https://www.nejm.org/doi/full/10.1056/NEJMoa1215340"},
		},
	},
	{
		Name:     "diabetes_cardiorenal",
		Keywords: []string{"type 2 diabetes", "t2dm", "sglt2", "glp-1", "diabetes management"},
		Guidelines: []domain.Guideline{
			{Name: "ADA Standards of Care in Diabetes 2025", Organization: "ADA", Year: 2025, URL: "https://diabetesjournals.org/care/issue/48/Supplement_1"},
			{Name: "EMPA-REG OUTCOME: Empagliflozin, Cardiovascular Outcomes, and Mortality in Type 2 Diabetes", Organization: "NEJM", Year: 2015, URL: "https://www.nejm.org/doi/full/10.1056/NEJMoa1504720"},
			{Name: "LEADER: Liraglutide and Cardiovascular Outcomes in Type 2 Diabetes", Organization: "NEJM", Year: 2016, URL: "https://www.nejm.org/doi/full/10.1056/NEJMoa1603827"},
		},
	},
	{
		Name:     "hypertension_targets",
		Keywords: []string{"blood pressure target", "hypertension management", "bp goal", "antihypertensive"},
		Guidelines: []domain.Guideline{
			{Name: "2017 ACC/AHA Guideline for the Prevention, Detection, Evaluation, and Management of High Blood Pressure in Adults", Organization: "ACC/AHA", Year: 2017, URL: "https://www.ahajournals.org/doi/10.1161/HYP.0000000000000065"},
			{Name: "SPRINT: A Randomized Trial of Intensive versus Standard Blood-Pressure Control", Organization: "NEJM", Year: 2015, URL: "https://www.nejm.org/doi/full/10.1056/NEJMoa1511939"},
		},
	},
	{
		Name:     "acs_antiplatelet",
		Keywords: []string{"acute coronary syndrome", "stemi", "nstemi", "dual antiplatelet", "dapt"},
		Guidelines: []domain.Guideline{
			{Name: "2025 ACC/AHA/ACEP/NAEMSP/SCAI Guideline for the Management of Patients With Acute Coronary Syndromes", Organization: "ACC/AHA", Year: 2025, URL: "https://www.ahajournals.org/doi/10.1161/CIR.0000000000001309"},
			{Name: "PLATO: Ticagrelor versus Clopidogrel in Patients with Acute Coronary Syndromes", Organization: "NEJM", Year: 2009, URL: "https://www.nejm.org/doi/full/10.1056/NEJMoa0904327"},
			{Name: "CURE: Effects of Clopidogrel in Addition to Aspirin in Patients with Acute Coronary Syndromes", Organization: "NEJM", Year: 2001, URL: "https://www.nejm.org/doi/full/10.1056/NEJMoa010746"},
		},
	},
	{
		Name:     "cap_treatment",
		Keywords: []string{"community-acquired pneumonia", "community acquired pneumonia", "cap treatment"},
		Guidelines: []domain.Guideline{
			{Name: "ATS/IDSA Clinical Practice Guideline: Diagnosis and Treatment of Adults with Community-acquired Pneumonia", Organization: "ATS/IDSA", Year: 2019, URL: "https://www.atsjournals.org/doi/10.1164/rccm.201908-1581ST"},
		},
	},
	{
		Name:     "copd_gold",
		Keywords: []string{"copd exacerbation", "copd management", "gold criteria"},
		Guidelines: []domain.Guideline{
			{Name: "GOLD 2025 Global Strategy for Prevention, Diagnosis and Management of COPD", Organization: "GOLD", Year: 2025, URL: "https://goldcopd.org/2025-gold-report/"},
		},
	},
	{
		Name:     "asthma_gina",
		Keywords: []string{"asthma management", "asthma control", "asthma exacerbation"},
		Guidelines: []domain.Guideline{
			{Name: "GINA 2025 Global Strategy for Asthma Management and Prevention", Organization: "GINA", Year: 2025, URL: "https://ginasthma.org/2025-gina-strategy-report/"},
		},
	},
	{
		Name:     "uti_treatment",
		Keywords: []string{"urinary tract infection", "uncomplicated cystitis", "pyelonephritis"},
		Guidelines: []domain.Guideline{
			{Name: "IDSA Guidelines for the Treatment of Acute Uncomplicated Cystitis and Pyelonephritis in Women", Organization: "IDSA", Year: 2011, URL: "https://academic.oup.com/cid/article/52/5/e103/388285"},
		},
	},
	{
		Name:     "osteoporosis_treatment",
		Keywords: []string{"osteoporosis", "fragility fracture", "bisphosphonate"},
		Guidelines: []domain.Guideline{
			{Name: "AACE/ACE Clinical Practice Guidelines for the Diagnosis and Treatment of Postmenopausal Osteoporosis", Organization: "AACE", Year: 2020, URL: "https://pro.aace.com/disease-state-resources/bone-and-parathyroid"},
			{Name: "FIT: Randomised Trial of Effect of Alendronate on Risk of Fracture in Women with Existing Vertebral Fractures", Organization: "Lancet", Year: 1996, URL: "https://www.thelancet.com/journals/lancet/article/PIIS0140-6736(96)07088-2/abstract"},
		},
	},
	{
		Name:     "gi_bleed_management",
		Keywords: []string{"upper gi bleed", "gastrointestinal bleeding", "variceal bleeding", "peptic ulcer bleeding"},
		Guidelines: []domain.Guideline{
			{Name: "ACG Clinical Guideline: Upper Gastrointestinal and Ulcer Bleeding", Organization: "ACG", Year: 2021, URL: "https://journals.lww.com/ajg/fulltext/2021/05000/acg_clinical_guideline__upper_gastrointestinal_and.14.aspx"},
		},
	},
	{
		Name:     "depression_pharmacotherapy",
		Keywords: []string{"major depressive disorder", "antidepressant", "ssri choice"},
		Guidelines: []domain.Guideline{
			{Name: "APA Practice Guideline for the Treatment of Patients with Major Depressive Disorder", Organization: "APA", Year: 2010, URL: "https://psychiatryonline.org/pb/assets/raw/sitewide/practice_guidelines/guidelines/mdd.pdf"},
			{Name: "STAR*D: Acute and Longer-Term Outcomes in Depressed Outpatients Requiring One or Several Treatment Steps", Organization: "AJP", Year: 2006, URL: "https://ajp.psychiatryonline.org/doi/10.1176/ajp.2006.163.11.1905"},
		},
	},
}

// CuratedAnchorMatcher recognizes clinical scenarios in query text and
// returns their curated gold-standard guidelines. Anchor guidelines take
// precedence over general retrieval downstream.
type CuratedAnchorMatcher struct {
	scenarios []anchorScenario
	patterns  []*regexp.Regexp // parallel to scenarios
	logger    *logrus.Logger
}

// NewCuratedAnchorMatcher compiles every scenario's keyword list into a
// single word-boundary alternation at construction time.
func NewCuratedAnchorMatcher(logger *logrus.Logger) *CuratedAnchorMatcher {
	m := &CuratedAnchorMatcher{
		scenarios: anchorScenarios,
		patterns:  make([]*regexp.Regexp, len(anchorScenarios)),
		logger:    logger,
	}
	for i, s := range anchorScenarios {
		m.patterns[i] = compileKeywordPattern(s.Keywords)
	}
	return m
}

// DetectScenarios returns the names of every scenario whose keyword pattern
// matches the query, in declaration order.
func (m *CuratedAnchorMatcher) DetectScenarios(query string) []string {
	var names []string
	for i, s := range m.scenarios {
		if m.patterns[i].MatchString(query) {
			names = append(names, s.Name)
		}
	}
	return names
}

// GetGuidelines concatenates the guideline lists of every matching scenario
// and deduplicates by guideline name, first occurrence winning.
func (m *CuratedAnchorMatcher) GetGuidelines(query string) []domain.Guideline {
	seen := make(map[string]bool)
	var out []domain.Guideline
	for i, s := range m.scenarios {
		if !m.patterns[i].MatchString(query) {
			continue
		}
		for _, g := range s.Guidelines {
			if seen[g.Name] {
				continue
			}
			seen[g.Name] = true
			out = append(out, g)
		}
	}
	if m.logger != nil && len(out) > 0 {
		m.logger.WithFields(logrus.Fields{
			"anchor_guidelines": len(out),
		}).Debug("Matched anchor guideline scenarios")
	}
	return out
}
