package service

import (
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/clinical-evidence-server/internal/domain"
)

// KeywordTagExtractor maps free query text to controlled-vocabulary disease
// and decision tags by word-boundary keyword matching. All patterns are
// compiled once at construction; extraction is pure and never fails.
type KeywordTagExtractor struct {
	diseasePatterns  map[domain.DiseaseTag]*regexp.Regexp
	decisionPatterns map[domain.DecisionTag]*regexp.Regexp
	drugPatterns     map[string]*regexp.Regexp // generic name -> surface forms
	logger           *logrus.Logger
}

// diseaseKeywords maps each disease tag to its surface forms. Matching is
// case-insensitive and word-bounded, so short forms like "pe" cannot fire
// inside words like "upper".
var diseaseKeywords = map[domain.DiseaseTag][]string{
	domain.DiseaseAF:           {"atrial fibrillation", "afib", "a-fib", "af", "atrial flutter"},
	domain.DiseaseCKD:          {"chronic kidney disease", "ckd", "renal impairment", "renal insufficiency", "kidney failure", "esrd", "end-stage renal disease", "dialysis", "reduced egfr", "egfr"},
	domain.DiseaseSepsis:       {"sepsis", "septic shock", "bacteremia", "septicemia"},
	domain.DiseaseHeartFailure: {"heart failure", "chf", "hfref", "hfpef", "reduced ejection fraction", "cardiomyopathy"},
	domain.DiseaseDiabetes:     {"diabetes", "diabetic", "t2dm", "type 2 diabetes", "type 1 diabetes", "hyperglycemia", "hba1c"},
	domain.DiseaseHypertension: {"hypertension", "hypertensive", "high blood pressure", "elevated blood pressure"},
	domain.DiseasePE:           {"pulmonary embolism", "pulmonary embolus", "pe"},
	domain.DiseaseDVT:          {"deep vein thrombosis", "deep venous thrombosis", "dvt", "venous thromboembolism", "vte"},
	domain.DiseaseStroke:       {"stroke", "tia", "transient ischemic attack", "cerebrovascular accident", "cva"},
	domain.DiseasePneumonia:    {"pneumonia", "community-acquired pneumonia", "cap", "hospital-acquired pneumonia"},
	domain.DiseaseCOPD:         {"copd", "chronic obstructive pulmonary disease", "emphysema", "chronic bronchitis"},
	domain.DiseaseAsthma:       {"asthma", "asthmatic", "status asthmaticus"},
	domain.DiseaseUTI:          {"urinary tract infection", "uti", "cystitis", "pyelonephritis"},
	domain.DiseaseACS:          {"acute coronary syndrome", "acs", "myocardial infarction", "heart attack", "stemi", "nstemi", "unstable angina"},
	domain.DiseaseHyperkalemia: {"hyperkalemia", "hyperkalaemia", "high potassium", "elevated potassium"},
	domain.DiseaseOsteoporosis: {"osteoporosis", "osteopenia", "fragility fracture", "low bone density"},
	domain.DiseasePregnancy:    {"pregnancy", "pregnant", "gestational", "breastfeeding", "lactation"},
	domain.DiseaseDepression:   {"depression", "major depressive disorder", "depressive", "mdd"},
	domain.DiseaseGIBleed:      {"gi bleed", "gastrointestinal bleeding", "gi bleeding", "upper gi bleed", "melena", "hematochezia", "bleeding peptic ulcer"},
	domain.DiseaseThyroid:      {"hypothyroidism", "hyperthyroidism", "thyroid", "graves disease", "hashimoto"},
}

// decisionKeywords maps each decision tag to its surface forms. Drug names
// that imply a decision type (e.g. any anticoagulant implies an
// anticoagulation decision) are included here as well.
var decisionKeywords = map[domain.DecisionTag][]string{
	domain.DecisionAnticoagulation: {
		"anticoagulation", "anticoagulant", "anticoagulate", "blood thinner",
		"warfarin", "doac", "noac", "apixaban", "rivaroxaban", "dabigatran",
		"edoxaban", "heparin", "enoxaparin", "eliquis", "xarelto", "pradaxa",
		"coumadin", "savaysa", "lovenox",
	},
	domain.DecisionDrugChoice: {
		"which drug", "what drug", "drug of choice", "best drug", "preferred agent",
		"first-line", "first line", "second-line", "alternative to", "versus", "vs",
		"better than", "choice of therapy", "which antibiotic", "which agent",
	},
	domain.DecisionDosing: {
		"dose", "dosing", "dosage", "titrate", "titration", "renal dosing",
		"dose adjustment", "adjust the dose", "loading dose", "maintenance dose",
		"how much", "mg",
	},
	domain.DecisionDiagnosis: {
		"diagnose", "diagnosis", "diagnostic", "differential", "workup", "work-up",
		"rule out", "criteria for", "how to confirm",
	},
	domain.DecisionScreening: {
		"screening", "screen for", "early detection", "when to screen",
	},
	domain.DecisionMonitoring: {
		"monitor", "monitoring", "follow-up", "follow up", "surveillance",
		"inr", "trough", "check levels", "repeat labs",
	},
	domain.DecisionInteraction: {
		"interaction", "interact", "drug-drug", "combined with", "together with",
		"concomitant", "co-administration",
	},
	domain.DecisionContraindication: {
		"contraindicated", "contraindication", "is it safe", "safe to use",
		"avoid in", "should not be used",
	},
	domain.DecisionDuration: {
		"how long", "duration", "length of therapy", "when to stop",
		"discontinue", "continue for",
	},
	domain.DecisionProphylaxis: {
		"prophylaxis", "prophylactic", "prevention", "prevent", "preventive",
	},
}

// drugKeywords maps generic drug names to their surface forms, including
// brand names. Matches are reported under the generic name so downstream
// drug-label searches hit the label registries consistently.
var drugKeywords = map[string][]string{
	"apixaban":      {"apixaban", "eliquis"},
	"rivaroxaban":   {"rivaroxaban", "xarelto"},
	"dabigatran":    {"dabigatran", "pradaxa"},
	"edoxaban":      {"edoxaban", "savaysa"},
	"warfarin":      {"warfarin", "coumadin", "jantoven"},
	"heparin":       {"heparin"},
	"enoxaparin":    {"enoxaparin", "lovenox"},
	"aspirin":       {"aspirin", "asa"},
	"clopidogrel":   {"clopidogrel", "plavix"},
	"ticagrelor":    {"ticagrelor", "brilinta"},
	"metformin":     {"metformin", "glucophage"},
	"empagliflozin": {"empagliflozin", "jardiance"},
	"semaglutide":   {"semaglutide", "ozempic", "wegovy"},
	"insulin":       {"insulin", "lantus", "humalog"},
	"lisinopril":    {"lisinopril", "zestril", "prinivil"},
	"losartan":      {"losartan", "cozaar"},
	"amlodipine":    {"amlodipine", "norvasc"},
	"atorvastatin":  {"atorvastatin", "lipitor"},
	"furosemide":    {"furosemide", "lasix"},
	"spironolactone": {"spironolactone", "aldactone"},
	"amiodarone":    {"amiodarone", "pacerone"},
	"digoxin":       {"digoxin", "lanoxin"},
	"metoprolol":    {"metoprolol", "lopressor", "toprol"},
	"amoxicillin":   {"amoxicillin", "amoxil"},
	"ceftriaxone":   {"ceftriaxone", "rocephin"},
	"vancomycin":    {"vancomycin", "vancocin"},
	"levofloxacin":  {"levofloxacin", "levaquin"},
	"azithromycin":  {"azithromycin", "zithromax"},
	"nitrofurantoin": {"nitrofurantoin", "macrobid"},
	"sertraline":    {"sertraline", "zoloft"},
	"escitalopram":  {"escitalopram", "lexapro"},
	"levothyroxine": {"levothyroxine", "synthroid"},
	"alendronate":   {"alendronate", "fosamax"},
	"omeprazole":    {"omeprazole", "prilosec"},
	"pantoprazole":  {"pantoprazole", "protonix"},
	"prednisone":    {"prednisone"},
	"albuterol":     {"albuterol", "ventolin", "proair"},
}

// NewKeywordTagExtractor compiles all keyword families into word-boundary
// regexes. Construction is done once at startup; Extract calls only run the
// precompiled patterns.
func NewKeywordTagExtractor(logger *logrus.Logger) *KeywordTagExtractor {
	e := &KeywordTagExtractor{
		diseasePatterns:  make(map[domain.DiseaseTag]*regexp.Regexp, len(diseaseKeywords)),
		decisionPatterns: make(map[domain.DecisionTag]*regexp.Regexp, len(decisionKeywords)),
		drugPatterns:     make(map[string]*regexp.Regexp, len(drugKeywords)),
		logger:           logger,
	}
	for tag, keywords := range diseaseKeywords {
		e.diseasePatterns[tag] = compileKeywordPattern(keywords)
	}
	for tag, keywords := range decisionKeywords {
		e.decisionPatterns[tag] = compileKeywordPattern(keywords)
	}
	for generic, forms := range drugKeywords {
		e.drugPatterns[generic] = compileKeywordPattern(forms)
	}
	return e
}

// compileKeywordPattern builds one case-insensitive, word-bounded
// alternation for a keyword family. Keywords are quoted so punctuation in
// surface forms (e.g. "a-fib") cannot change the pattern's meaning.
func compileKeywordPattern(keywords []string) *regexp.Regexp {
	quoted := make([]string, len(keywords))
	for i, kw := range keywords {
		quoted[i] = regexp.QuoteMeta(kw)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Extract returns the deduplicated tag sets for a query. Multiple keyword
// families may fire; all matches are unioned. Output ordering is sorted for
// determinism.
func (e *KeywordTagExtractor) Extract(query string) *domain.TagResult {
	result := &domain.TagResult{
		DiseaseTags:  []domain.DiseaseTag{},
		DecisionTags: []domain.DecisionTag{},
		DrugKeywords: []string{},
	}
	if strings.TrimSpace(query) == "" {
		return result
	}

	for tag, pattern := range e.diseasePatterns {
		if pattern.MatchString(query) {
			result.DiseaseTags = append(result.DiseaseTags, tag)
		}
	}
	for tag, pattern := range e.decisionPatterns {
		if pattern.MatchString(query) {
			result.DecisionTags = append(result.DecisionTags, tag)
		}
	}
	for generic, pattern := range e.drugPatterns {
		if pattern.MatchString(query) {
			result.DrugKeywords = append(result.DrugKeywords, generic)
		}
	}

	sort.Slice(result.DiseaseTags, func(i, j int) bool { return result.DiseaseTags[i] < result.DiseaseTags[j] })
	sort.Slice(result.DecisionTags, func(i, j int) bool { return result.DecisionTags[i] < result.DecisionTags[j] })
	sort.Strings(result.DrugKeywords)

	if e.logger != nil {
		e.logger.WithFields(logrus.Fields{
			"disease_tags":  result.DiseaseTags,
			"decision_tags": result.DecisionTags,
			"drug_keywords": result.DrugKeywords,
		}).Debug("Extracted query tags")
	}
	return result
}
