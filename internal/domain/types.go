// Package domain contains core business entities and types for clinical
// evidence classification and retrieval orchestration: controlled-vocabulary
// tags, query classifications, intents, and evidence sufficiency levels.
package domain

// DiseaseTag is a controlled-vocabulary label identifying the clinical
// condition a query is about. Tags are pure values: deduplicated, unordered,
// and comparable by string equality.
type DiseaseTag string

const (
	DiseaseAF           DiseaseTag = "AF"
	DiseaseCKD          DiseaseTag = "CKD"
	DiseaseSepsis       DiseaseTag = "SEPSIS"
	DiseaseHeartFailure DiseaseTag = "HF"
	DiseaseDiabetes     DiseaseTag = "DM"
	DiseaseHypertension DiseaseTag = "HTN"
	DiseasePE           DiseaseTag = "PE"
	DiseaseDVT          DiseaseTag = "DVT"
	DiseaseStroke       DiseaseTag = "STROKE"
	DiseasePneumonia    DiseaseTag = "PNEUMONIA"
	DiseaseCOPD         DiseaseTag = "COPD"
	DiseaseAsthma       DiseaseTag = "ASTHMA"
	DiseaseUTI          DiseaseTag = "UTI"
	DiseaseACS          DiseaseTag = "ACS"
	DiseaseHyperkalemia DiseaseTag = "HYPERKALEMIA"
	DiseaseOsteoporosis DiseaseTag = "OSTEOPOROSIS"
	DiseasePregnancy    DiseaseTag = "PREGNANCY"
	DiseaseDepression   DiseaseTag = "DEPRESSION"
	DiseaseGIBleed      DiseaseTag = "GI_BLEED"
	DiseaseThyroid      DiseaseTag = "THYROID"
)

// DecisionTag is a controlled-vocabulary label identifying the type of
// clinical decision being asked about.
type DecisionTag string

const (
	DecisionAnticoagulation  DecisionTag = "anticoagulation"
	DecisionDrugChoice       DecisionTag = "drug_choice"
	DecisionDosing           DecisionTag = "dosing"
	DecisionDiagnosis        DecisionTag = "diagnosis"
	DecisionScreening        DecisionTag = "screening"
	DecisionMonitoring       DecisionTag = "monitoring"
	DecisionInteraction      DecisionTag = "interaction"
	DecisionContraindication DecisionTag = "contraindication"
	DecisionDuration         DecisionTag = "duration"
	DecisionProphylaxis      DecisionTag = "prophylaxis"
)

// TagResult holds the deduplicated tag sets extracted from a query.
type TagResult struct {
	DiseaseTags  []DiseaseTag `json:"disease_tags"`
	DecisionTags []DecisionTag `json:"decision_tags"`
	DrugKeywords []string     `json:"drug_keywords"`
}

// HasDisease reports whether the result contains the given disease tag.
func (t *TagResult) HasDisease(tag DiseaseTag) bool {
	for _, d := range t.DiseaseTags {
		if d == tag {
			return true
		}
	}
	return false
}

// HasDecision reports whether the result contains the given decision tag.
func (t *TagResult) HasDecision(tag DecisionTag) bool {
	for _, d := range t.DecisionTags {
		if d == tag {
			return true
		}
	}
	return false
}

// QueryClass identifies one of the named classification paths a query can
// resolve to. ClassGeneral is the safe fallback when no rule matches.
type QueryClass string

const (
	ClassGeneral QueryClass = "general"

	ClassAfibAnticoagulation  QueryClass = "cardiology/afib_anticoagulation"
	ClassAnticoagulation      QueryClass = "cardiology/anticoagulation"
	ClassHeartFailure         QueryClass = "cardiology/heart_failure"
	ClassACSManagement        QueryClass = "cardiology/acs_management"
	ClassHypertension         QueryClass = "cardiology/hypertension"
	ClassStrokePrevention     QueryClass = "neurology/stroke_prevention"
	ClassCKDDosing            QueryClass = "nephrology/ckd_dosing"
	ClassHyperkalemia         QueryClass = "nephrology/hyperkalemia"
	ClassDiabetesManagement   QueryClass = "endocrine/diabetes_management"
	ClassThyroidManagement    QueryClass = "endocrine/thyroid_management"
	ClassOsteoporosis         QueryClass = "endocrine/osteoporosis"
	ClassSepsisManagement     QueryClass = "infectious/sepsis_management"
	ClassAntibioticChoice     QueryClass = "infectious/antibiotic_choice"
	ClassUTITreatment         QueryClass = "infectious/uti_treatment"
	ClassPneumoniaTreatment   QueryClass = "infectious/pneumonia_treatment"
	ClassVTETreatment         QueryClass = "pulmonology/vte_treatment"
	ClassCOPDManagement       QueryClass = "pulmonology/copd_management"
	ClassAsthmaManagement     QueryClass = "pulmonology/asthma_management"
	ClassPregnancySafety      QueryClass = "obstetrics/medication_safety"
	ClassDepressionTreatment  QueryClass = "psychiatry/depression_treatment"
	ClassGIBleedManagement    QueryClass = "gastroenterology/gi_bleed_management"
)

// IsValid reports whether the class is one of the named classification paths.
func (c QueryClass) IsValid() bool {
	switch c {
	case ClassGeneral, ClassAfibAnticoagulation, ClassAnticoagulation,
		ClassHeartFailure, ClassACSManagement, ClassHypertension,
		ClassStrokePrevention, ClassCKDDosing, ClassHyperkalemia,
		ClassDiabetesManagement, ClassThyroidManagement, ClassOsteoporosis,
		ClassSepsisManagement, ClassAntibioticChoice, ClassUTITreatment,
		ClassPneumoniaTreatment, ClassVTETreatment, ClassCOPDManagement,
		ClassAsthmaManagement, ClassPregnancySafety, ClassDepressionTreatment,
		ClassGIBleedManagement:
		return true
	default:
		return false
	}
}

// String returns the string representation of the classification path.
func (c QueryClass) String() string {
	return string(c)
}

// Intent is the coarse query intent assigned by the intent router,
// independent of the tag/classifier pipeline.
type Intent string

const (
	IntentGeneral            Intent = "general"
	IntentResearchSynthesis  Intent = "research_synthesis"
	IntentTreatmentPlanning  Intent = "treatment_planning"
	IntentDrugSafety         Intent = "drug_safety"
	IntentDiagnosisSupport   Intent = "diagnosis_support"
	IntentDosingGuidance     Intent = "dosing_guidance"
	IntentScreening          Intent = "screening_prevention"
	IntentPrognosis          Intent = "prognosis"
	IntentInteractionCheck   Intent = "interaction_check"
	IntentPatientEducation   Intent = "patient_education"
	IntentGuidelineSummary   Intent = "guideline_summary"
)

// String returns the string representation of the intent.
func (i Intent) String() string {
	return string(i)
}

// IntentResult is the intent router's output. ShouldRoute is true only when
// the router is confident enough to override the generic response path.
type IntentResult struct {
	Intent       Intent  `json:"intent"`
	Confidence   float64 `json:"confidence"`
	ShouldRoute  bool    `json:"should_route"`
	MatchCount   int     `json:"match_count"`
	ResponseHint string  `json:"response_hint,omitempty"`
}

// SufficiencyLevel buckets a 0-100 sufficiency score.
type SufficiencyLevel string

const (
	SufficiencyExcellent    SufficiencyLevel = "excellent"
	SufficiencyGood         SufficiencyLevel = "good"
	SufficiencyLimited      SufficiencyLevel = "limited"
	SufficiencyInsufficient SufficiencyLevel = "insufficient"
)

// SufficiencyScore is the scorer's verdict on whether gathered evidence is
// rich enough to skip the expensive web-search fallback provider.
type SufficiencyScore struct {
	Score              int              `json:"score"`
	Level              SufficiencyLevel `json:"level"`
	AnchorCount        int              `json:"anchor_count"`
	ShouldCallFallback bool             `json:"should_call_fallback"`
	MatchedScenario    string           `json:"matched_scenario,omitempty"`
}

// LevelForScore maps a 0-100 score to its sufficiency level.
func LevelForScore(score int) SufficiencyLevel {
	switch {
	case score >= 70:
		return SufficiencyExcellent
	case score >= 50:
		return SufficiencyGood
	case score >= 30:
		return SufficiencyLimited
	default:
		return SufficiencyInsufficient
	}
}
