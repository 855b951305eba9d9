package service

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/clinical-evidence-server/internal/domain"
)

// sufficiencyScenario names a tag combination whose anchor coverage is
// trusted enough to skip the fallback provider outright.
type sufficiencyScenario struct {
	Name         string
	DiseaseTags  []domain.DiseaseTag
	DecisionTags []domain.DecisionTag
}

// knownScenarios lists the tag combinations with curated anchor coverage.
// A scenario matches when ALL of its tags are present in the query's tag
// sets; the first match in declaration order wins.
var knownScenarios = []sufficiencyScenario{
	{Name: "afib_anticoagulation", DiseaseTags: []domain.DiseaseTag{domain.DiseaseAF}, DecisionTags: []domain.DecisionTag{domain.DecisionAnticoagulation}},
	{Name: "vte_anticoagulation", DiseaseTags: []domain.DiseaseTag{domain.DiseaseDVT}, DecisionTags: []domain.DecisionTag{domain.DecisionAnticoagulation}},
	{Name: "pe_anticoagulation", DiseaseTags: []domain.DiseaseTag{domain.DiseasePE}, DecisionTags: []domain.DecisionTag{domain.DecisionAnticoagulation}},
	{Name: "stroke_prevention", DiseaseTags: []domain.DiseaseTag{domain.DiseaseStroke}, DecisionTags: []domain.DecisionTag{domain.DecisionProphylaxis}},
	{Name: "heart_failure_therapy", DiseaseTags: []domain.DiseaseTag{domain.DiseaseHeartFailure}, DecisionTags: []domain.DecisionTag{domain.DecisionDrugChoice}},
	{Name: "acs_management", DiseaseTags: []domain.DiseaseTag{domain.DiseaseACS}, DecisionTags: []domain.DecisionTag{domain.DecisionDrugChoice}},
	{Name: "sepsis_management", DiseaseTags: []domain.DiseaseTag{domain.DiseaseSepsis}, DecisionTags: []domain.DecisionTag{domain.DecisionDrugChoice}},
	{Name: "diabetes_therapy", DiseaseTags: []domain.DiseaseTag{domain.DiseaseDiabetes}, DecisionTags: []domain.DecisionTag{domain.DecisionDrugChoice}},
	{Name: "hypertension_therapy", DiseaseTags: []domain.DiseaseTag{domain.DiseaseHypertension}, DecisionTags: []domain.DecisionTag{domain.DecisionDrugChoice}},
	{Name: "ckd_dosing", DiseaseTags: []domain.DiseaseTag{domain.DiseaseCKD}, DecisionTags: []domain.DecisionTag{domain.DecisionDosing}},
	{Name: "uti_treatment", DiseaseTags: []domain.DiseaseTag{domain.DiseaseUTI}, DecisionTags: []domain.DecisionTag{domain.DecisionDrugChoice}},
}

// Scoring weights. Points accrue independently per evidence class; the sum
// tops out at 100.
const (
	pointsCochrane          = 30
	pointsGuidelines        = 25
	pointsTrialsWithResults = 20
	pointsRecentArticles    = 15
	pointsSystematicReviews = 10

	recentArticleThreshold = 5
	recentArticleYears     = 5

	anchorOverrideMinimum = 3
	anchorOverrideScore   = 70
	fallbackSkipScore     = 50
)

// AdditiveSufficiencyScorer grades a gathered evidence package on a 0-100
// scale and decides whether the web-search fallback provider is worth its
// cost. The score is a pure function of the package and the query's tags.
type AdditiveSufficiencyScorer struct {
	logger *logrus.Logger
	now    func() time.Time
}

func NewAdditiveSufficiencyScorer(logger *logrus.Logger) *AdditiveSufficiencyScorer {
	return &AdditiveSufficiencyScorer{logger: logger, now: time.Now}
}

// Score computes the additive sufficiency score.
//
// A recognized anchor scenario with at least three anchor guidelines lifts
// the score to 70 regardless of the raw sum: curated coverage for a known
// scenario is trusted over volume. The fallback is skipped at score 50 or
// above, or whenever an anchor scenario matched and any anchor guidelines
// were found.
func (s *AdditiveSufficiencyScorer) Score(pkg *domain.EvidencePackage, diseaseTags []domain.DiseaseTag, decisionTags []domain.DecisionTag) *domain.SufficiencyScore {
	score := 0
	if len(pkg.CochraneReviews) > 0 {
		score += pointsCochrane
	}
	if pkg.GuidelineCount() > 0 {
		score += pointsGuidelines
	}
	if pkg.TrialsWithResults() > 0 {
		score += pointsTrialsWithResults
	}
	if pkg.RecentArticleCount(s.now().Year(), recentArticleYears) >= recentArticleThreshold {
		score += pointsRecentArticles
	}
	if len(pkg.SystematicReviews) > 0 {
		score += pointsSystematicReviews
	}

	anchorCount := len(pkg.AnchorGuidelines)
	scenario := matchScenario(diseaseTags, decisionTags)

	if scenario != "" && anchorCount >= anchorOverrideMinimum && score < anchorOverrideScore {
		score = anchorOverrideScore
	}

	result := &domain.SufficiencyScore{
		Score:           score,
		Level:           domain.LevelForScore(score),
		AnchorCount:     anchorCount,
		MatchedScenario: scenario,
	}
	result.ShouldCallFallback = score < fallbackSkipScore && !(scenario != "" && anchorCount > 0)

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"score":            result.Score,
			"level":            result.Level,
			"anchor_count":     result.AnchorCount,
			"matched_scenario": result.MatchedScenario,
			"call_fallback":    result.ShouldCallFallback,
		}).Debug("Scored evidence sufficiency")
	}
	return result
}

func matchScenario(diseaseTags []domain.DiseaseTag, decisionTags []domain.DecisionTag) string {
	for _, sc := range knownScenarios {
		if containsAllDiseases(diseaseTags, sc.DiseaseTags) && containsAllDecisions(decisionTags, sc.DecisionTags) {
			return sc.Name
		}
	}
	return ""
}

func containsAllDiseases(have, want []domain.DiseaseTag) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsAllDecisions(have, want []domain.DecisionTag) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
