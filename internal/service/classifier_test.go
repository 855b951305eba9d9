package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinical-evidence-server/internal/domain"
)

func newTestClassifier(t *testing.T) *RuleClassifier {
	t.Helper()
	classifier, err := NewRuleClassifier(Rules(), nil)
	require.NoError(t, err)
	return classifier
}

func TestRuleClassifier_AfibBeatsGeneralAnticoagulation(t *testing.T) {
	classifier := newTestClassifier(t)

	// AF + anticoagulation scores (1+1)x10 = 20 on the afib rule and
	// (1+1)x6 = 12 on the general anticoagulation rule.
	result := classifier.Classify(
		[]domain.DiseaseTag{domain.DiseaseAF},
		[]domain.DecisionTag{domain.DecisionAnticoagulation},
	)

	assert.Equal(t, domain.ClassAfibAnticoagulation, result.Classification)
	assert.Equal(t, "afib-anticoagulation", result.MatchedRuleID)
	// Winner confidence: 20 / (4 required tags x priority 10) = 0.5.
	assert.InDelta(t, 0.5, result.Confidence, 1e-9)
	assert.Contains(t, result.AllowedTerms, "Anticoagulants")
	assert.Contains(t, result.ExcludedTerms, "Exercise")
}

func TestRuleClassifier_FullOverlapConfidence(t *testing.T) {
	classifier := newTestClassifier(t)

	result := classifier.Classify(
		[]domain.DiseaseTag{domain.DiseaseAF},
		[]domain.DecisionTag{domain.DecisionAnticoagulation, domain.DecisionDrugChoice, domain.DecisionDuration},
	)

	assert.Equal(t, domain.ClassAfibAnticoagulation, result.Classification)
	// All four required tags overlap: 40 / 40 = 1.0.
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
}

func TestRuleClassifier_NoMatchFallsBackToGeneral(t *testing.T) {
	classifier := newTestClassifier(t)

	tests := []struct {
		name     string
		diseases []domain.DiseaseTag
		decision []domain.DecisionTag
	}{
		{"no tags at all", nil, nil},
		{"disease without decision", []domain.DiseaseTag{domain.DiseaseAF}, nil},
		{"decision without disease", nil, []domain.DecisionTag{domain.DecisionDosing}},
		{"no rule covers combination", []domain.DiseaseTag{domain.DiseaseThyroid}, []domain.DecisionTag{domain.DecisionProphylaxis}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifier.Classify(tt.diseases, tt.decision)
			assert.Equal(t, domain.ClassGeneral, result.Classification)
			assert.Zero(t, result.Confidence)
			assert.Empty(t, result.MatchedRuleID)
			assert.Empty(t, result.AllowedTerms)
			assert.Empty(t, result.ExcludedTerms)
		})
	}
}

func TestRuleClassifier_TieBreaksByDeclarationOrder(t *testing.T) {
	rules := []domain.ClassificationRule{
		{
			ID:                   "first",
			RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseaseUTI},
			RequiredDecisionTags: []domain.DecisionTag{domain.DecisionDrugChoice},
			Classification:       domain.ClassUTITreatment,
			Priority:             5,
		},
		{
			ID:                   "second",
			RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseaseUTI},
			RequiredDecisionTags: []domain.DecisionTag{domain.DecisionDrugChoice},
			Classification:       domain.ClassAntibioticChoice,
			Priority:             5,
		},
	}
	classifier, err := NewRuleClassifier(rules, nil)
	require.NoError(t, err)

	result := classifier.Classify(
		[]domain.DiseaseTag{domain.DiseaseUTI},
		[]domain.DecisionTag{domain.DecisionDrugChoice},
	)
	assert.Equal(t, "first", result.MatchedRuleID)
}

func TestRuleClassifier_Deterministic(t *testing.T) {
	classifier := newTestClassifier(t)
	diseases := []domain.DiseaseTag{domain.DiseasePE, domain.DiseaseDVT}
	decisions := []domain.DecisionTag{domain.DecisionAnticoagulation, domain.DecisionDuration}

	first := classifier.Classify(diseases, decisions)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, classifier.Classify(diseases, decisions))
	}
}

func TestNewRuleClassifier_RejectsDuplicateIDs(t *testing.T) {
	rules := []domain.ClassificationRule{
		{
			ID:                   "dup",
			RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseaseAF},
			RequiredDecisionTags: []domain.DecisionTag{domain.DecisionDosing},
			Classification:       domain.ClassAfibAnticoagulation,
			Priority:             1,
		},
		{
			ID:                   "dup",
			RequiredDiseaseTags:  []domain.DiseaseTag{domain.DiseaseCKD},
			RequiredDecisionTags: []domain.DecisionTag{domain.DecisionDosing},
			Classification:       domain.ClassCKDDosing,
			Priority:             1,
		},
	}
	_, err := NewRuleClassifier(rules, nil)
	assert.Error(t, err)
}

func TestRules_TableIsValid(t *testing.T) {
	for _, rule := range Rules() {
		assert.NoError(t, rule.Validate(), "rule %s", rule.ID)
		assert.True(t, rule.Classification.IsValid(), "rule %s", rule.ID)
	}
}
