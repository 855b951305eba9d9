package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clinical-evidence-server/internal/domain"
)

func TestKeywordTagExtractor_Extract(t *testing.T) {
	extractor := NewKeywordTagExtractor(nil)

	tests := []struct {
		name          string
		query         string
		wantDiseases  []domain.DiseaseTag
		wantDecisions []domain.DecisionTag
		wantDrugs     []string
	}{
		{
			name:          "afib anticoagulation query",
			query:         "Should I start apixaban for atrial fibrillation in a patient with CKD?",
			wantDiseases:  []domain.DiseaseTag{domain.DiseaseAF, domain.DiseaseCKD},
			wantDecisions: []domain.DecisionTag{domain.DecisionAnticoagulation},
			wantDrugs:     []string{"apixaban"},
		},
		{
			name:          "brand name maps to generic",
			query:         "Is it safe to use Eliquis in renal impairment?",
			wantDiseases:  []domain.DiseaseTag{domain.DiseaseCKD},
			wantDecisions: []domain.DecisionTag{domain.DecisionAnticoagulation, domain.DecisionContraindication},
			wantDrugs:     []string{"apixaban"},
		},
		{
			name:          "sepsis antibiotic choice",
			query:         "Which antibiotic should I use for sepsis from a urinary source?",
			wantDiseases:  []domain.DiseaseTag{domain.DiseaseSepsis},
			wantDecisions: []domain.DecisionTag{domain.DecisionDrugChoice},
			wantDrugs:     []string{},
		},
		{
			name:          "no medical content",
			query:         "What is the capital of France?",
			wantDiseases:  []domain.DiseaseTag{},
			wantDecisions: []domain.DecisionTag{},
			wantDrugs:     []string{},
		},
		{
			name:          "empty query",
			query:         "",
			wantDiseases:  []domain.DiseaseTag{},
			wantDecisions: []domain.DecisionTag{},
			wantDrugs:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractor.Extract(tt.query)
			assert.Equal(t, tt.wantDiseases, result.DiseaseTags)
			assert.Equal(t, tt.wantDecisions, result.DecisionTags)
			assert.Equal(t, tt.wantDrugs, result.DrugKeywords)
		})
	}
}

func TestKeywordTagExtractor_WordBoundaries(t *testing.T) {
	extractor := NewKeywordTagExtractor(nil)

	// "pe" must not fire inside "upper", "af" must not fire inside "after".
	result := extractor.Extract("Monitoring after an upper endoscopy")
	assert.NotContains(t, result.DiseaseTags, domain.DiseasePE)
	assert.NotContains(t, result.DiseaseTags, domain.DiseaseAF)

	result = extractor.Extract("Workup for a suspected PE")
	assert.Contains(t, result.DiseaseTags, domain.DiseasePE)
}

func TestKeywordTagExtractor_Deterministic(t *testing.T) {
	extractor := NewKeywordTagExtractor(nil)
	query := "Warfarin versus apixaban dosing for DVT and PE in dialysis"

	first := extractor.Extract(query)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, extractor.Extract(query))
	}
}
