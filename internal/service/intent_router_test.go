package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clinical-evidence-server/internal/domain"
)

func TestPatternIntentRouter_NoMatch(t *testing.T) {
	router := NewPatternIntentRouter(nil)

	result := router.DetectIntent("Hello there")
	assert.Equal(t, domain.IntentGeneral, result.Intent)
	assert.Zero(t, result.Confidence)
	assert.Zero(t, result.MatchCount)
	assert.False(t, result.ShouldRoute)
}

func TestPatternIntentRouter_SingleMatchStaysBelowCutoff(t *testing.T) {
	router := NewPatternIntentRouter(nil)

	// One research pattern, one signal term ("evidence"), 7 words so the
	// short-query penalty applies: (0.3 + 0.05) x 0.7 = 0.245.
	result := router.DetectIntent("What does the evidence say about apixaban?")
	assert.Equal(t, domain.IntentResearchSynthesis, result.Intent)
	assert.Equal(t, 1, result.MatchCount)
	assert.InDelta(t, 0.245, result.Confidence, 1e-9)
	assert.False(t, result.ShouldRoute)
}

func TestPatternIntentRouter_StrongDrugSafetyQueryRoutes(t *testing.T) {
	router := NewPatternIntentRouter(nil)

	query := "In a patient with chronic kidney disease, is it safe to use apixaban, " +
		"what is the safety profile and are there contraindications or a boxed warning to consider?"
	result := router.DetectIntent(query)

	assert.Equal(t, domain.IntentDrugSafety, result.Intent)
	assert.Equal(t, 4, result.MatchCount)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
	assert.True(t, result.ShouldRoute)
	assert.NotEmpty(t, result.ResponseHint)
}

func TestPatternIntentRouter_TieDisablesRouting(t *testing.T) {
	router := NewPatternIntentRouter(nil)

	// One prognosis pattern and one dosing pattern match: ambiguous.
	result := router.DetectIntent("What is the prognosis and the dosing?")
	assert.Equal(t, domain.IntentGeneral, result.Intent)
	assert.False(t, result.ShouldRoute)
	assert.Empty(t, result.ResponseHint)
	assert.Equal(t, 1, result.MatchCount)
}

func TestPatternIntentRouter_NoQuestionMarkPenalty(t *testing.T) {
	router := NewPatternIntentRouter(nil)

	withMark := router.DetectIntent("What does the evidence say about warfarin bleeding outcomes?")
	withoutMark := router.DetectIntent("What does the evidence say about warfarin bleeding outcomes")

	assert.Equal(t, withMark.Intent, withoutMark.Intent)
	assert.InDelta(t, withMark.Confidence*0.9, withoutMark.Confidence, 1e-9)
}

func TestPatternIntentRouter_ConfidenceClampedToOne(t *testing.T) {
	router := NewPatternIntentRouter(nil)

	query := "For this patient on long-term therapy, what is the correct dose, what dose adjustment " +
		"applies with renal dosing, how should we titrate the titration schedule, and what loading dose " +
		"and maintenance dose does the evidence support for this medication?"
	result := router.DetectIntent(query)

	assert.Equal(t, domain.IntentDosingGuidance, result.Intent)
	assert.LessOrEqual(t, result.Confidence, 1.0)
	assert.True(t, result.ShouldRoute)
}
