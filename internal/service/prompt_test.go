package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clinical-evidence-server/internal/domain"
)

func TestPromptBuilder_EmptyPackage(t *testing.T) {
	builder := NewPromptBuilder()
	out := builder.BuildEvidenceContext(domain.NewEvidencePackage(), nil)
	assert.Equal(t, "No evidence was retrieved for this question.", out)

	out = builder.BuildEvidenceContext(nil, nil)
	assert.Equal(t, "No evidence was retrieved for this question.", out)
}

func TestPromptBuilder_SectionOrder(t *testing.T) {
	builder := NewPromptBuilder()

	pkg := domain.NewEvidencePackage()
	pkg.AnchorGuidelines = []domain.Guideline{{Name: "Anchor Guideline", Organization: "ACC/AHA", Year: 2023}}
	pkg.NICEGuidelines = []domain.Guideline{{Name: "NICE Guidance", Organization: "NICE", Year: 2022}}
	pkg.CochraneReviews = []domain.CochraneReview{{Title: "Cochrane Review", Year: 2021, PMID: "11111111"}}
	pkg.PubMedArticles = []domain.PubMedArticle{{Title: "Primary Study", Journal: "NEJM", Year: 2024, PMID: "22222222"}}
	pkg.WebResults = []domain.WebCitation{{Title: "Web Source", URL: "https://www.cdc.gov/a"}}

	out := builder.BuildEvidenceContext(pkg, nil)

	anchorIdx := strings.Index(out, "## Anchor Guidelines")
	guidelineIdx := strings.Index(out, "## Clinical Practice Guidelines")
	cochraneIdx := strings.Index(out, "## Cochrane Reviews")
	literatureIdx := strings.Index(out, "## Primary Literature")
	webIdx := strings.Index(out, "## Supplementary Web Sources")

	assert.True(t, anchorIdx >= 0 && anchorIdx < guidelineIdx)
	assert.True(t, guidelineIdx < cochraneIdx)
	assert.True(t, cochraneIdx < literatureIdx)
	assert.True(t, literatureIdx < webIdx)
}

func TestPromptBuilder_ConflictsAppended(t *testing.T) {
	builder := NewPromptBuilder()

	pkg := domain.NewEvidencePackage()
	pkg.Guidelines = []domain.Guideline{{Name: "G1"}}
	conflicts := []domain.Conflict{
		{
			Topic:       "aspirin prevention",
			Severity:    domain.ConflictMajor,
			Description: "G1 and G2 make opposing recommendations on aspirin prevention",
			Sources: []domain.ConflictSource{
				{Name: "G1", Position: "positive", Year: 2016},
				{Name: "G2", Position: "negative", Year: 2022},
			},
		},
	}

	out := builder.BuildEvidenceContext(pkg, conflicts)
	assert.Contains(t, out, "## Detected Guideline Conflicts")
	assert.Contains(t, out, "Present both positions explicitly")
	assert.Contains(t, out, "[major]")
}

func TestPromptBuilder_BuildPrompt(t *testing.T) {
	builder := NewPromptBuilder()

	classification := &domain.ClassificationResult{
		Classification: domain.ClassAfibAnticoagulation,
		AllowedTerms:   []string{"Atrial Fibrillation", "Anticoagulants"},
		ExcludedTerms:  []string{"Exercise"},
		MatchedRuleID:  "afib-anticoagulation",
	}
	intent := &domain.IntentResult{
		Intent:       domain.IntentDrugSafety,
		ShouldRoute:  true,
		ResponseHint: "Lead with label warnings.",
	}

	out := builder.BuildPrompt("Is apixaban safe?", classification, intent)
	assert.Contains(t, out, "Question: Is apixaban safe?")
	assert.Contains(t, out, string(domain.ClassAfibAnticoagulation))
	assert.Contains(t, out, "Atrial Fibrillation, Anticoagulants")
	assert.Contains(t, out, "Out of scope for this question: Exercise.")
	assert.Contains(t, out, "Response guidance: Lead with label warnings.")
	assert.Contains(t, out, "PMID, NCT, DOI")
}

func TestPromptBuilder_GeneralClassificationOmitsScopeLines(t *testing.T) {
	builder := NewPromptBuilder()

	out := builder.BuildPrompt("A question?", domain.GeneralClassification(), &domain.IntentResult{Intent: domain.IntentGeneral})
	assert.NotContains(t, out, "classified as")
	assert.NotContains(t, out, "Response guidance")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 100))
	assert.Equal(t, "", truncate("   ", 100))

	long := strings.Repeat("word ", 200)
	out := truncate(long, 50)
	assert.LessOrEqual(t, len(out), 54)
	assert.True(t, strings.HasSuffix(out, "..."))
}
