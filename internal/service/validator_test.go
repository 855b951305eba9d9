package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinical-evidence-server/internal/domain"
	"github.com/clinical-evidence-server/pkg/embedding"
)

func afibEvidencePackage() *domain.EvidencePackage {
	pkg := domain.NewEvidencePackage()
	pkg.PubMedArticles = []domain.PubMedArticle{
		{PMID: "21870978", DOI: "10.1056/NEJMoa1107039", Title: "Apixaban versus warfarin in atrial fibrillation", Year: 2011},
		{PMID: "19717844", DOI: "10.1056/NEJMoa0905561", Title: "Dabigatran versus warfarin in atrial fibrillation", Year: 2009},
	}
	pkg.CochraneReviews = []domain.CochraneReview{
		{Title: "Direct oral anticoagulants versus warfarin for atrial fibrillation", DOI: "10.1002/14651858.CD013739", Year: 2021},
	}
	pkg.ClinicalTrials = []domain.ClinicalTrialRecord{
		{NCTID: "NCT00412984", Title: "ARISTOTLE", HasResults: true},
	}
	pkg.AnchorGuidelines = []domain.Guideline{
		{Name: "2023 ACC/AHA/ACCP/HRS Guideline for the Diagnosis and Management of Atrial Fibrillation", Organization: "ACC/AHA", Year: 2023},
	}
	pkg.LandmarkTrials = []domain.LandmarkTrial{
		{Name: "ARISTOTLE", Condition: "atrial fibrillation", PMID: "21870978"},
	}
	return pkg
}

func TestCitationValidator_WellGroundedAnswerPasses(t *testing.T) {
	validator := NewCitationValidator(embedding.NewNoop(), nil)

	answer := "For stroke prevention in atrial fibrillation, apixaban is preferred over warfarin. " +
		"The ARISTOTLE trial (PMID: 21870978, NCT00412984, doi 10.1056/NEJMoa1107039) showed lower bleeding, " +
		"consistent with the RE-LY findings (PMID: 19717844, doi 10.1056/NEJMoa0905561) and a Cochrane review " +
		"(doi 10.1002/14651858.CD013739). The 2023 ACC/AHA guideline recommends a DOAC first-line."

	report := validator.Validate(context.Background(), answer, "Should I use apixaban for atrial fibrillation stroke prevention?", afibEvidencePackage())

	assert.True(t, report.Passed)
	assert.GreaterOrEqual(t, report.OverallScore, 70)

	count := report.Check(domain.CheckReferenceCount)
	require.NotNil(t, count)
	assert.Equal(t, 100, count.Score)

	quality := report.Check(domain.CheckReferenceQuality)
	require.NotNil(t, quality)
	assert.Equal(t, 100, quality.Score)
	assert.True(t, quality.Passed)

	anchors := report.Check(domain.CheckAnchorCoverage)
	require.NotNil(t, anchors)
	assert.True(t, anchors.Passed)
}

func TestCitationValidator_FabricatedCitationFlagged(t *testing.T) {
	validator := NewCitationValidator(embedding.NewNoop(), nil)

	answer := "Apixaban is preferred in atrial fibrillation per ARISTOTLE (PMID: 21870978) " +
		"and a pivotal cohort study (PMID: 99999999)."

	report := validator.Validate(context.Background(), answer, "Apixaban for atrial fibrillation?", afibEvidencePackage())

	quality := report.Check(domain.CheckReferenceQuality)
	require.NotNil(t, quality)
	assert.False(t, quality.Passed)
	assert.Equal(t, 50, quality.Score)
	assert.NotEmpty(t, quality.Issues)
}

func TestCitationValidator_SparseCitationCountFlagged(t *testing.T) {
	validator := NewCitationValidator(embedding.NewNoop(), nil)

	// Three verifiable citations is still below the six-reference floor.
	answer := "ARISTOTLE (PMID: 21870978, NCT00412984) and RE-LY (PMID: 19717844) support a DOAC."
	report := validator.Validate(context.Background(), answer, "Apixaban for atrial fibrillation?", afibEvidencePackage())

	count := report.Check(domain.CheckReferenceCount)
	require.NotNil(t, count)
	assert.False(t, count.Passed)
	assert.Equal(t, 60, count.Score)
	assert.NotEmpty(t, count.Issues)
}

func TestCitationValidator_ExcessiveCitationCountFlagged(t *testing.T) {
	validator := NewCitationValidator(embedding.NewNoop(), nil)

	var sb strings.Builder
	sb.WriteString("Many studies address this.")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&sb, " PMID: %d.", 10000001+i)
	}

	report := validator.Validate(context.Background(), sb.String(), "Apixaban for atrial fibrillation?", afibEvidencePackage())

	count := report.Check(domain.CheckReferenceCount)
	require.NotNil(t, count)
	assert.False(t, count.Passed)
	assert.NotEmpty(t, count.Issues)
}

func TestCitationValidator_SearchEngineURLFlagged(t *testing.T) {
	validator := NewCitationValidator(embedding.NewNoop(), nil)

	answer := "Apixaban is preferred per ARISTOTLE (PMID: 21870978); " +
		"see also https://www.google.com/search?q=apixaban+dosing for more."
	report := validator.Validate(context.Background(), answer, "Apixaban for atrial fibrillation?", afibEvidencePackage())

	quality := report.Check(domain.CheckReferenceQuality)
	require.NotNil(t, quality)
	assert.False(t, quality.Passed)
	assert.NotEmpty(t, quality.Issues)
}

func TestCitationValidator_UncitedAnswerAgainstEvidence(t *testing.T) {
	validator := NewCitationValidator(embedding.NewNoop(), nil)

	answer := "Apixaban is generally preferred for stroke prevention in atrial fibrillation."
	report := validator.Validate(context.Background(), answer, "Apixaban for atrial fibrillation?", afibEvidencePackage())

	count := report.Check(domain.CheckReferenceCount)
	require.NotNil(t, count)
	assert.Zero(t, count.Score)
	assert.False(t, count.Passed)
}

func TestCitationValidator_EmptyPackageUncitedAnswerIsCorrectShape(t *testing.T) {
	validator := NewCitationValidator(embedding.NewNoop(), nil)

	answer := "No published evidence addresses this question directly; management is empiric."
	report := validator.Validate(context.Background(), answer, "Evidence for therapy?", domain.NewEvidencePackage())

	count := report.Check(domain.CheckReferenceCount)
	require.NotNil(t, count)
	assert.Equal(t, 100, count.Score)

	noEvidence := report.Check(domain.CheckFalseNoEvidence)
	require.NotNil(t, noEvidence)
	assert.True(t, noEvidence.Passed)
}

func TestCitationValidator_FalseNoEvidenceClaim(t *testing.T) {
	validator := NewCitationValidator(embedding.NewNoop(), nil)

	pkg := afibEvidencePackage()
	require.NotEmpty(t, pkg.CochraneReviews)

	answer := "There is no published evidence on apixaban in atrial fibrillation."
	report := validator.Validate(context.Background(), answer, "Apixaban for atrial fibrillation?", pkg)

	noEvidence := report.Check(domain.CheckFalseNoEvidence)
	require.NotNil(t, noEvidence)
	assert.False(t, noEvidence.Passed)
	assert.Zero(t, noEvidence.Score)
}

func TestCitationValidator_FalseNoEvidenceWithSingleCochraneReview(t *testing.T) {
	validator := NewCitationValidator(embedding.NewNoop(), nil)

	pkg := domain.NewEvidencePackage()
	pkg.CochraneReviews = []domain.CochraneReview{
		{Title: "Anticoagulation for atrial fibrillation", DOI: "10.1002/14651858.CD013739"},
	}

	answer := "There is insufficient evidence to guide therapy here."
	report := validator.Validate(context.Background(), answer, "Apixaban for atrial fibrillation?", pkg)

	noEvidence := report.Check(domain.CheckFalseNoEvidence)
	require.NotNil(t, noEvidence)
	assert.False(t, noEvidence.Passed)
	assert.Zero(t, noEvidence.Score)
}

func TestCitationValidator_NoEvidenceClaimToleratedForSingleGuideline(t *testing.T) {
	validator := NewCitationValidator(embedding.NewNoop(), nil)

	pkg := domain.NewEvidencePackage()
	pkg.Guidelines = []domain.Guideline{{Name: "Lone Guidance Document"}}

	answer := "There is insufficient evidence to guide therapy here."
	report := validator.Validate(context.Background(), answer, "A question?", pkg)

	noEvidence := report.Check(domain.CheckFalseNoEvidence)
	require.NotNil(t, noEvidence)
	assert.True(t, noEvidence.Passed)
}

func TestCitationValidator_AnchorCoverageRequiresTwoMentions(t *testing.T) {
	validator := NewCitationValidator(embedding.NewNoop(), nil)

	pkg := domain.NewEvidencePackage()
	pkg.AnchorGuidelines = []domain.Guideline{
		{Name: "AF Anticoagulant Selection", Organization: "ACC/AHA"},
		{Name: "AF Anticoagulant Selection", Organization: "CHEST"},
		{Name: "AF Anticoagulant Selection", Organization: "EHRA"},
		{Name: "AF Anticoagulant Selection", Organization: "USPSTF"},
	}

	one := "Per the ACC/AHA, apixaban is preferred."
	report := validator.Validate(context.Background(), one, "Apixaban for AF?", pkg)
	anchors := report.Check(domain.CheckAnchorCoverage)
	require.NotNil(t, anchors)
	assert.False(t, anchors.Passed)
	assert.NotEmpty(t, anchors.Issues)

	two := "Per the ACC/AHA, apixaban is preferred; the CHEST panel concurs."
	report = validator.Validate(context.Background(), two, "Apixaban for AF?", pkg)
	anchors = report.Check(domain.CheckAnchorCoverage)
	require.NotNil(t, anchors)
	assert.True(t, anchors.Passed)
}

func TestCitationValidator_AnchorCoverageIgnoredWhenNoAnchors(t *testing.T) {
	validator := NewCitationValidator(embedding.NewNoop(), nil)

	pkg := domain.NewEvidencePackage()
	pkg.PubMedArticles = []domain.PubMedArticle{{PMID: "12345678", Title: "Something"}}

	report := validator.Validate(context.Background(), "An answer.", "A question?", pkg)
	anchors := report.Check(domain.CheckAnchorCoverage)
	require.NotNil(t, anchors)
	assert.True(t, anchors.Passed)
	assert.Equal(t, 100, anchors.Score)
}

func TestCitationValidator_OffTopicKeywordFallback(t *testing.T) {
	validator := NewCitationValidator(embedding.NewNoop(), nil)

	onTopic := validator.Validate(context.Background(),
		"Apixaban dosing in renal impairment requires adjustment.",
		"What is the apixaban dosing in renal impairment?",
		domain.NewEvidencePackage())
	assert.True(t, onTopic.Check(domain.CheckOffTopic).Passed)

	offTopic := validator.Validate(context.Background(),
		"Influenza vaccination is seasonal.",
		"What is the apixaban dosing in renal impairment?",
		domain.NewEvidencePackage())
	assert.False(t, offTopic.Check(domain.CheckOffTopic).Passed)
}

func TestCitationValidator_NilPackageTreatedAsEmpty(t *testing.T) {
	validator := NewCitationValidator(embedding.NewNoop(), nil)
	report := validator.Validate(context.Background(), "An answer.", "A question?", nil)
	assert.NotNil(t, report)
	assert.Len(t, report.Checks, 7)
}

func TestExtractIdentifiers(t *testing.T) {
	ids := extractIdentifiers("See PMID: 21870978, NCT00412984 and doi 10.1056/NEJMoa1107039.")
	assert.Equal(t, []string{"21870978", "nct00412984", "10.1056/nejmoa1107039"}, ids)

	assert.Empty(t, extractIdentifiers("No identifiers here."))

	// Duplicates collapse.
	ids = extractIdentifiers("PMID 21870978 and again PMID: 21870978")
	assert.Len(t, ids, 1)
}
