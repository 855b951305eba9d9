package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvidencePackage_Merge(t *testing.T) {
	base := NewEvidencePackage()
	base.PubMedArticles = []PubMedArticle{{PMID: "1"}}

	fragment := NewEvidencePackage()
	fragment.PubMedArticles = []PubMedArticle{{PMID: "2"}}
	fragment.Guidelines = []Guideline{{Name: "G"}}
	fragment.WebResults = []WebCitation{{URL: "https://www.cdc.gov/a"}}

	base.Merge(fragment)
	assert.Len(t, base.PubMedArticles, 2)
	assert.Len(t, base.Guidelines, 1)
	assert.Len(t, base.WebResults, 1)

	base.Merge(nil)
	assert.Equal(t, 4, base.TotalCount())
}

func TestEvidencePackage_CloneIsolatesArrays(t *testing.T) {
	original := NewEvidencePackage()
	original.Guidelines = []Guideline{{Name: "A"}, {Name: "B"}}

	clone := original.Clone()
	clone.Guidelines = clone.Guidelines[:1]
	clone.PubMedArticles = append(clone.PubMedArticles, PubMedArticle{PMID: "1"})

	assert.Len(t, original.Guidelines, 2)
	assert.Empty(t, original.PubMedArticles)
}

func TestEvidencePackage_GuidelineAccessors(t *testing.T) {
	pkg := NewEvidencePackage()
	pkg.Guidelines = []Guideline{{Name: "generic"}}
	pkg.WHOGuidelines = []Guideline{{Name: "who"}}
	pkg.NICEGuidelines = []Guideline{{Name: "nice"}}
	pkg.AnchorGuidelines = []Guideline{{Name: "anchor"}}

	assert.Equal(t, 4, pkg.GuidelineCount())

	all := pkg.AllGuidelines()
	require.Len(t, all, 4)
	assert.Equal(t, "generic", all[0].Name)
	assert.Equal(t, "anchor", all[3].Name)
}

func TestEvidencePackage_TrialsWithResults(t *testing.T) {
	pkg := NewEvidencePackage()
	pkg.ClinicalTrials = []ClinicalTrialRecord{
		{NCTID: "NCT1", HasResults: true},
		{NCTID: "NCT2"},
		{NCTID: "NCT3", HasResults: true},
	}
	assert.Equal(t, 2, pkg.TrialsWithResults())
}

func TestEvidencePackage_RecentArticleCount(t *testing.T) {
	pkg := NewEvidencePackage()
	pkg.PubMedArticles = []PubMedArticle{{Year: 2026}, {Year: 2021}, {Year: 2015}}
	pkg.EuropePMCArticles = []PubMedArticle{{Year: 2024}, {Year: 2010}}

	// Cutoff is inclusive: currentYear - yearsBack.
	assert.Equal(t, 3, pkg.RecentArticleCount(2026, 5))
	assert.Equal(t, 5, pkg.RecentArticleCount(2026, 20))
	assert.Equal(t, 1, pkg.RecentArticleCount(2026, 0))
}

func TestEvidencePackage_HasIdentifier(t *testing.T) {
	pkg := NewEvidencePackage()
	pkg.PubMedArticles = []PubMedArticle{{PMID: "21870978", DOI: "10.1056/NEJMoa1107039"}}
	pkg.ClinicalTrials = []ClinicalTrialRecord{{NCTID: "NCT00412984"}}

	assert.True(t, pkg.HasIdentifier("21870978"))
	assert.True(t, pkg.HasIdentifier("10.1056/nejmoa1107039"))
	assert.True(t, pkg.HasIdentifier("nct00412984"))
	assert.True(t, pkg.HasIdentifier("  NCT00412984 "))
	assert.False(t, pkg.HasIdentifier("99999999"))
	assert.False(t, pkg.HasIdentifier(""))
}

func TestLevelForScore(t *testing.T) {
	assert.Equal(t, SufficiencyExcellent, LevelForScore(100))
	assert.Equal(t, SufficiencyExcellent, LevelForScore(70))
	assert.Equal(t, SufficiencyGood, LevelForScore(69))
	assert.Equal(t, SufficiencyGood, LevelForScore(50))
	assert.Equal(t, SufficiencyLimited, LevelForScore(49))
	assert.Equal(t, SufficiencyLimited, LevelForScore(30))
	assert.Equal(t, SufficiencyInsufficient, LevelForScore(29))
	assert.Equal(t, SufficiencyInsufficient, LevelForScore(0))
}

func TestClassificationRule_Validate(t *testing.T) {
	valid := ClassificationRule{
		ID:                   "afib-anticoagulation",
		Classification:       ClassAfibAnticoagulation,
		RequiredDiseaseTags:  []DiseaseTag{DiseaseAF},
		RequiredDecisionTags: []DecisionTag{DecisionAnticoagulation},
		Priority:             10,
	}
	assert.NoError(t, valid.Validate())

	general := valid
	general.Classification = ClassGeneral
	assert.Error(t, general.Validate())

	noTags := valid
	noTags.RequiredDiseaseTags = nil
	noTags.RequiredDecisionTags = nil
	assert.Error(t, noTags.Validate())

	badPriority := valid
	badPriority.Priority = 0
	assert.Error(t, badPriority.Validate())
}
