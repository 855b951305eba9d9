package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinical-evidence-server/internal/domain"
)

func TestGuidelineConflictDetector_MajorConflict(t *testing.T) {
	detector := NewGuidelineConflictDetector(nil)

	pkg := domain.NewEvidencePackage()
	pkg.Guidelines = []domain.Guideline{
		{
			Name:           "Aspirin Primary Prevention Cardiovascular Disease",
			Recommendation: "Aspirin is recommended for primary prevention in selected adults.",
			Year:           2016,
		},
		{
			Name:           "Aspirin Primary Prevention Cardiovascular Disease Update",
			Recommendation: "Routine aspirin use is not recommended for primary prevention.",
			Year:           2022,
		},
	}

	conflicts := detector.Detect(pkg)
	require.Len(t, conflicts, 1)
	assert.Equal(t, domain.ConflictMajor, conflicts[0].Severity)
	require.Len(t, conflicts[0].Sources, 2)
	assert.Equal(t, string(domain.StancePositive), conflicts[0].Sources[0].Position)
	assert.Equal(t, string(domain.StanceNegative), conflicts[0].Sources[1].Position)
	assert.Contains(t, conflicts[0].Topic, "aspirin")
}

func TestGuidelineConflictDetector_MinorNumericConflict(t *testing.T) {
	detector := NewGuidelineConflictDetector(nil)

	pkg := domain.NewEvidencePackage()
	pkg.Guidelines = []domain.Guideline{
		{
			Name:           "Blood Pressure Targets Adults Hypertension",
			Recommendation: "Treatment to a target below 130/80 is recommended.",
		},
		{
			Name:           "Blood Pressure Targets Adults Hypertension Consensus",
			Recommendation: "Treatment to a target below 140/90 is recommended.",
		},
	}

	conflicts := detector.Detect(pkg)
	require.Len(t, conflicts, 1)
	assert.Equal(t, domain.ConflictMinor, conflicts[0].Severity)
}

func TestGuidelineConflictDetector_SubtitlesAndOrganizationsIgnored(t *testing.T) {
	detector := NewGuidelineConflictDetector(nil)

	// Formal titles differ only in subtitle and issuing body; the leading
	// clauses describe the same topic.
	pkg := domain.NewEvidencePackage()
	pkg.Guidelines = []domain.Guideline{
		{
			Name:           "Aspirin Use to Prevent Cardiovascular Disease: Recommendation Statement on Preventive Medication in Adults Aged 40 to 59 Years",
			Organization:   "USPSTF",
			Recommendation: "Initiating aspirin is not recommended in this population.",
		},
		{
			Name:           "Aspirin Use to Prevent Cardiovascular Disease: Focused Primary Prevention Update With Extended Risk Discussion",
			Organization:   "ACC/AHA",
			Recommendation: "Low-dose aspirin is recommended for selected higher-risk adults.",
		},
	}

	conflicts := detector.Detect(pkg)
	require.Len(t, conflicts, 1)
	assert.Equal(t, domain.ConflictMajor, conflicts[0].Severity)
	assert.Contains(t, conflicts[0].Topic, "aspirin")
}

func TestGuidelineConflictDetector_UnrelatedTopicsIgnored(t *testing.T) {
	detector := NewGuidelineConflictDetector(nil)

	pkg := domain.NewEvidencePackage()
	pkg.Guidelines = []domain.Guideline{
		{Name: "Sepsis Resuscitation Bundle", Recommendation: "Early antibiotics are recommended."},
		{Name: "Osteoporosis Screening Women", Recommendation: "Screening is not recommended before age 65."},
	}

	assert.Empty(t, detector.Detect(pkg))
}

func TestGuidelineConflictDetector_SameStanceSameNumbersNoConflict(t *testing.T) {
	detector := NewGuidelineConflictDetector(nil)

	pkg := domain.NewEvidencePackage()
	pkg.Guidelines = []domain.Guideline{
		{Name: "Warfarin INR Monitoring Adults", Recommendation: "A target INR of 2.5 is recommended."},
		{Name: "Warfarin INR Monitoring Adults Update", Recommendation: "A target INR of 2.5 is recommended."},
	}

	assert.Empty(t, detector.Detect(pkg))
}

func TestGuidelineConflictDetector_NegativeMarkersWinOverPositive(t *testing.T) {
	assert.Equal(t, domain.StanceNegative, detectStance("Screening is not recommended in this group"))
	assert.Equal(t, domain.StanceNegative, detectStance("We recommend against routine use"))
	assert.Equal(t, domain.StancePositive, detectStance("Therapy is recommended for most patients"))
	assert.Equal(t, domain.StanceNeutral, detectStance("The committee reviewed the data"))
}

func TestGuidelineConflictDetector_SpansGuidelineFields(t *testing.T) {
	detector := NewGuidelineConflictDetector(nil)

	// Conflicts are detected across provider fields, anchors included.
	pkg := domain.NewEvidencePackage()
	pkg.NICEGuidelines = []domain.Guideline{
		{Name: "Statin Therapy Primary Prevention", Recommendation: "Statins are recommended for high-risk adults."},
	}
	pkg.AnchorGuidelines = []domain.Guideline{
		{Name: "Statin Therapy Primary Prevention Position", Recommendation: "Statins should not be used without risk assessment."},
	}

	conflicts := detector.Detect(pkg)
	require.Len(t, conflicts, 1)
	assert.Equal(t, domain.ConflictMajor, conflicts[0].Severity)
}

func TestGuidelineConflictDetector_DeduplicatesSameTopic(t *testing.T) {
	detector := NewGuidelineConflictDetector(nil)

	pkg := domain.NewEvidencePackage()
	pkg.Guidelines = []domain.Guideline{
		{Name: "Aspirin Primary Prevention Adults", Recommendation: "Aspirin is recommended."},
		{Name: "Aspirin Primary Prevention Adults Second", Recommendation: "Aspirin is not recommended."},
		{Name: "Aspirin Primary Prevention Adults Third", Recommendation: "Aspirin is not recommended."},
	}

	// Three pairings collapse to one reported disagreement per topic.
	conflicts := detector.Detect(pkg)
	assert.Len(t, conflicts, 1)
}

func TestGuidelineConflictDetector_EmptyAndNilPackages(t *testing.T) {
	detector := NewGuidelineConflictDetector(nil)
	assert.Empty(t, detector.Detect(nil))
	assert.Empty(t, detector.Detect(domain.NewEvidencePackage()))
}
