package external

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLandmarkTrialAdapter_MatchesQueryKeywords(t *testing.T) {
	adapter := NewLandmarkTrialAdapter()

	pkg, err := adapter.Fetch(context.Background(), FetchRequest{
		Query: "Anticoagulation choice in atrial fibrillation",
	})
	require.NoError(t, err)

	names := make([]string, 0, len(pkg.LandmarkTrials))
	for _, trial := range pkg.LandmarkTrials {
		names = append(names, trial.Name)
	}
	assert.Contains(t, names, "ARISTOTLE")
	assert.Contains(t, names, "ROCKET AF")
	assert.Contains(t, names, "RE-LY")
	assert.NotContains(t, names, "SPRINT")
}

func TestLandmarkTrialAdapter_MatchesDrugKeywords(t *testing.T) {
	adapter := NewLandmarkTrialAdapter()

	pkg, err := adapter.Fetch(context.Background(), FetchRequest{
		Query:        "starting therapy for my patient",
		DrugKeywords: []string{"dapagliflozin"},
	})
	require.NoError(t, err)
	require.Len(t, pkg.LandmarkTrials, 1)
	assert.Equal(t, "DAPA-HF", pkg.LandmarkTrials[0].Name)
}

func TestLandmarkTrialAdapter_DeduplicatesByTrialName(t *testing.T) {
	adapter := NewLandmarkTrialAdapter()

	// "apixaban" appears in two entries' keyword lists; each trial may be
	// returned at most once.
	pkg, err := adapter.Fetch(context.Background(), FetchRequest{
		Query: "apixaban for atrial fibrillation and vte",
	})
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, trial := range pkg.LandmarkTrials {
		seen[trial.Name]++
	}
	for name, count := range seen {
		assert.Equal(t, 1, count, name)
	}
	assert.Contains(t, seen, "ARISTOTLE")
	assert.Contains(t, seen, "AMPLIFY")
}

func TestLandmarkTrialAdapter_NoMatches(t *testing.T) {
	adapter := NewLandmarkTrialAdapter()

	pkg, err := adapter.Fetch(context.Background(), FetchRequest{Query: "common cold remedies"})
	require.NoError(t, err)
	assert.Empty(t, pkg.LandmarkTrials)
}
