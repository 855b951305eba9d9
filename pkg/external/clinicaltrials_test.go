package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClinicalTrialsAdapter_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/studies", r.URL.Path)
		assert.Equal(t, "apixaban", r.URL.Query().Get("query.term"))
		w.Write([]byte(`{"studies":[{
			"hasResults": true,
			"protocolSection": {
				"identificationModule": {"nctId": "NCT00412984", "briefTitle": "ARISTOTLE"},
				"descriptionModule": {"briefSummary": "Apixaban vs warfarin."},
				"designModule": {"phases": ["PHASE2", "PHASE3"]},
				"statusModule": {"overallStatus": "COMPLETED", "startDateStruct": {"date": "2006-12"}},
				"conditionsModule": {"conditions": ["Atrial Fibrillation"]},
				"armsInterventionsModule": {"interventions": [{"name": "Apixaban"}, {"name": "Warfarin"}]}
			}
		}]}`))
	}))
	defer server.Close()

	adapter := NewClinicalTrialsAdapter(ClinicalTrialsConfig{BaseURL: server.URL + "/", RateLimit: 100})

	pkg, err := adapter.Fetch(context.Background(), FetchRequest{Query: "apixaban"})
	require.NoError(t, err)
	require.Len(t, pkg.ClinicalTrials, 1)

	trial := pkg.ClinicalTrials[0]
	assert.Equal(t, "NCT00412984", trial.NCTID)
	assert.Equal(t, "ARISTOTLE", trial.Title)
	assert.True(t, trial.HasResults)
	assert.Equal(t, "PHASE3", trial.Phase)
	assert.Equal(t, "COMPLETED", trial.Status)
	assert.Equal(t, 2006, trial.Year)
	assert.Equal(t, []string{"Apixaban", "Warfarin"}, trial.Interventions)
	assert.Equal(t, "https://clinicaltrials.gov/study/NCT00412984", trial.URL)
}

func TestClinicalTrialsAdapter_EmptyRegistryAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"studies":[]}`))
	}))
	defer server.Close()

	adapter := NewClinicalTrialsAdapter(ClinicalTrialsConfig{BaseURL: server.URL + "/", RateLimit: 100})

	pkg, err := adapter.Fetch(context.Background(), FetchRequest{Query: "nothing"})
	require.NoError(t, err)
	assert.Empty(t, pkg.ClinicalTrials)
}

func TestClinicalTrialsAdapter_NonOKStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	adapter := NewClinicalTrialsAdapter(ClinicalTrialsConfig{BaseURL: server.URL + "/", RateLimit: 100})

	_, err := adapter.Fetch(context.Background(), FetchRequest{Query: "q"})
	assert.ErrorContains(t, err, "clinicaltrials returned status 503")
}
