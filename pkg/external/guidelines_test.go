package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinical-evidence-server/internal/domain"
)

func TestGuidelineAdapter_UnconfiguredPublisherReturnsEmpty(t *testing.T) {
	adapter := NewWHOAdapter(GuidelineConfig{})

	pkg, err := adapter.Fetch(context.Background(), FetchRequest{Query: "malaria treatment"})
	require.NoError(t, err)
	assert.Zero(t, pkg.TotalCount())
}

func TestGuidelineAdapter_RoutesResultsToPublisherField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token1", r.Header.Get("Authorization"))
		assert.Equal(t, "hypertension", r.URL.Query().Get("q"))
		w.Write([]byte(`{"results":[{
			"title": "Hypertension in adults: diagnosis and management",
			"summary": "Covers diagnosing and treating primary hypertension.",
			"recommendation": "Offer lifestyle advice first.",
			"year": 2023,
			"url": "https://www.nice.org.uk/guidance/ng136"
		}]}`))
	}))
	defer server.Close()

	config := GuidelineConfig{BaseURL: server.URL, APIKey: "token1", RateLimit: 100}

	nice := NewNICEAdapter(config)
	assert.Equal(t, domain.SourceNICE, nice.Source())

	pkg, err := nice.Fetch(context.Background(), FetchRequest{Query: "hypertension"})
	require.NoError(t, err)
	require.Len(t, pkg.NICEGuidelines, 1)
	assert.Empty(t, pkg.Guidelines)
	assert.Equal(t, "NICE", pkg.NICEGuidelines[0].Organization)
	assert.Equal(t, 2023, pkg.NICEGuidelines[0].Year)

	uspstf := NewUSPSTFAdapter(config)
	pkg, err = uspstf.Fetch(context.Background(), FetchRequest{Query: "hypertension"})
	require.NoError(t, err)
	assert.Len(t, pkg.USPSTFRecommendations, 1)
	assert.Equal(t, "USPSTF", pkg.USPSTFRecommendations[0].Organization)
}

func TestGuidelineAdapter_GatewayErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	adapter := NewCDCAdapter(GuidelineConfig{BaseURL: server.URL, RateLimit: 100})

	_, err := adapter.Fetch(context.Background(), FetchRequest{Query: "q"})
	assert.ErrorContains(t, err, "CDC guideline search returned status 502")
}
