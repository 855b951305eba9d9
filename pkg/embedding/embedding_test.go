package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clinical-evidence-server/internal/domain"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0, 2}, []float32{1, 0, 2}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 1}, []float32{-1, -1}), 1e-9)

	// Degenerate inputs score zero instead of erroring.
	assert.Zero(t, Cosine(nil, nil))
	assert.Zero(t, Cosine([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 2}))
}

func TestNoop(t *testing.T) {
	noop := NewNoop()
	assert.False(t, noop.Available())

	_, err := noop.Embed(context.Background(), "text")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestNewGenAIEngine_RequiresAPIKey(t *testing.T) {
	_, err := NewGenAIEngine(context.Background(), "", "")
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
}
