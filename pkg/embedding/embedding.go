// Package embedding provides the optional text-embedding capability used
// for semantic off-topic detection, with a Gemini-backed implementation and
// a noop for deployments without credentials.
package embedding

import (
	"context"
	"math"

	"github.com/clinical-evidence-server/internal/domain"
)

// Cosine returns the cosine similarity of two vectors, 0 when either is
// empty or they disagree in length.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Noop is the embedding generator for deployments without an embedding
// backend. Callers check Available and fall back to keyword heuristics.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (Noop) Available() bool { return false }

func (Noop) Embed(context.Context, string) ([]float32, error) {
	return nil, domain.ErrEmbeddingUnavailable
}
