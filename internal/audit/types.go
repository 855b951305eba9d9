// Package audit persists per-request pipeline outcomes for offline quality
// analysis: what a query classified to, how sufficient the evidence was,
// whether the fallback ran, and how the generated answer validated.
package audit

import (
	"context"
	"time"
)

// Record is one request's audit trail entry. Writes happen off the request
// hot path; a lost record never fails a request.
type Record struct {
	ID               int64     `json:"id,omitempty"`
	RequestID        string    `json:"request_id"`
	Query            string    `json:"query"`
	Classification   string    `json:"classification"`
	Intent           string    `json:"intent"`
	SufficiencyScore int       `json:"sufficiency_score"`
	SufficiencyLevel string    `json:"sufficiency_level"`
	EvidenceCount    int       `json:"evidence_count"`
	ConflictCount    int       `json:"conflict_count"`
	UsedFallback     bool      `json:"used_fallback"`
	ValidationScore  int       `json:"validation_score"`
	ValidationPassed bool      `json:"validation_passed"`
	CreatedAt        time.Time `json:"created_at"`
}

// Store defines the interface for audit persistence.
type Store interface {
	// Save inserts one audit record and sets its ID.
	Save(ctx context.Context, record *Record) error

	// List returns the most recent records, newest first.
	List(ctx context.Context, limit, offset int) ([]*Record, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)

	// Close closes the store and releases resources.
	Close() error
}
