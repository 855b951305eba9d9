package domain

import "errors"

// Sentinel errors for the classification and retrieval pipeline.
var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidClassification = errors.New("invalid query classification")
	ErrEmptyQuery            = errors.New("query must not be empty")
	ErrSourceUnavailable     = errors.New("evidence source unavailable")
	ErrMissingCredential     = errors.New("provider credential not configured")
	ErrGeneratorUnavailable  = errors.New("answer generator not configured")
	ErrEmbeddingUnavailable  = errors.New("embedding backend not configured")
)
