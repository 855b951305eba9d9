package domain

import (
	"context"
)

// TagExtractor turns free query text into controlled-vocabulary tag sets.
// Pure function: no I/O, no failure mode.
type TagExtractor interface {
	Extract(query string) *TagResult
}

// QueryClassifier maps tag sets to a named classification path using the
// priority-ordered rule table. Deterministic and side-effect-free.
type QueryClassifier interface {
	Classify(diseaseTags []DiseaseTag, decisionTags []DecisionTag) *ClassificationResult
}

// IntentRouter assigns a coarse intent with a confidence score, operating
// directly on raw query text, independent of the tag pipeline.
type IntentRouter interface {
	DetectIntent(query string) *IntentResult
}

// AnchorMatcher looks up curated gold-standard guidelines for recognized
// clinical scenarios in the query text.
type AnchorMatcher interface {
	DetectScenarios(query string) []string
	GetGuidelines(query string) []Guideline
}

// EvidenceGatherer fans out to the external evidence providers and returns
// the aggregate package together with the sufficiency verdict that gated the
// fallback provider.
type EvidenceGatherer interface {
	Gather(ctx context.Context, query string, drugKeywords []string, tags *TagResult) (*EvidencePackage, *SufficiencyScore, error)
}

// EvidenceFilter removes items matching the classifier's excluded terms.
// Pure transform: the input package is never mutated.
type EvidenceFilter interface {
	Filter(pkg *EvidencePackage, excludedTerms []string) *EvidencePackage
}

// ConflictDetector scans guideline-like evidence for opposing
// recommendations on the same topic.
type ConflictDetector interface {
	Detect(pkg *EvidencePackage) []Conflict
}

// SufficiencyScorer computes the 0-100 evidence sufficiency score and the
// fallback gate.
type SufficiencyScorer interface {
	Score(pkg *EvidencePackage, diseaseTags []DiseaseTag, decisionTags []DecisionTag) *SufficiencyScore
}

// AnswerValidator audits a generated answer against the evidence package it
// was generated from.
type AnswerValidator interface {
	Validate(ctx context.Context, answer, query string, pkg *EvidencePackage) *ValidationReport
}

// AnswerGenerator is the opaque external LLM collaborator: it accepts a
// prompt and an evidence context string and returns text.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt, evidenceContext string) (string, error)
}

// EmbeddingGenerator is an optional capability used for semantic off-topic
// detection. Implementations that cannot serve requests report
// Available() == false and callers fall back to keyword overlap.
type EmbeddingGenerator interface {
	Available() bool
	Embed(ctx context.Context, text string) ([]float32, error)
}
