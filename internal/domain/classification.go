package domain

import (
	"errors"
	"fmt"
)

// ClassificationRule is a static configuration record mapping tag sets to a
// named classification path with its admissible and excluded
// controlled-vocabulary terms. Rules are loaded at process start and never
// mutated.
//
// A rule matches only when the query's disease-tag set AND decision-tag set
// each have a non-empty intersection with the rule's respective required
// sets. Candidate score = (disease overlap + decision overlap) x priority;
// ties break by declaration index, lowest first.
type ClassificationRule struct {
	ID                   string        `json:"id"`
	RequiredDiseaseTags  []DiseaseTag  `json:"required_disease_tags"`
	RequiredDecisionTags []DecisionTag `json:"required_decision_tags"`
	Classification       QueryClass    `json:"classification"`
	AllowedTerms         []string      `json:"allowed_terms"`
	ExcludedTerms        []string      `json:"excluded_terms"`
	Priority             int           `json:"priority"`
}

// Validate ensures a rule record is usable by the matching engine.
func (r *ClassificationRule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("classification rule validation: %w", errors.New("rule ID is required"))
	}
	if len(r.RequiredDiseaseTags) == 0 {
		return fmt.Errorf("classification rule %s: %w", r.ID, errors.New("at least one required disease tag"))
	}
	if len(r.RequiredDecisionTags) == 0 {
		return fmt.Errorf("classification rule %s: %w", r.ID, errors.New("at least one required decision tag"))
	}
	if !r.Classification.IsValid() || r.Classification == ClassGeneral {
		return fmt.Errorf("classification rule %s: %w", r.ID, ErrInvalidClassification)
	}
	if r.Priority <= 0 {
		return fmt.Errorf("classification rule %s: %w", r.ID, errors.New("priority must be positive"))
	}
	return nil
}

// ClassificationResult is the classifier's immutable output for one query.
//
// Invariant: when MatchedRuleID is empty the classification is ClassGeneral
// and both term sets are empty.
type ClassificationResult struct {
	Classification QueryClass `json:"classification"`
	AllowedTerms   []string   `json:"allowed_terms"`
	ExcludedTerms  []string   `json:"excluded_terms"`
	Confidence     float64    `json:"confidence"`
	MatchedRuleID  string     `json:"matched_rule_id,omitempty"`
}

// GeneralClassification returns the safe fallback result used when no rule
// matches the query's tag sets.
func GeneralClassification() *ClassificationResult {
	return &ClassificationResult{
		Classification: ClassGeneral,
		AllowedTerms:   []string{},
		ExcludedTerms:  []string{},
		Confidence:     0,
	}
}

// IsGeneral reports whether the result is the no-match fallback.
func (c *ClassificationResult) IsGeneral() bool {
	return c.MatchedRuleID == "" && c.Classification == ClassGeneral
}
