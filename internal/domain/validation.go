package domain

// Check names for the citation/quality validator. The weight vector over
// these checks must sum to 1.0.
const (
	CheckReferenceCount  = "reference_count"
	CheckReferenceQuality = "reference_quality"
	CheckAnchorCoverage  = "anchor_coverage"
	CheckSourceDiversity = "source_diversity"
	CheckSynthesis       = "cross_source_synthesis"
	CheckOffTopic        = "off_topic_references"
	CheckFalseNoEvidence = "false_no_evidence_claim"
)

// CheckResult is the outcome of one independently-composable validator check.
type CheckResult struct {
	Name   string   `json:"name"`
	Passed bool     `json:"passed"`
	Score  int      `json:"score"`
	Issues []string `json:"issues,omitempty"`
}

// ValidationReport is the validator's post-generation audit of an answer
// against the evidence package it was generated from. Diagnostic only: it is
// logged and persisted for offline analytics, never used to reject the
// answer.
type ValidationReport struct {
	Checks       []CheckResult `json:"checks"`
	OverallScore int           `json:"overall_score"`
	Passed       bool          `json:"passed"`
}

// Check returns the named sub-check, or nil if the validator did not run it.
func (r *ValidationReport) Check(name string) *CheckResult {
	for i := range r.Checks {
		if r.Checks[i].Name == name {
			return &r.Checks[i]
		}
	}
	return nil
}

// AllIssues flattens the issue lists of every sub-check.
func (r *ValidationReport) AllIssues() []string {
	var issues []string
	for _, c := range r.Checks {
		issues = append(issues, c.Issues...)
	}
	return issues
}
