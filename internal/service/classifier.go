package service

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/clinical-evidence-server/internal/domain"
)

// RuleClassifier maps extracted tag sets to a named classification path
// using the declarative rule table. Classification is deterministic and
// side-effect-free: identical tag sets always produce identical results.
type RuleClassifier struct {
	rules  []domain.ClassificationRule
	logger *logrus.Logger
}

// NewRuleClassifier validates and loads the rule table. An invalid rule is a
// programming error, not a runtime condition, so construction fails hard.
func NewRuleClassifier(rules []domain.ClassificationRule, logger *logrus.Logger) (*RuleClassifier, error) {
	seen := make(map[string]bool, len(rules))
	for i := range rules {
		if err := rules[i].Validate(); err != nil {
			return nil, fmt.Errorf("loading rule table: %w", err)
		}
		if seen[rules[i].ID] {
			return nil, fmt.Errorf("loading rule table: duplicate rule id %q", rules[i].ID)
		}
		seen[rules[i].ID] = true
	}
	return &RuleClassifier{rules: rules, logger: logger}, nil
}

type ruleCandidate struct {
	rule  *domain.ClassificationRule
	score int
}

// Classify evaluates every rule and returns the highest-scoring candidate.
//
// A rule is a candidate only when both the disease-tag and decision-tag
// intersections with its required sets are non-empty. Candidate score is
// (disease overlap + decision overlap) x priority; ties break by declaration
// index, first rule wins. With no candidates the safe general fallback is
// returned with confidence 0.
func (c *RuleClassifier) Classify(diseaseTags []domain.DiseaseTag, decisionTags []domain.DecisionTag) *domain.ClassificationResult {
	var candidates []ruleCandidate
	for i := range c.rules {
		rule := &c.rules[i]
		diseaseOverlap := countDiseaseOverlap(diseaseTags, rule.RequiredDiseaseTags)
		decisionOverlap := countDecisionOverlap(decisionTags, rule.RequiredDecisionTags)
		if diseaseOverlap == 0 || decisionOverlap == 0 {
			continue
		}
		candidates = append(candidates, ruleCandidate{
			rule:  rule,
			score: (diseaseOverlap + decisionOverlap) * rule.Priority,
		})
	}

	if len(candidates) == 0 {
		return domain.GeneralClassification()
	}

	// Stable sort by score descending keeps declaration order as the
	// tie-breaker.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	winner := candidates[0]

	maxOverlap := len(winner.rule.RequiredDiseaseTags) + len(winner.rule.RequiredDecisionTags)
	confidence := float64(winner.score) / float64(maxOverlap*winner.rule.Priority)
	if confidence > 1 {
		confidence = 1
	}

	result := &domain.ClassificationResult{
		Classification: winner.rule.Classification,
		AllowedTerms:   append([]string{}, winner.rule.AllowedTerms...),
		ExcludedTerms:  append([]string{}, winner.rule.ExcludedTerms...),
		Confidence:     confidence,
		MatchedRuleID:  winner.rule.ID,
	}

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"classification": result.Classification,
			"matched_rule":   result.MatchedRuleID,
			"confidence":     result.Confidence,
			"candidates":     len(candidates),
		}).Debug("Classified query tags")
	}
	return result
}

func countDiseaseOverlap(have, required []domain.DiseaseTag) int {
	n := 0
	for _, r := range required {
		for _, h := range have {
			if h == r {
				n++
				break
			}
		}
	}
	return n
}

func countDecisionOverlap(have, required []domain.DecisionTag) int {
	n := 0
	for _, r := range required {
		for _, h := range have {
			if h == r {
				n++
				break
			}
		}
	}
	return n
}
