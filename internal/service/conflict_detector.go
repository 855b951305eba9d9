package service

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/clinical-evidence-server/internal/domain"
)

// GuidelineConflictDetector scans guideline-like evidence pairwise for
// opposing recommendations on the same topic. Detection is heuristic and
// advisory: a detected conflict is surfaced to the prompt, never used to
// drop evidence.
type GuidelineConflictDetector struct {
	logger *logrus.Logger
}

func NewGuidelineConflictDetector(logger *logrus.Logger) *GuidelineConflictDetector {
	return &GuidelineConflictDetector{logger: logger}
}

// negativeStanceMarkers are checked before positive markers: phrases like
// "not recommended" contain "recommended" and must win.
var negativeStanceMarkers = []string{
	"not recommended", "recommend against", "recommends against", "should not",
	"avoid", "contraindicated", "do not use", "insufficient evidence",
	"no benefit", "not indicated", "discouraged",
}

var positiveStanceMarkers = []string{
	"recommended", "recommend", "should be", "should receive", "first-line",
	"first line", "preferred", "indicated", "is beneficial", "strongly suggests",
	"consider", "reasonable",
}

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// topicStopwords are dropped before topic tokens are compared; they carry no
// topical signal and inflate Jaccard overlap between unrelated guidelines.
var topicStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "for": true, "in": true,
	"and": true, "or": true, "on": true, "with": true, "to": true,
	"guideline": true, "guidelines": true, "recommendation": true,
	"recommendations": true, "management": true, "clinical": true,
	"practice": true, "statement": true, "update": true,
}

// Detect compares every pair of guideline-like items. Two items are on the
// same topic when their name-token Jaccard similarity is at least 0.5. Same
// topic with opposite stances is a major conflict; same topic and stance
// with differing numeric content (doses, thresholds, durations) is a minor
// one. A failure evaluating one pair is isolated: the pair is skipped and
// the scan continues.
func (d *GuidelineConflictDetector) Detect(pkg *domain.EvidencePackage) []domain.Conflict {
	if pkg == nil {
		return nil
	}
	guidelines := pkg.AllGuidelines()

	var conflicts []domain.Conflict
	for i := 0; i < len(guidelines); i++ {
		for j := i + 1; j < len(guidelines); j++ {
			c := d.comparePair(&guidelines[i], &guidelines[j])
			if c != nil {
				conflicts = append(conflicts, *c)
			}
		}
	}

	conflicts = dedupeConflicts(conflicts)

	if d.logger != nil && len(conflicts) > 0 {
		d.logger.WithFields(logrus.Fields{
			"guidelines": len(guidelines),
			"conflicts":  len(conflicts),
		}).Info("Detected guideline conflicts")
	}
	return conflicts
}

// comparePair never propagates a failure to the caller. A panic while
// evaluating one pair must not take the whole scan down.
func (d *GuidelineConflictDetector) comparePair(a, b *domain.Guideline) (conflict *domain.Conflict) {
	defer func() {
		if r := recover(); r != nil {
			if d.logger != nil {
				d.logger.WithFields(logrus.Fields{
					"guideline_a": a.Name,
					"guideline_b": b.Name,
					"panic":       r,
				}).Warn("Skipping guideline pair after comparison failure")
			}
			conflict = nil
		}
	}()

	tokensA := guidelineTopicTokens(a)
	tokensB := guidelineTopicTokens(b)
	similarity := jaccard(tokensA, tokensB)
	if similarity < 0.5 {
		return nil
	}

	stanceA := detectStance(a.Summary + " " + a.Recommendation)
	stanceB := detectStance(b.Summary + " " + b.Recommendation)

	topic := sharedTopic(tokensA, tokensB)
	sources := []domain.ConflictSource{
		{Name: a.Name, Position: string(stanceA), URL: a.URL, Year: a.Year},
		{Name: b.Name, Position: string(stanceB), URL: b.URL, Year: b.Year},
	}

	if opposingStances(stanceA, stanceB) {
		return &domain.Conflict{
			Topic:       topic,
			Sources:     sources,
			Severity:    domain.ConflictMajor,
			Description: fmt.Sprintf("%s and %s make opposing recommendations on %s", a.Name, b.Name, topic),
		}
	}

	if stanceA == stanceB && stanceA != domain.StanceNeutral && numericContentDiffers(a, b) {
		return &domain.Conflict{
			Topic:       topic,
			Sources:     sources,
			Severity:    domain.ConflictMinor,
			Description: fmt.Sprintf("%s and %s agree in direction on %s but differ in numeric specifics", a.Name, b.Name, topic),
		}
	}

	return nil
}

// detectStance classifies recommendation text. Negative markers are checked
// first so "not recommended" never reads as positive.
func detectStance(text string) domain.Stance {
	lowered := strings.ToLower(text)
	for _, marker := range negativeStanceMarkers {
		if strings.Contains(lowered, marker) {
			return domain.StanceNegative
		}
	}
	for _, marker := range positiveStanceMarkers {
		if strings.Contains(lowered, marker) {
			return domain.StancePositive
		}
	}
	return domain.StanceNeutral
}

func opposingStances(a, b domain.Stance) bool {
	return (a == domain.StancePositive && b == domain.StanceNegative) ||
		(a == domain.StanceNegative && b == domain.StancePositive)
}

// numericContentDiffers reports whether the two guidelines carry different
// numeric payloads (doses, thresholds, durations) in their text.
func numericContentDiffers(a, b *domain.Guideline) bool {
	numsA := numberPattern.FindAllString(a.Summary+" "+a.Recommendation, -1)
	numsB := numberPattern.FindAllString(b.Summary+" "+b.Recommendation, -1)
	if len(numsA) == 0 || len(numsB) == 0 {
		return false
	}
	setA := make(map[string]bool, len(numsA))
	for _, n := range numsA {
		setA[n] = true
	}
	for _, n := range numsB {
		if !setA[n] {
			return true
		}
	}
	setB := make(map[string]bool, len(numsB))
	for _, n := range numsB {
		setB[n] = true
	}
	for _, n := range numsA {
		if !setB[n] {
			return true
		}
	}
	return false
}

// guidelineTopicTokens tokenizes the leading clause of a guideline title,
// with the issuing organization's name removed. Subtitle text after the
// first colon or dash, and organization names, carry no topical signal and
// dilute the Jaccard comparison.
func guidelineTopicTokens(g *domain.Guideline) map[string]bool {
	name := g.Name
	for _, sep := range []string{":", " - ", "–", "—"} {
		if i := strings.Index(name, sep); i >= 0 {
			name = name[:i]
		}
	}
	tokens := topicTokens(name)
	for _, org := range strings.FieldsFunc(strings.ToLower(g.Organization), func(r rune) bool {
		return r == '/' || r == ' '
	}) {
		delete(tokens, org)
	}
	return tokens
}

func topicTokens(name string) map[string]bool {
	tokens := make(map[string]bool)
	for _, field := range strings.Fields(strings.ToLower(name)) {
		field = strings.Trim(field, ".,:;()[]\"'")
		if field == "" || topicStopwords[field] {
			continue
		}
		tokens[field] = true
	}
	return tokens
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for t := range a {
		if b[t] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// sharedTopic renders the intersection tokens as a stable display topic.
func sharedTopic(a, b map[string]bool) string {
	var shared []string
	for t := range a {
		if b[t] {
			shared = append(shared, t)
		}
	}
	if len(shared) == 0 {
		return "unspecified"
	}
	// Stable order for reproducible topics and deduplication.
	sort.Strings(shared)
	return strings.Join(shared, " ")
}

// dedupeConflicts drops conflicts whose topics overlap more than 0.7 with an
// earlier-reported conflict. Reporting the same disagreement once per
// guideline pairing adds noise without information.
func dedupeConflicts(conflicts []domain.Conflict) []domain.Conflict {
	var out []domain.Conflict
	for _, c := range conflicts {
		duplicate := false
		for _, kept := range out {
			if jaccard(topicTokens(c.Topic), topicTokens(kept.Topic)) > 0.7 {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, c)
		}
	}
	return out
}
