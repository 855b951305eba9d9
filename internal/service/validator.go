package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/clinical-evidence-server/internal/domain"
	"github.com/clinical-evidence-server/pkg/embedding"
)

// checkWeights distributes the overall validation score across the checks.
// The values must sum to 1.0; the constructor enforces it.
var checkWeights = map[string]float64{
	domain.CheckReferenceQuality: 0.25,
	domain.CheckReferenceCount:   0.15,
	domain.CheckOffTopic:         0.15,
	domain.CheckAnchorCoverage:   0.15,
	domain.CheckSourceDiversity:  0.10,
	domain.CheckSynthesis:        0.10,
	domain.CheckFalseNoEvidence:  0.10,
}

var (
	pmidPattern = regexp.MustCompile(`(?i)\bPMID[:\s]*(\d{6,9})\b`)
	nctPattern  = regexp.MustCompile(`(?i)\bNCT\d{8}\b`)
	doiPattern  = regexp.MustCompile(`\b10\.\d{4,9}/[^\s,;)\]]+`)

	noEvidencePattern = regexp.MustCompile(`(?i)\b(no (published |available )?evidence|insufficient evidence|could not find any (evidence|studies)|no studies (were )?found)\b`)

	searchEngineURLPattern = regexp.MustCompile(`(?i)\bhttps?://(?:www\.)?(?:google|bing|duckduckgo|search\.yahoo|baidu)\.[^\s,;)\]]+`)

	synthesisMarkers = []string{
		"consistent with", "in contrast", "whereas", "both the", "across",
		"similarly", "however", "taken together", "corroborat", "aligns with",
	}
)

const passingOverallScore = 70

// CitationValidator audits a generated answer against the evidence package
// it was built from. The report is diagnostic: callers log and persist it
// but never reject the answer. Semantic off-topic detection uses the
// embedding capability when one is available and degrades to keyword
// overlap when it is not.
type CitationValidator struct {
	embedder domain.EmbeddingGenerator
	logger   *logrus.Logger
}

// NewCitationValidator builds the validator. A mis-weighted check table is a
// programming error, so construction panics rather than degrading silently.
func NewCitationValidator(embedder domain.EmbeddingGenerator, logger *logrus.Logger) *CitationValidator {
	total := 0.0
	for _, w := range checkWeights {
		total += w
	}
	if math.Abs(total-1.0) > 1e-9 {
		panic(fmt.Sprintf("validator check weights sum to %f, want 1.0", total))
	}
	return &CitationValidator{embedder: embedder, logger: logger}
}

// Validate runs every check and combines them into the weighted report.
func (v *CitationValidator) Validate(ctx context.Context, answer, query string, pkg *domain.EvidencePackage) *domain.ValidationReport {
	if pkg == nil {
		pkg = domain.NewEvidencePackage()
	}

	identifiers := extractIdentifiers(answer)

	checks := []domain.CheckResult{
		v.checkReferenceCount(identifiers, pkg),
		v.checkReferenceQuality(answer, identifiers, pkg),
		v.checkAnchorCoverage(answer, pkg),
		v.checkSourceDiversity(answer, identifiers, pkg),
		v.checkSynthesis(answer, identifiers, pkg),
		v.checkOffTopic(ctx, answer, query),
		v.checkFalseNoEvidence(answer, pkg),
	}

	weighted := 0.0
	for _, check := range checks {
		weighted += float64(check.Score) * checkWeights[check.Name]
	}
	overall := int(math.Round(weighted))

	report := &domain.ValidationReport{
		Checks:       checks,
		OverallScore: overall,
		Passed:       overall >= passingOverallScore,
	}

	if v.logger != nil {
		v.logger.WithFields(logrus.Fields{
			"overall_score": report.OverallScore,
			"passed":        report.Passed,
			"issues":        len(report.AllIssues()),
		}).Info("Validated generated answer")
	}
	return report
}

// extractIdentifiers pulls every PMID, NCT ID and DOI cited in the answer.
func extractIdentifiers(answer string) []string {
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		id = strings.ToLower(strings.TrimSpace(id))
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, match := range pmidPattern.FindAllStringSubmatch(answer, -1) {
		add(match[1])
	}
	for _, match := range nctPattern.FindAllString(answer, -1) {
		add(match)
	}
	for _, match := range doiPattern.FindAllString(answer, -1) {
		add(strings.TrimRight(match, "."))
	}
	return ids
}

// checkReferenceCount expects between six and ten concrete citations when
// the package has evidence to cite. Fewer reads as under-grounded; more
// reads as citation padding.
func (v *CitationValidator) checkReferenceCount(identifiers []string, pkg *domain.EvidencePackage) domain.CheckResult {
	result := domain.CheckResult{Name: domain.CheckReferenceCount}

	if pkg.TotalCount() == 0 {
		// Nothing to cite; an uncited answer is the correct shape.
		result.Passed = true
		result.Score = 100
		return result
	}

	switch n := len(identifiers); {
	case n >= 6 && n <= 10:
		result.Passed = true
		result.Score = 100
	case n > 10:
		result.Score = 60
		result.Issues = append(result.Issues, fmt.Sprintf("answer cites %d references, above the expected maximum of 10", n))
	case n >= 3:
		result.Score = 60
		result.Issues = append(result.Issues, fmt.Sprintf("answer cites %d references, below the expected minimum of 6", n))
	case n >= 1:
		result.Score = 30
		result.Issues = append(result.Issues, fmt.Sprintf("answer cites only %d concrete references", n))
	default:
		result.Score = 0
		result.Issues = append(result.Issues, "answer cites no concrete references despite available evidence")
	}
	return result
}

// checkReferenceQuality verifies that every cited identifier exists in the
// gathered package and that no citation points at a generic search engine.
// An identifier the pipeline never retrieved is presumed fabricated.
func (v *CitationValidator) checkReferenceQuality(answer string, identifiers []string, pkg *domain.EvidencePackage) domain.CheckResult {
	result := domain.CheckResult{Name: domain.CheckReferenceQuality}

	searchURLs := searchEngineURLPattern.FindAllString(answer, -1)
	for _, u := range searchURLs {
		result.Issues = append(result.Issues, fmt.Sprintf("citation points at a generic search engine: %s", u))
	}

	if len(identifiers) == 0 {
		result.Score = 50
		if pkg.TotalCount() == 0 {
			result.Passed = true
			result.Score = 100
		}
	} else {
		verified := 0
		for _, id := range identifiers {
			if pkg.HasIdentifier(id) {
				verified++
			} else {
				result.Issues = append(result.Issues, fmt.Sprintf("cited identifier %q not found in gathered evidence", id))
			}
		}
		result.Score = verified * 100 / len(identifiers)
		result.Passed = verified == len(identifiers)
	}

	if len(searchURLs) > 0 {
		result.Passed = false
		result.Score /= 2
	}
	return result
}

// checkAnchorCoverage expects the answer to engage with the curated anchor
// guidelines when the scenario had them: at least two must be textually
// referenced, or all of them when fewer than two exist.
func (v *CitationValidator) checkAnchorCoverage(answer string, pkg *domain.EvidencePackage) domain.CheckResult {
	result := domain.CheckResult{Name: domain.CheckAnchorCoverage}

	if len(pkg.AnchorGuidelines) == 0 {
		result.Passed = true
		result.Score = 100
		return result
	}

	lowered := strings.ToLower(answer)
	mentioned := 0
	for _, anchor := range pkg.AnchorGuidelines {
		if anchorMentioned(lowered, anchor) {
			mentioned++
		}
	}

	required := 2
	if len(pkg.AnchorGuidelines) < required {
		required = len(pkg.AnchorGuidelines)
	}

	result.Score = mentioned * 100 / len(pkg.AnchorGuidelines)
	result.Passed = mentioned >= required
	if !result.Passed {
		result.Issues = append(result.Issues,
			fmt.Sprintf("answer references %d of %d curated anchor guidelines, fewer than the %d required", mentioned, len(pkg.AnchorGuidelines), required))
	}
	return result
}

// anchorMentioned looks for the guideline's organization or a distinctive
// fragment of its name. Full formal titles are rarely quoted verbatim.
func anchorMentioned(loweredAnswer string, anchor domain.Guideline) bool {
	if anchor.Organization != "" {
		for _, org := range strings.FieldsFunc(anchor.Organization, func(r rune) bool { return r == '/' }) {
			if strings.Contains(loweredAnswer, strings.ToLower(org)) {
				return true
			}
		}
	}
	// Trial acronyms and short names (ARISTOTLE, SPRINT) are single
	// distinctive tokens.
	for _, token := range strings.Fields(strings.ToLower(anchor.Name)) {
		if len(token) >= 5 && !topicStopwords[token] && strings.Contains(loweredAnswer, token) {
			return true
		}
	}
	return false
}

// sourceClassesCited counts how many distinct evidence classes the answer
// draws on: literature, trials, guidelines, labels.
func sourceClassesCited(answer string, identifiers []string, pkg *domain.EvidencePackage) int {
	lowered := strings.ToLower(answer)
	classes := 0

	citesLiterature := false
	citesTrials := false
	for _, id := range identifiers {
		if strings.HasPrefix(id, "nct") {
			citesTrials = true
		} else {
			citesLiterature = true
		}
	}
	if citesLiterature {
		classes++
	}
	if citesTrials || mentionsAnyTrialName(lowered, pkg) {
		classes++
	}
	if mentionsAnyGuideline(lowered, pkg) {
		classes++
	}
	if strings.Contains(lowered, "label") || strings.Contains(lowered, "prescribing information") {
		classes++
	}
	return classes
}

func mentionsAnyTrialName(loweredAnswer string, pkg *domain.EvidencePackage) bool {
	for _, trial := range pkg.LandmarkTrials {
		if strings.Contains(loweredAnswer, strings.ToLower(trial.Name)) {
			return true
		}
	}
	return false
}

func mentionsAnyGuideline(loweredAnswer string, pkg *domain.EvidencePackage) bool {
	for _, guideline := range pkg.AllGuidelines() {
		if anchorMentioned(loweredAnswer, guideline) {
			return true
		}
	}
	return false
}

// checkSourceDiversity rewards answers that cite across evidence classes
// rather than leaning on a single source type.
func (v *CitationValidator) checkSourceDiversity(answer string, identifiers []string, pkg *domain.EvidencePackage) domain.CheckResult {
	result := domain.CheckResult{Name: domain.CheckSourceDiversity}

	if pkg.TotalCount() == 0 {
		result.Passed = true
		result.Score = 100
		return result
	}

	switch classes := sourceClassesCited(answer, identifiers, pkg); {
	case classes >= 3:
		result.Passed = true
		result.Score = 100
	case classes == 2:
		result.Passed = true
		result.Score = 70
	case classes == 1:
		result.Score = 40
		result.Issues = append(result.Issues, "answer draws on a single evidence class")
	default:
		result.Score = 0
		result.Issues = append(result.Issues, "answer does not identifiably draw on any gathered evidence class")
	}
	return result
}

// checkSynthesis looks for the answer actually relating sources to each
// other instead of listing them.
func (v *CitationValidator) checkSynthesis(answer string, identifiers []string, pkg *domain.EvidencePackage) domain.CheckResult {
	result := domain.CheckResult{Name: domain.CheckSynthesis}

	if pkg.TotalCount() == 0 || sourceClassesCited(answer, identifiers, pkg) < 2 {
		// Synthesis is only expected when multiple classes are in play.
		result.Passed = true
		result.Score = 100
		return result
	}

	lowered := strings.ToLower(answer)
	for _, marker := range synthesisMarkers {
		if strings.Contains(lowered, marker) {
			result.Passed = true
			result.Score = 100
			return result
		}
	}
	result.Score = 40
	result.Issues = append(result.Issues, "answer cites multiple evidence classes without relating them")
	return result
}

// checkOffTopic verifies the answer is about the question. With an
// embedding backend the check is cosine similarity; without one it degrades
// to content-word overlap.
func (v *CitationValidator) checkOffTopic(ctx context.Context, answer, query string) domain.CheckResult {
	result := domain.CheckResult{Name: domain.CheckOffTopic}

	if v.embedder != nil && v.embedder.Available() {
		answerVec, errA := v.embedder.Embed(ctx, answer)
		queryVec, errB := v.embedder.Embed(ctx, query)
		if errA == nil && errB == nil {
			similarity := embedding.Cosine(answerVec, queryVec)
			result.Score = int(math.Round(math.Max(0, similarity) * 100))
			result.Passed = similarity >= 0.5
			if !result.Passed {
				result.Issues = append(result.Issues, fmt.Sprintf("answer/query semantic similarity %.2f below 0.5", similarity))
			}
			return result
		}
		// Embedding errors fall through to the keyword heuristic.
	}

	overlap := contentWordOverlap(query, answer)
	result.Score = int(math.Round(overlap * 100))
	result.Passed = overlap >= 0.4
	if !result.Passed {
		result.Issues = append(result.Issues, "answer shares little vocabulary with the question")
	}
	return result
}

// contentWordOverlap returns the fraction of the query's content words that
// appear in the answer.
func contentWordOverlap(query, answer string) float64 {
	loweredAnswer := strings.ToLower(answer)
	total, found := 0, 0
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.Trim(word, "?.,:;!\"'")
		if len(word) < 4 || topicStopwords[word] {
			continue
		}
		total++
		if strings.Contains(loweredAnswer, word) {
			found++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(found) / float64(total)
}

// checkFalseNoEvidence catches answers claiming an evidence desert while the
// gather pass found substantial evidence: two or more guidelines, or any
// Cochrane review.
func (v *CitationValidator) checkFalseNoEvidence(answer string, pkg *domain.EvidencePackage) domain.CheckResult {
	result := domain.CheckResult{Name: domain.CheckFalseNoEvidence}

	substantial := pkg.GuidelineCount() >= 2 || len(pkg.CochraneReviews) >= 1
	if noEvidencePattern.MatchString(answer) && substantial {
		result.Score = 0
		result.Issues = append(result.Issues,
			fmt.Sprintf("answer claims no evidence exists but %d guidelines and %d Cochrane reviews were gathered",
				pkg.GuidelineCount(), len(pkg.CochraneReviews)))
		return result
	}
	result.Passed = true
	result.Score = 100
	return result
}
