package service

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/clinical-evidence-server/internal/domain"
)

// PatternIntentRouter assigns a coarse intent from raw query text via
// per-intent regex families. It is deliberately conservative: routing is
// only enabled above a 0.8 confidence cutoff, and an ambiguous tie between
// intents disables routing entirely. The router must fail toward the generic
// path rather than mis-route.
type PatternIntentRouter struct {
	families    []intentFamily
	signalTerms *regexp.Regexp
	logger      *logrus.Logger
}

type intentFamily struct {
	intent   domain.Intent
	patterns []*regexp.Regexp
	hint     string
}

// intentPatterns declares one regex family per intent. Declaration order
// fixes iteration order so confidence is reproducible.
var intentPatterns = []struct {
	intent   domain.Intent
	patterns []string
	hint     string
}{
	{
		intent: domain.IntentResearchSynthesis,
		patterns: []string{
			`(?i)\bwhat does the (evidence|literature|research|data) (say|show|suggest)\b`,
			`(?i)\b(systematic review|meta-analysis|meta analysis|evidence base|current evidence)\b`,
			`(?i)\b(summarize|synthesize) the (evidence|studies|trials|literature)\b`,
			`(?i)\b(landmark|pivotal) (trial|study|studies)\b`,
		},
		hint: "Lead with the strength and direction of the evidence; cite systematic reviews before single trials.",
	},
	{
		intent: domain.IntentTreatmentPlanning,
		patterns: []string{
			`(?i)\bhow (should|do) (i|we|you) (treat|manage)\b`,
			`(?i)\b(treatment|management) (plan|strategy|approach|algorithm)\b`,
			`(?i)\b(next step|best approach|optimal (therapy|treatment|management))\b`,
			`(?i)\b(initiate|start|escalate|step up) (therapy|treatment)\b`,
		},
		hint: "Structure the answer as a stepwise management plan anchored to guideline recommendations.",
	},
	{
		intent: domain.IntentDrugSafety,
		patterns: []string{
			`(?i)\b(side effect|adverse (event|effect|reaction)|toxicity|safety profile)\b`,
			`(?i)\b(is it safe|safety of|risk of (bleeding|harm))\b`,
			`(?i)\b(black box|boxed) warning\b`,
			`(?i)\bcontraindicat(ed|ion|ions)\b`,
		},
		hint: "Lead with label warnings and contraindications; distinguish absolute from relative contraindications.",
	},
	{
		intent: domain.IntentDiagnosisSupport,
		patterns: []string{
			`(?i)\b(differential diagnosis|ddx)\b`,
			`(?i)\bhow (to|do (i|we|you)) (diagnose|confirm|rule out)\b`,
			`(?i)\b(diagnostic (criteria|workup|approach|test))\b`,
			`(?i)\bwhat (could|might) (cause|explain)\b`,
		},
		hint: "Organize by pre-test probability; name the diagnostic criteria and the confirmatory tests.",
	},
	{
		intent: domain.IntentDosingGuidance,
		patterns: []string{
			`(?i)\b(what|which|correct|right|appropriate) dose\b`,
			`(?i)\b(dosing|dosage|dose adjustment|renal dosing|hepatic dosing)\b`,
			`(?i)\bhow (much|many) (mg|units|milligrams)\b`,
			`(?i)\b(titrate|titration|loading dose|maintenance dose)\b`,
		},
		hint: "State the dose, the adjustment triggers, and the monitoring parameters explicitly.",
	},
	{
		intent: domain.IntentScreening,
		patterns: []string{
			`(?i)\b(screen(ing)? (for|recommendation|interval)|when to screen)\b`,
			`(?i)\b(uspstf|preventive|prevention) (recommendation|guideline|services)\b`,
			`(?i)\bat what age (should|do)\b`,
		},
		hint: "Anchor to the current screening recommendation, its grade, and the eligible population.",
	},
	{
		intent: domain.IntentPrognosis,
		patterns: []string{
			`(?i)\b(prognosis|survival|mortality|life expectancy|outcome)\b`,
			`(?i)\b(5-year|five-year|long-term) (survival|outcome)\b`,
			`(?i)\bwhat (is|are) the (chances|odds|risk) of\b`,
		},
		hint: "Quantify outcomes with absolute numbers and time horizons where the evidence reports them.",
	},
	{
		intent: domain.IntentInteractionCheck,
		patterns: []string{
			`(?i)\b(drug(-| )drug interaction|interacts? with|interaction between)\b`,
			`(?i)\b(can (i|you|we) (combine|co-administer|take .* with))\b`,
			`(?i)\b(concomitant|together with|along with) (use|therapy|administration)\b`,
		},
		hint: "Name the interaction mechanism, its severity, and the management option for each pair.",
	},
	{
		intent: domain.IntentPatientEducation,
		patterns: []string{
			`(?i)\b(explain|describe) (to|for) (a|the|my) patient\b`,
			`(?i)\b(in (plain|simple) (language|terms)|layman)\b`,
			`(?i)\bpatient(-| )friendly\b`,
		},
		hint: "Use plain language, avoid jargon, and keep the citation density low.",
	},
	{
		intent: domain.IntentGuidelineSummary,
		patterns: []string{
			`(?i)\b(what do the guidelines (say|recommend))\b`,
			`(?i)\b(guideline|society) recommendation(s)?\b`,
			`(?i)\b(acc/aha|nice|who|idsa|kdigo|ada) (guideline|recommendation)\b`,
			`(?i)\bclass (i|ii|iii) recommendation\b`,
		},
		hint: "Quote the recommendation class and level of evidence; note where guidelines disagree.",
	},
}

// signalMedicalTerms is the fixed list of terms that nudge confidence up by
// 0.05 each when present.
var signalMedicalTerms = []string{
	"patient", "treatment", "therapy", "diagnosis", "clinical", "guideline",
	"evidence", "trial", "dose", "medication", "contraindication", "risk",
	"efficacy", "mortality", "renal", "hepatic",
}

// NewPatternIntentRouter compiles all intent pattern families once.
func NewPatternIntentRouter(logger *logrus.Logger) *PatternIntentRouter {
	r := &PatternIntentRouter{logger: logger}
	for _, entry := range intentPatterns {
		family := intentFamily{intent: entry.intent, hint: entry.hint}
		for _, p := range entry.patterns {
			family.patterns = append(family.patterns, regexp.MustCompile(p))
		}
		r.families = append(r.families, family)
	}
	r.signalTerms = compileKeywordPattern(signalMedicalTerms)
	return r
}

// DetectIntent scores every pattern family against the query and returns the
// best intent with its confidence.
//
// Confidence: base = min(matches x 0.3, 1.0); +0.1 over 15 words and +0.1
// more over 25; +0.05 per signal medical term; x0.7 under 8 words; x0.9
// without a question mark. ShouldRoute requires confidence > 0.8 and a
// non-default intent; a tie for the highest match count disables routing.
func (r *PatternIntentRouter) DetectIntent(query string) *domain.IntentResult {
	best := &domain.IntentResult{Intent: domain.IntentGeneral}
	bestCount := 0
	tied := false
	var bestHint string

	for _, family := range r.families {
		count := 0
		for _, p := range family.patterns {
			if p.MatchString(query) {
				count++
			}
		}
		if count == 0 {
			continue
		}
		switch {
		case count > bestCount:
			bestCount = count
			best.Intent = family.intent
			bestHint = family.hint
			tied = false
		case count == bestCount:
			tied = true
		}
	}

	if bestCount == 0 {
		return best
	}

	confidence := float64(bestCount) * 0.3
	if confidence > 1.0 {
		confidence = 1.0
	}

	words := len(strings.Fields(query))
	if words > 15 {
		confidence += 0.1
	}
	if words > 25 {
		confidence += 0.1
	}

	confidence += 0.05 * float64(len(r.signalTerms.FindAllString(query, -1)))

	if words < 8 {
		confidence *= 0.7
	}
	if !strings.Contains(query, "?") {
		confidence *= 0.9
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	best.Confidence = confidence
	best.MatchCount = bestCount
	best.ResponseHint = bestHint

	if tied {
		// Ambiguous intent defaults to the generic path.
		best.Intent = domain.IntentGeneral
		best.ShouldRoute = false
		best.ResponseHint = ""
	} else {
		best.ShouldRoute = confidence > 0.8 && best.Intent != domain.IntentGeneral
	}

	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{
			"intent":       best.Intent,
			"confidence":   best.Confidence,
			"match_count":  best.MatchCount,
			"should_route": best.ShouldRoute,
			"ambiguous":    tied,
		}).Debug("Detected query intent")
	}
	return best
}
