package service

import (
	"fmt"
	"strings"

	"github.com/clinical-evidence-server/internal/domain"
)

const (
	maxAbstractChars = 600
	maxSectionChars  = 400
)

// PromptBuilder renders the gathered evidence into the context string handed
// to the answer generator, and assembles the final instruction prompt from
// the query, its classification and the routed intent.
type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildEvidenceContext renders the package section by section in a fixed
// order: anchors first, then synthesized evidence, then primary literature,
// then labels, then the web fallback. Detected conflicts are appended so the
// generator must acknowledge disagreement instead of papering over it.
func (b *PromptBuilder) BuildEvidenceContext(pkg *domain.EvidencePackage, conflicts []domain.Conflict) string {
	if pkg == nil || pkg.TotalCount() == 0 {
		return "No evidence was retrieved for this question."
	}

	var sb strings.Builder
	sb.WriteString("# Retrieved Evidence\n")

	if len(pkg.AnchorGuidelines) > 0 {
		sb.WriteString("\n## Anchor Guidelines (authoritative for this scenario)\n")
		for _, g := range pkg.AnchorGuidelines {
			writeGuideline(&sb, g)
		}
	}

	otherGuidelines := 0
	for _, group := range [][]domain.Guideline{
		pkg.Guidelines, pkg.WHOGuidelines, pkg.CDCGuidance,
		pkg.NICEGuidelines, pkg.USPSTFRecommendations,
	} {
		otherGuidelines += len(group)
	}
	if otherGuidelines > 0 {
		sb.WriteString("\n## Clinical Practice Guidelines\n")
		for _, group := range [][]domain.Guideline{
			pkg.Guidelines, pkg.WHOGuidelines, pkg.CDCGuidance,
			pkg.NICEGuidelines, pkg.USPSTFRecommendations,
		} {
			for _, g := range group {
				writeGuideline(&sb, g)
			}
		}
	}

	if len(pkg.CochraneReviews) > 0 {
		sb.WriteString("\n## Cochrane Reviews\n")
		for _, r := range pkg.CochraneReviews {
			fmt.Fprintf(&sb, "- %s (%d). PMID: %s\n  %s\n", r.Title, r.Year, r.PMID, truncate(r.Summary, maxAbstractChars))
		}
	}

	if len(pkg.SystematicReviews) > 0 {
		sb.WriteString("\n## Systematic Reviews and Meta-Analyses\n")
		for _, r := range pkg.SystematicReviews {
			fmt.Fprintf(&sb, "- %s (%s, %d). PMID: %s\n  %s\n", r.Title, r.Journal, r.Year, r.PMID, truncate(r.Abstract, maxAbstractChars))
		}
	}

	if len(pkg.LandmarkTrials) > 0 {
		sb.WriteString("\n## Landmark Trials\n")
		for _, t := range pkg.LandmarkTrials {
			fmt.Fprintf(&sb, "- %s (%s, %d): %s PMID: %s\n", t.Name, t.Condition, t.Year, t.Finding, t.PMID)
		}
	}

	if len(pkg.ClinicalTrials) > 0 {
		sb.WriteString("\n## Registered Clinical Trials\n")
		for _, t := range pkg.ClinicalTrials {
			results := "no posted results"
			if t.HasResults {
				results = "results posted"
			}
			fmt.Fprintf(&sb, "- %s [%s, %s, %s] %s\n", t.Title, t.NCTID, t.Status, results, truncate(t.Summary, maxSectionChars))
		}
	}

	if len(pkg.PubMedArticles)+len(pkg.EuropePMCArticles) > 0 {
		sb.WriteString("\n## Primary Literature\n")
		for _, a := range pkg.PubMedArticles {
			writeArticle(&sb, a)
		}
		for _, a := range pkg.EuropePMCArticles {
			writeArticle(&sb, a)
		}
	}

	if len(pkg.DrugLabels)+len(pkg.FDALabels) > 0 {
		sb.WriteString("\n## Drug Labeling\n")
		for _, labels := range [][]domain.DrugLabel{pkg.DrugLabels, pkg.FDALabels} {
			for _, label := range labels {
				fmt.Fprintf(&sb, "- %s label (%s)\n", label.DrugName, label.Title)
				for _, section := range []string{
					"boxed_warning", "indications_and_usage", "contraindications",
					"dosage_and_administration", "warnings_and_precautions",
					"drug_interactions",
				} {
					if text, ok := label.Sections[section]; ok {
						fmt.Fprintf(&sb, "  %s: %s\n", section, truncate(text, maxSectionChars))
					}
				}
			}
		}
	}

	if len(pkg.WebResults) > 0 {
		sb.WriteString("\n## Supplementary Web Sources (use cautiously, cite by URL)\n")
		for _, w := range pkg.WebResults {
			fmt.Fprintf(&sb, "- %s [%s]\n  %s\n", w.Title, w.URL, truncate(w.Snippet, maxSectionChars))
		}
	}

	if len(conflicts) > 0 {
		sb.WriteString("\n## Detected Guideline Conflicts\n")
		sb.WriteString("The sources below disagree. Present both positions explicitly; do not silently pick one.\n")
		for _, c := range conflicts {
			fmt.Fprintf(&sb, "- [%s] %s\n", c.Severity, c.Description)
			for _, source := range c.Sources {
				fmt.Fprintf(&sb, "    - %s (%d): %s\n", source.Name, source.Year, source.Position)
			}
		}
	}

	return sb.String()
}

// BuildPrompt assembles the generator instruction from the question and the
// pipeline's classification decisions.
func (b *PromptBuilder) BuildPrompt(query string, classification *domain.ClassificationResult, intent *domain.IntentResult) string {
	var sb strings.Builder

	sb.WriteString("Answer the following clinical question using only the evidence provided above.\n\n")
	fmt.Fprintf(&sb, "Question: %s\n", query)

	if classification != nil && !classification.IsGeneral() {
		fmt.Fprintf(&sb, "\nThe question was classified as: %s.\n", classification.Classification)
		if len(classification.AllowedTerms) > 0 {
			fmt.Fprintf(&sb, "Keep the answer focused on: %s.\n", strings.Join(classification.AllowedTerms, ", "))
		}
		if len(classification.ExcludedTerms) > 0 {
			fmt.Fprintf(&sb, "Out of scope for this question: %s.\n", strings.Join(classification.ExcludedTerms, ", "))
		}
	}

	if intent != nil && intent.ShouldRoute && intent.ResponseHint != "" {
		fmt.Fprintf(&sb, "\nResponse guidance: %s\n", intent.ResponseHint)
	}

	sb.WriteString("\nCite concrete identifiers (PMID, NCT, DOI) for every factual claim the evidence supports. ")
	sb.WriteString("If the evidence does not answer part of the question, say so explicitly.")
	return sb.String()
}

func writeGuideline(sb *strings.Builder, g domain.Guideline) {
	fmt.Fprintf(sb, "- %s (%s, %d)\n", g.Name, g.Organization, g.Year)
	if g.Recommendation != "" {
		fmt.Fprintf(sb, "  Recommendation: %s\n", truncate(g.Recommendation, maxSectionChars))
	} else if g.Summary != "" {
		fmt.Fprintf(sb, "  %s\n", truncate(g.Summary, maxSectionChars))
	}
}

func writeArticle(sb *strings.Builder, a domain.PubMedArticle) {
	fmt.Fprintf(sb, "- %s (%s, %d). PMID: %s\n", a.Title, a.Journal, a.Year, a.PMID)
	if a.Abstract != "" {
		fmt.Fprintf(sb, "  %s\n", truncate(a.Abstract, maxAbstractChars))
	}
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	cut := s[:limit]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
