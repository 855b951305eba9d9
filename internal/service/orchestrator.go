package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/clinical-evidence-server/internal/audit"
	"github.com/clinical-evidence-server/internal/domain"
)

// PreparedQuery is the output of the classify-and-prepare contract: every
// deterministic, I/O-free decision about a query in one pass.
type PreparedQuery struct {
	Query            string                       `json:"query"`
	Tags             *domain.TagResult            `json:"tags"`
	Classification   *domain.ClassificationResult `json:"classification"`
	Intent           *domain.IntentResult         `json:"intent"`
	AnchorScenarios  []string                     `json:"anchor_scenarios,omitempty"`
	AnchorGuidelines []domain.Guideline           `json:"anchor_guidelines,omitempty"`
}

// EvidenceResult is the output of the gather-evidence contract.
type EvidenceResult struct {
	Prepared    *PreparedQuery           `json:"prepared"`
	Evidence    *domain.EvidencePackage  `json:"evidence"`
	Sufficiency *domain.SufficiencyScore `json:"sufficiency"`
	Conflicts   []domain.Conflict        `json:"conflicts"`
}

// AnswerResult is the output of the full answer pipeline.
type AnswerResult struct {
	RequestID  string                   `json:"request_id"`
	Answer     string                   `json:"answer"`
	Evidence   *EvidenceResult          `json:"evidence"`
	Validation *domain.ValidationReport `json:"validation"`
}

// Pipeline is the orchestrating facade over the pipeline components. It owns
// the wiring between them; each component stays independently testable
// behind its interface.
type Pipeline struct {
	extractor  domain.TagExtractor
	classifier domain.QueryClassifier
	router     domain.IntentRouter
	anchors    domain.AnchorMatcher
	gatherer   domain.EvidenceGatherer
	filter     domain.EvidenceFilter
	conflicts  domain.ConflictDetector
	validator  domain.AnswerValidator
	generator  domain.AnswerGenerator
	prompts    *PromptBuilder
	auditStore audit.Store
	logger     *logrus.Logger
}

// PipelineDeps carries the pipeline's collaborators. AuditStore may be nil.
type PipelineDeps struct {
	Extractor  domain.TagExtractor
	Classifier domain.QueryClassifier
	Router     domain.IntentRouter
	Anchors    domain.AnchorMatcher
	Gatherer   domain.EvidenceGatherer
	Filter     domain.EvidenceFilter
	Conflicts  domain.ConflictDetector
	Validator  domain.AnswerValidator
	Generator  domain.AnswerGenerator
	AuditStore audit.Store
}

func NewPipeline(deps PipelineDeps, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		extractor:  deps.Extractor,
		classifier: deps.Classifier,
		router:     deps.Router,
		anchors:    deps.Anchors,
		gatherer:   deps.Gatherer,
		filter:     deps.Filter,
		conflicts:  deps.Conflicts,
		validator:  deps.Validator,
		generator:  deps.Generator,
		prompts:    NewPromptBuilder(),
		auditStore: deps.AuditStore,
		logger:     logger,
	}
}

// ClassifyAndPrepare runs the deterministic front half of the pipeline:
// tag extraction, rule classification, intent routing and anchor scenario
// detection. No I/O happens here.
func (p *Pipeline) ClassifyAndPrepare(query string) (*PreparedQuery, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}

	tags := p.extractor.Extract(query)
	classification := p.classifier.Classify(tags.DiseaseTags, tags.DecisionTags)
	intent := p.router.DetectIntent(query)

	prepared := &PreparedQuery{
		Query:            query,
		Tags:             tags,
		Classification:   classification,
		Intent:           intent,
		AnchorScenarios:  p.anchors.DetectScenarios(query),
		AnchorGuidelines: p.anchors.GetGuidelines(query),
	}

	if p.logger != nil {
		p.logger.WithFields(logrus.Fields{
			"classification":   classification.Classification,
			"intent":           intent.Intent,
			"anchor_scenarios": len(prepared.AnchorScenarios),
		}).Debug("Prepared query")
	}
	return prepared, nil
}

// GatherEvidence runs classification, the gather fan-out, exclusion
// filtering and conflict detection for a query.
func (p *Pipeline) GatherEvidence(ctx context.Context, query string) (*EvidenceResult, error) {
	prepared, err := p.ClassifyAndPrepare(query)
	if err != nil {
		return nil, err
	}

	pkg, sufficiency, err := p.gatherer.Gather(ctx, query, prepared.Tags.DrugKeywords, prepared.Tags)
	if err != nil {
		return nil, err
	}

	filtered := p.filter.Filter(pkg, prepared.Classification.ExcludedTerms)
	conflicts := p.conflicts.Detect(filtered)

	return &EvidenceResult{
		Prepared:    prepared,
		Evidence:    filtered,
		Sufficiency: sufficiency,
		Conflicts:   conflicts,
	}, nil
}

// ValidateAnswer audits an answer against an evidence package. Exposed as
// its own contract so callers can validate answers they generated
// themselves.
func (p *Pipeline) ValidateAnswer(ctx context.Context, answer, query string, pkg *domain.EvidencePackage) *domain.ValidationReport {
	return p.validator.Validate(ctx, answer, query, pkg)
}

// Answer runs the full pipeline: gather, generate, validate, audit. The
// validation report is attached to the result but never blocks the answer.
func (p *Pipeline) Answer(ctx context.Context, query string) (*AnswerResult, error) {
	result, err := p.GatherEvidence(ctx, query)
	if err != nil {
		return nil, err
	}

	evidenceContext := p.prompts.BuildEvidenceContext(result.Evidence, result.Conflicts)
	prompt := p.prompts.BuildPrompt(query, result.Prepared.Classification, result.Prepared.Intent)

	answer, err := p.generator.Generate(ctx, prompt, evidenceContext)
	if err != nil {
		return nil, err
	}

	report := p.validator.Validate(ctx, answer, query, result.Evidence)

	answerResult := &AnswerResult{
		RequestID:  uuid.NewString(),
		Answer:     answer,
		Evidence:   result,
		Validation: report,
	}
	p.recordAudit(answerResult)
	return answerResult, nil
}

// recordAudit persists the audit record off the request path. A failed
// write is logged and dropped.
func (p *Pipeline) recordAudit(result *AnswerResult) {
	if p.auditStore == nil {
		return
	}

	record := &audit.Record{
		RequestID:        result.RequestID,
		Query:            result.Evidence.Prepared.Query,
		Classification:   string(result.Evidence.Prepared.Classification.Classification),
		Intent:           string(result.Evidence.Prepared.Intent.Intent),
		SufficiencyScore: result.Evidence.Sufficiency.Score,
		SufficiencyLevel: string(result.Evidence.Sufficiency.Level),
		EvidenceCount:    result.Evidence.Evidence.TotalCount(),
		ConflictCount:    len(result.Evidence.Conflicts),
		UsedFallback:     len(result.Evidence.Evidence.WebResults) > 0,
		ValidationScore:  result.Validation.OverallScore,
		ValidationPassed: result.Validation.Passed,
		CreatedAt:        time.Now(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.auditStore.Save(ctx, record); err != nil && p.logger != nil {
			p.logger.WithError(err).Warn("Failed to persist audit record")
		}
	}()
}
