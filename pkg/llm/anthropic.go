// Package llm holds the external text-generation collaborator. The pipeline
// treats the generator as opaque: it receives a prompt and an evidence
// context string and returns text. Everything the system knows about the
// clinical question travels in the prompt, never in the model choice.
package llm

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"

	"github.com/clinical-evidence-server/internal/domain"
)

const systemPrompt = "You are a clinical evidence assistant answering questions for medical professionals. " +
	"Ground every claim in the evidence provided to you, cite concrete identifiers (PMID, NCT, DOI) where available, " +
	"and state plainly when the evidence does not answer the question. Do not invent citations."

// AnthropicMessager is the slice of the Anthropic SDK the generator uses.
// Tests substitute it to avoid network calls.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicGenerator produces answers via the Anthropic Messages API.
type AnthropicGenerator struct {
	messages  AnthropicMessager
	model     string
	maxTokens int64
	logger    *logrus.Logger
}

// AnthropicConfig contains configuration for the generator.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int64
}

// NewAnthropicGenerator creates the generator. A missing API key is a
// configuration error surfaced at startup, not at request time.
func NewAnthropicGenerator(config AnthropicConfig, logger *logrus.Logger) (*AnthropicGenerator, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, fmt.Errorf("creating answer generator: %w", domain.ErrMissingCredential)
	}
	if config.Model == "" {
		config.Model = "claude-sonnet-4-5"
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 4096
	}

	client := anthropic.NewClient(option.WithAPIKey(config.APIKey))
	return &AnthropicGenerator{
		messages:  &client.Messages,
		model:     config.Model,
		maxTokens: config.MaxTokens,
		logger:    logger,
	}, nil
}

// Generate sends the prompt and the assembled evidence context and returns
// the concatenated text blocks of the response.
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt, evidenceContext string) (string, error) {
	userContent := prompt
	if evidenceContext != "" {
		userContent = evidenceContext + "\n\n" + prompt
	}

	resp, err := g.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   g.maxTokens,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(userContent))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	answer := sb.String()

	if g.logger != nil {
		g.logger.WithFields(logrus.Fields{
			"model":        g.model,
			"answer_chars": len(answer),
		}).Debug("Generated answer")
	}
	if strings.TrimSpace(answer) == "" {
		return "", fmt.Errorf("generating answer: empty response")
	}
	return answer, nil
}

// Noop is the generator for deployments without generation credentials.
// The classify and gather contracts still work; only answer synthesis is
// unavailable.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (Noop) Generate(context.Context, string, string) (string, error) {
	return "", domain.ErrGeneratorUnavailable
}
