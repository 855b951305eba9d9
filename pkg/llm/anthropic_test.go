package llm

import (
	"context"
	"errors"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinical-evidence-server/internal/domain"
)

type fakeMessager struct {
	lastParams anthropic.MessageNewParams
	response   *anthropic.Message
	err        error
}

func (f *fakeMessager) New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error) {
	f.lastParams = params
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func textMessage(blocks ...string) *anthropic.Message {
	message := &anthropic.Message{}
	for _, text := range blocks {
		message.Content = append(message.Content, anthropic.ContentBlockUnion{Type: "text", Text: text})
	}
	return message
}

func TestNewAnthropicGenerator_RequiresAPIKey(t *testing.T) {
	_, err := NewAnthropicGenerator(AnthropicConfig{}, nil)
	assert.ErrorIs(t, err, domain.ErrMissingCredential)

	_, err = NewAnthropicGenerator(AnthropicConfig{APIKey: "   "}, nil)
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
}

func TestAnthropicGenerator_Generate(t *testing.T) {
	fake := &fakeMessager{response: textMessage("Apixaban is preferred ", "(PMID: 21870978).")}
	generator := &AnthropicGenerator{messages: fake, model: "claude-sonnet-4-5", maxTokens: 1024}

	answer, err := generator.Generate(context.Background(), "Question: apixaban?", "# Retrieved Evidence")
	require.NoError(t, err)
	assert.Equal(t, "Apixaban is preferred (PMID: 21870978).", answer)

	assert.Equal(t, anthropic.Model("claude-sonnet-4-5"), fake.lastParams.Model)
	assert.Equal(t, int64(1024), fake.lastParams.MaxTokens)
	require.Len(t, fake.lastParams.System, 1)
	assert.Contains(t, fake.lastParams.System[0].Text, "Do not invent citations")
}

func TestAnthropicGenerator_EvidenceContextPrecedesPrompt(t *testing.T) {
	fake := &fakeMessager{response: textMessage("answer")}
	generator := &AnthropicGenerator{messages: fake, model: "m", maxTokens: 10}

	_, err := generator.Generate(context.Background(), "the prompt", "the evidence")
	require.NoError(t, err)

	require.Len(t, fake.lastParams.Messages, 1)
	require.Len(t, fake.lastParams.Messages[0].Content, 1)
	text := fake.lastParams.Messages[0].Content[0].OfText.Text
	assert.Equal(t, "the evidence\n\nthe prompt", text)
}

func TestAnthropicGenerator_ErrorsWrapped(t *testing.T) {
	fake := &fakeMessager{err: errors.New("overloaded")}
	generator := &AnthropicGenerator{messages: fake, model: "m", maxTokens: 10}

	_, err := generator.Generate(context.Background(), "p", "")
	assert.ErrorContains(t, err, "generating answer")
}

func TestAnthropicGenerator_EmptyResponseIsError(t *testing.T) {
	fake := &fakeMessager{response: textMessage("   ")}
	generator := &AnthropicGenerator{messages: fake, model: "m", maxTokens: 10}

	_, err := generator.Generate(context.Background(), "p", "")
	assert.ErrorContains(t, err, "empty response")
}

func TestNoopGenerator(t *testing.T) {
	_, err := NewNoop().Generate(context.Background(), "p", "e")
	assert.ErrorIs(t, err, domain.ErrGeneratorUnavailable)
}
