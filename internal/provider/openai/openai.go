// Package openai implements provider.Provider for OpenAI models through
// langchaingo.
package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Cyclone1070/memeagent/internal/conversation"
	"github.com/Cyclone1070/memeagent/internal/provider"
	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

// Model is the subset of llms.Model used by the provider.
type Model interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// OpenAIProvider implements the Provider interface for OpenAI chat models.
type OpenAIProvider struct {
	llm       Model
	modelName string
}

// New creates a provider on top of an existing langchaingo model.
func New(llm Model, modelName string) *OpenAIProvider {
	return &OpenAIProvider{
		llm:       llm,
		modelName: modelName,
	}
}

// Dial creates a langchaingo OpenAI client for modelName. An empty token
// falls back to OPENAI_API_KEY.
func Dial(modelName, token string) (*OpenAIProvider, error) {
	opts := []lcopenai.Option{lcopenai.WithModel(modelName)}
	if token != "" {
		opts = append(opts, lcopenai.WithToken(token))
	}
	llm, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return New(llm, modelName), nil
}

// Generate sends the conversation to the model and returns the assistant message.
func (p *OpenAIProvider) Generate(ctx context.Context, req *provider.Request) (*conversation.Message, error) {
	messages, err := toMessageContents(req.Instructions, req.Messages)
	if err != nil {
		return nil, err
	}

	var opts []llms.CallOption
	if len(req.Tools) > 0 {
		opts = append(opts, llms.WithTools(toTools(req.Tools)))
	}

	slog.Debug("openai generate", "model", p.modelName, "messages", len(messages), "tools", len(req.Tools))

	resp, err := p.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, mapError(err)
	}

	return fromResponse(resp)
}

// Model returns the active model name.
func (p *OpenAIProvider) Model() string {
	return p.modelName
}
