// Package gemini implements provider.Provider on top of Google Gemini.
package gemini

import (
	"context"
	"log/slog"

	"github.com/Cyclone1070/memeagent/internal/conversation"
	"github.com/Cyclone1070/memeagent/internal/provider"
)

// GeminiProvider implements the Provider interface for Google Gemini.
type GeminiProvider struct {
	client    GeminiClient
	modelName string
}

// New creates a new GeminiProvider with the specified client and model.
func New(client GeminiClient, modelName string) *GeminiProvider {
	return &GeminiProvider{
		client:    client,
		modelName: modelName,
	}
}

// Generate sends a request to the Gemini API and returns the assistant message.
func (p *GeminiProvider) Generate(ctx context.Context, req *provider.Request) (*conversation.Message, error) {
	contents, err := toGeminiContents(req.Messages)
	if err != nil {
		return nil, err
	}
	config := toGeminiConfig(req.Instructions)

	if len(req.Tools) > 0 {
		config.Tools = toGeminiTools(req.Tools)
	}

	slog.Debug("gemini generate", "model", p.modelName, "contents", len(contents), "tools", len(req.Tools))

	resp, err := p.client.GenerateContent(ctx, p.modelName, contents, config)
	if err != nil {
		return nil, mapGeminiError(err)
	}

	return fromGeminiResponse(resp)
}

// Model returns the active model name.
func (p *GeminiProvider) Model() string {
	return p.modelName
}
