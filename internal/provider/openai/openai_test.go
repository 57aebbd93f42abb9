package openai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Cyclone1070/memeagent/internal/conversation"
	"github.com/Cyclone1070/memeagent/internal/provider"
	"github.com/Cyclone1070/memeagent/internal/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// MockModel implements Model for testing.
type MockModel struct {
	GenerateContentFunc func(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

func (m *MockModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, messages, options...)
	}
	return nil, errors.New("GenerateContentFunc not set")
}

func callOptions(options []llms.CallOption) llms.CallOptions {
	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}
	return opts
}

func TestGenerate_TextResponse(t *testing.T) {
	var gotMessages []llms.MessageContent
	var gotOpts llms.CallOptions
	mock := &MockModel{
		GenerateContentFunc: func(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
			gotMessages = messages
			gotOpts = callOptions(options)
			return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "Hello!"}}}, nil
		},
	}
	p := New(mock, "gpt-4o-mini")

	msg, err := p.Generate(context.Background(), &provider.Request{
		Instructions: "Be funny.",
		Messages:     conversation.History{conversation.User("hi")},
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello!", msg.Content)
	assert.Equal(t, conversation.RoleAssistant, msg.Role)
	require.Len(t, gotMessages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, gotMessages[0].Role)
	assert.Equal(t, llms.TextContent{Text: "Be funny."}, gotMessages[0].Parts[0])
	assert.Equal(t, llms.ChatMessageTypeHuman, gotMessages[1].Role)
	assert.Empty(t, gotOpts.Tools)
	assert.Equal(t, "gpt-4o-mini", p.Model())
}

func TestGenerate_ToolCallResponse(t *testing.T) {
	var gotOpts llms.CallOptions
	mock := &MockModel{
		GenerateContentFunc: func(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
			gotOpts = callOptions(options)
			return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
				ToolCalls: []llms.ToolCall{{
					ID:   "call_1",
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      "Imgflip_CreateMeme",
						Arguments: `{"template_id":"181913649","top_text":"Sleeping in"}`,
					},
				}},
			}}}, nil
		},
	}
	decl := tool.Declaration{
		Name: "Imgflip_CreateMeme",
		Parameters: &tool.Schema{
			Type:       tool.TypeObject,
			Properties: map[string]*tool.Schema{"template_id": {Type: tool.TypeString}},
		},
	}

	msg, err := New(mock, "gpt-4o").Generate(context.Background(), &provider.Request{
		Messages: conversation.History{conversation.User("drake meme")},
		Tools:    []tool.Declaration{decl},
	})

	require.NoError(t, err)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "call_1", msg.ToolCalls[0].ID)
	assert.Equal(t, "Imgflip_CreateMeme", msg.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"template_id":"181913649","top_text":"Sleeping in"}`, string(msg.ToolCalls[0].Function.Arguments))

	require.Len(t, gotOpts.Tools, 1)
	assert.Equal(t, "function", gotOpts.Tools[0].Type)
	assert.Equal(t, "Imgflip_CreateMeme", gotOpts.Tools[0].Function.Name)
	params, err := json.Marshal(gotOpts.Tools[0].Function.Parameters)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object","properties":{"template_id":{"type":"string"}}}`, string(params))
}

func TestGenerate_EmptyArguments_BecomeEmptyObject(t *testing.T) {
	mock := &MockModel{
		GenerateContentFunc: func(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
			return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
				ToolCalls: []llms.ToolCall{{ID: "c", FunctionCall: &llms.FunctionCall{Name: "Imgflip_GetPopularMemes"}}},
			}}}, nil
		},
	}

	msg, err := New(mock, "m").Generate(context.Background(), &provider.Request{})

	require.NoError(t, err)
	assert.Equal(t, `{}`, string(msg.ToolCalls[0].Function.Arguments))
}

func TestGenerate_NoChoices_ReturnsEmptyResponse(t *testing.T) {
	mock := &MockModel{
		GenerateContentFunc: func(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
			return &llms.ContentResponse{}, nil
		},
	}

	_, err := New(mock, "m").Generate(context.Background(), &provider.Request{})

	assert.ErrorIs(t, err, provider.ErrEmptyResponse)
}

func TestGenerate_ClientError_IsMapped(t *testing.T) {
	mock := &MockModel{
		GenerateContentFunc: func(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
			return nil, errors.New("API returned unexpected status code: 429: Rate limit reached")
		},
	}

	_, err := New(mock, "m").Generate(context.Background(), &provider.Request{})

	assert.ErrorIs(t, err, provider.ErrRateLimit)
	assert.True(t, provider.IsRetryable(err))
}

func TestGenerate_ContextCanceled_PassesThrough(t *testing.T) {
	mock := &MockModel{
		GenerateContentFunc: func(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
			return nil, context.Canceled
		},
	}

	_, err := New(mock, "m").Generate(context.Background(), &provider.Request{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, provider.IsRetryable(err))
}

func TestToMessageContents_ToolExchange(t *testing.T) {
	history := conversation.History{
		conversation.User("make a meme"),
		{
			Role:    conversation.RoleAssistant,
			Content: "Searching.",
			ToolCalls: []conversation.ToolCall{{
				ID:       "call_1",
				Function: conversation.FunctionCall{Name: "Imgflip_SearchMemes", Arguments: json.RawMessage(`{"query":"drake"}`)},
			}},
		},
		{Role: conversation.RoleTool, ToolCallID: "call_1", ToolName: "Imgflip_SearchMemes", Content: "181913649"},
	}

	got, err := toMessageContents("", history)

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, llms.ChatMessageTypeAI, got[1].Role)
	require.Len(t, got[1].Parts, 2)
	assert.Equal(t, llms.ToolCall{
		ID:           "call_1",
		Type:         "function",
		FunctionCall: &llms.FunctionCall{Name: "Imgflip_SearchMemes", Arguments: `{"query":"drake"}`},
	}, got[1].Parts[1])
	assert.Equal(t, llms.ChatMessageTypeTool, got[2].Role)
	assert.Equal(t, llms.ToolCallResponse{ToolCallID: "call_1", Name: "Imgflip_SearchMemes", Content: "181913649"}, got[2].Parts[0])
}

func TestToMessageContents_UnknownRole(t *testing.T) {
	_, err := toMessageContents("", conversation.History{{Role: "system", Content: "x"}})
	assert.Error(t, err)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		msg  string
		want error
	}{
		{"status code: 401: Incorrect API key provided", provider.ErrAuthentication},
		{"This model's maximum context length is 128000 tokens", provider.ErrContextLengthExceeded},
		{"status code: 503: overloaded", provider.ErrServiceUnavailable},
		{"dial tcp: lookup api.openai.com: no such host", provider.ErrNetwork},
		{"API returned unexpected status code: 400: bad tool schema", provider.ErrInvalidRequest},
		{"API returned unexpected status code: 502: bad gateway", provider.ErrServiceUnavailable},
		{"read tcp: connection reset after 5000 tokens", provider.ErrNetwork},
		{"request 4001 failed: connection reset", provider.ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.ErrorIs(t, mapError(errors.New(tt.msg)), tt.want)
		})
	}
}
