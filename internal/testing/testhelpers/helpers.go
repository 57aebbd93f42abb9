// Package testhelpers provides shared fakes for end-to-end tests of the chat
// session.
package testhelpers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Cyclone1070/memeagent/internal/broker"
	"github.com/Cyclone1070/memeagent/internal/conversation"
	"github.com/Cyclone1070/memeagent/internal/provider"
	"github.com/Cyclone1070/memeagent/internal/tool"
)

// MemeURL is the URL MockBroker returns for Imgflip_CreateMeme.
const MemeURL = "https://i.imgflip.com/abc123.jpg"

// MemeArgs are the arguments of the Drake Hotline Bling meme about Monday
// mornings.
func MemeArgs() map[string]any {
	return map[string]any{
		"template_id": "181913649",
		"top_text":    "Sleeping in on Saturday",
		"bottom_text": "Waking up on Monday mornings",
	}
}

type responseKind int

const (
	responseText responseKind = iota
	responseToolCall
	responseToolResult
)

type scriptedResponse struct {
	kind     responseKind
	text     string
	toolName string
	args     map[string]any
}

// MockProvider is a controllable mock for an LLM provider. Responses are
// returned in the order they were added.
type MockProvider struct {
	mu            sync.Mutex
	responses     []scriptedResponse
	responseIndex int
	modelName     string
	Requests      []*provider.Request

	// OnGenerateCalled is a callback for observing Generate calls
	OnGenerateCalled func(*provider.Request)
}

// NewMockProvider creates a new mock provider with default settings
func NewMockProvider() *MockProvider {
	return &MockProvider{modelName: "mock-model"}
}

// WithTextResponse adds a text response to the queue
func (m *MockProvider) WithTextResponse(text string) *MockProvider {
	m.responses = append(m.responses, scriptedResponse{kind: responseText, text: text})
	return m
}

// WithToolCallResponse adds a response calling one tool
func (m *MockProvider) WithToolCallResponse(toolName string, args map[string]any) *MockProvider {
	m.responses = append(m.responses, scriptedResponse{kind: responseToolCall, toolName: toolName, args: args})
	return m
}

// WithToolResultResponse adds a text response made of prefix and the content
// of the last tool message in the request.
func (m *MockProvider) WithToolResultResponse(prefix string) *MockProvider {
	m.responses = append(m.responses, scriptedResponse{kind: responseToolResult, text: prefix})
	return m
}

// Generate implements provider.Provider
func (m *MockProvider) Generate(ctx context.Context, req *provider.Request) (*conversation.Message, error) {
	if m.OnGenerateCalled != nil {
		m.OnGenerateCalled(req)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)

	if m.responseIndex >= len(m.responses) {
		// Return a default text response if we run out
		msg := conversation.Assistant("Done")
		return &msg, nil
	}

	resp := m.responses[m.responseIndex]
	m.responseIndex++

	switch resp.kind {
	case responseToolCall:
		args, err := json.Marshal(resp.args)
		if err != nil {
			return nil, err
		}
		return &conversation.Message{
			Role: conversation.RoleAssistant,
			ToolCalls: []conversation.ToolCall{{
				ID:       fmt.Sprintf("call_%d", m.responseIndex),
				Function: conversation.FunctionCall{Name: resp.toolName, Arguments: args},
			}},
		}, nil
	case responseToolResult:
		var result string
		for _, msg := range req.Messages {
			if msg.Role == conversation.RoleTool {
				result = msg.Content
			}
		}
		msg := conversation.Assistant(resp.text + result)
		return &msg, nil
	default:
		msg := conversation.Assistant(resp.text)
		return &msg, nil
	}
}

// Model implements provider.Provider
func (m *MockProvider) Model() string {
	return m.modelName
}

// GenerateCalls returns how many times Generate ran.
func (m *MockProvider) GenerateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// MockBroker hosts the Imgflip toolkit in memory.
type MockBroker struct {
	mu            sync.Mutex
	AuthorizeFunc func(ctx context.Context, toolName, userID string) (*broker.Authorization, error)
	ExecuteFunc   func(ctx context.Context, toolName string, args map[string]any) (string, error)
	Executed      []string
	Closed        bool
}

func (m *MockBroker) ListTools(ctx context.Context, toolkit string) ([]broker.Descriptor, error) {
	return []broker.Descriptor{
		{
			Name:          "Imgflip_SearchMemes",
			QualifiedName: "Imgflip.SearchMemes",
			Toolkit:       toolkit,
			Description:   "Search meme templates",
			Parameters: &tool.Schema{
				Type:       tool.TypeObject,
				Properties: map[string]*tool.Schema{"query": {Type: tool.TypeString}},
				Required:   []string{"query"},
			},
		},
		{
			Name:          "Imgflip_CreateMeme",
			QualifiedName: "Imgflip.CreateMeme",
			Toolkit:       toolkit,
			Description:   "Create a meme",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"template_id": {Type: tool.TypeString},
					"top_text":    {Type: tool.TypeString},
					"bottom_text": {Type: tool.TypeString},
				},
				Required: []string{"template_id"},
			},
		},
	}, nil
}

func (m *MockBroker) Authorize(ctx context.Context, toolName, userID string) (*broker.Authorization, error) {
	if m.AuthorizeFunc != nil {
		return m.AuthorizeFunc(ctx, toolName, userID)
	}
	return &broker.Authorization{Status: broker.AuthCompleted}, nil
}

func (m *MockBroker) WaitForAuthorization(ctx context.Context, auth *broker.Authorization) (*broker.Authorization, error) {
	return &broker.Authorization{ID: auth.ID, Status: broker.AuthCompleted}, nil
}

func (m *MockBroker) Execute(ctx context.Context, toolName, userID string, args map[string]any) (string, error) {
	m.mu.Lock()
	m.Executed = append(m.Executed, toolName)
	m.mu.Unlock()

	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, toolName, args)
	}
	if toolName == "Imgflip.CreateMeme" {
		return MemeURL, nil
	}
	return `[{"id":"181913649","name":"Drake Hotline Bling"}]`, nil
}

func (m *MockBroker) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// ExecutedTools returns the qualified names of executed tools in order.
func (m *MockBroker) ExecutedTools() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Executed))
	copy(out, m.Executed)
	return out
}
