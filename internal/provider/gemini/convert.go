package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Cyclone1070/memeagent/internal/conversation"
	"github.com/Cyclone1070/memeagent/internal/provider"
	"github.com/Cyclone1070/memeagent/internal/tool"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

const (
	roleUser  = "user"
	roleModel = "model"
)

// toGeminiContents converts the history to Gemini Content format.
// Consecutive tool results are merged into one user content, which is what
// Gemini expects after a model turn with several function calls.
func toGeminiContents(history conversation.History) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(history))

	for _, msg := range history {
		switch msg.Role {
		case conversation.RoleUser:
			if msg.Content == "" {
				continue
			}
			contents = append(contents, &genai.Content{
				Role:  roleUser,
				Parts: []*genai.Part{{Text: msg.Content}},
			})

		case conversation.RoleAssistant:
			content, err := assistantToGeminiContent(msg)
			if err != nil {
				return nil, err
			}
			if content != nil {
				contents = append(contents, content)
			}

		case conversation.RoleTool:
			part := &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:   msg.ToolCallID,
					Name: msg.ToolName,
					Response: map[string]any{
						"content": msg.Content,
					},
				},
			}
			if last := lastContent(contents); last != nil && isFunctionResponses(last) {
				last.Parts = append(last.Parts, part)
				continue
			}
			contents = append(contents, &genai.Content{
				Role:  roleUser,
				Parts: []*genai.Part{part},
			})

		default:
			return nil, fmt.Errorf("unsupported message role %q", msg.Role)
		}
	}

	return contents, nil
}

func assistantToGeminiContent(msg conversation.Message) (*genai.Content, error) {
	parts := make([]*genai.Part, 0, len(msg.ToolCalls)+1)

	if msg.Content != "" {
		parts = append(parts, &genai.Part{Text: msg.Content})
	}

	for _, call := range msg.ToolCalls {
		args := map[string]any{}
		if len(call.Function.Arguments) > 0 {
			if err := json.Unmarshal(call.Function.Arguments, &args); err != nil {
				return nil, fmt.Errorf("invalid arguments for %s: %w", call.Function.Name, err)
			}
		}
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   call.ID,
				Name: call.Function.Name,
				Args: args,
			},
		})
	}

	// Skip empty messages
	if len(parts) == 0 {
		return nil, nil
	}

	return &genai.Content{Role: roleModel, Parts: parts}, nil
}

func lastContent(contents []*genai.Content) *genai.Content {
	if len(contents) == 0 {
		return nil
	}
	return contents[len(contents)-1]
}

func isFunctionResponses(c *genai.Content) bool {
	if c.Role != roleUser || len(c.Parts) == 0 {
		return false
	}
	for _, p := range c.Parts {
		if p.FunctionResponse == nil {
			return false
		}
	}
	return true
}

// toGeminiConfig builds the request config with the system instructions.
func toGeminiConfig(instructions string) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if instructions != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: instructions}},
		}
	}
	return config
}

// toGeminiTools converts tool declarations to Gemini tools.
func toGeminiTools(decls []tool.Declaration) []*genai.Tool {
	if len(decls) == 0 {
		return nil
	}

	functionDeclarations := make([]*genai.FunctionDeclaration, 0, len(decls))

	for _, decl := range decls {
		fd := &genai.FunctionDeclaration{
			Name:        decl.Name,
			Description: decl.Description,
		}

		if decl.Parameters != nil {
			fd.Parameters = toGeminiSchema(decl.Parameters)
		}

		functionDeclarations = append(functionDeclarations, fd)
	}

	return []*genai.Tool{
		{FunctionDeclarations: functionDeclarations},
	}
}

// toGeminiSchema converts a tool Schema to a Gemini Schema, recursively.
func toGeminiSchema(s *tool.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	schema := &genai.Schema{
		Type:        toGeminiType(s.Type),
		Description: s.Description,
	}

	if len(s.Properties) > 0 {
		schema.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			schema.Properties[name] = toGeminiSchema(prop)
		}
	}

	if len(s.Required) > 0 {
		schema.Required = s.Required
	}
	if len(s.Enum) > 0 {
		schema.Enum = s.Enum
	}
	if s.Items != nil {
		schema.Items = toGeminiSchema(s.Items)
	}

	return schema
}

// toGeminiType converts a tool Type to Gemini Type.
func toGeminiType(t tool.Type) genai.Type {
	switch t {
	case tool.TypeString:
		return genai.TypeString
	case tool.TypeNumber:
		return genai.TypeNumber
	case tool.TypeInteger:
		return genai.TypeInteger
	case tool.TypeBoolean:
		return genai.TypeBoolean
	case tool.TypeArray:
		return genai.TypeArray
	case tool.TypeObject:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// fromGeminiResponse converts a Gemini response to an assistant message.
func fromGeminiResponse(resp *genai.GenerateContentResponse) (*conversation.Message, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &provider.ProviderError{
			Code:    provider.ErrorCodeEmptyResponse,
			Message: "no candidates in response",
		}
	}

	candidate := resp.Candidates[0]

	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, &provider.ProviderError{
			Code:    provider.ErrorCodeContentBlocked,
			Message: "content blocked by safety filters",
		}
	}

	if candidate.FinishReason == genai.FinishReasonMaxTokens {
		return nil, &provider.ProviderError{
			Code:    provider.ErrorCodeContextLength,
			Message: "response truncated due to max tokens",
		}
	}

	if candidate.Content == nil {
		return nil, &provider.ProviderError{
			Code:    provider.ErrorCodeEmptyResponse,
			Message: "candidate has no content",
		}
	}

	msg := &conversation.Message{Role: conversation.RoleAssistant}
	var text strings.Builder

	for _, part := range candidate.Content.Parts {
		if part.Text != "" && !part.Thought {
			text.WriteString(part.Text)
		}
		if part.FunctionCall == nil {
			continue
		}
		args, err := json.Marshal(part.FunctionCall.Args)
		if err != nil {
			return nil, fmt.Errorf("failed to encode arguments for %s: %w", part.FunctionCall.Name, err)
		}
		id := part.FunctionCall.ID
		if id == "" {
			// Gemini doesn't always provide IDs
			id = uuid.NewString()
		}
		msg.ToolCalls = append(msg.ToolCalls, conversation.ToolCall{
			ID: id,
			Function: conversation.FunctionCall{
				Name:      part.FunctionCall.Name,
				Arguments: args,
			},
		})
	}

	msg.Content = text.String()
	return msg, nil
}

// mapGeminiError maps Gemini API errors to provider errors.
func mapGeminiError(err error) error {
	if err == nil {
		return nil
	}

	if apiErr, ok := asAPIError(err); ok {
		switch apiErr.Code {
		case 401, 403:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeAuth,
				Message:    "authentication failed",
				Underlying: err,
			}
		case 429:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeRateLimit,
				Message:    "rate limit exceeded",
				Underlying: err,
				Retryable:  true,
			}
		case 400:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeInvalidRequest,
				Message:    fmt.Sprintf("invalid request: %s", apiErr.Message),
				Underlying: err,
			}
		case 500, 502, 503, 504:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeUnavailable,
				Message:    "service unavailable",
				Underlying: err,
				Retryable:  true,
			}
		default:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeNetwork,
				Message:    fmt.Sprintf("API error: %s", apiErr.Message),
				Underlying: err,
				Retryable:  true,
			}
		}
	}

	// Generic network error
	return &provider.ProviderError{
		Code:       provider.ErrorCodeNetwork,
		Message:    "network error",
		Underlying: err,
		Retryable:  true,
	}
}

// asAPIError finds a genai.APIError in err's chain, by value or by pointer.
func asAPIError(err error) (genai.APIError, bool) {
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch v := any(e).(type) {
		case genai.APIError:
			return v, true
		case *genai.APIError:
			if v != nil {
				return *v, true
			}
		}
	}
	return genai.APIError{}, false
}
