package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Cyclone1070/memeagent/internal/conversation"
	"github.com/Cyclone1070/memeagent/internal/provider"
	"github.com/Cyclone1070/memeagent/internal/tool"
	"github.com/tmc/langchaingo/llms"
)

// toMessageContents converts the instructions and history to langchaingo messages.
func toMessageContents(instructions string, history conversation.History) ([]llms.MessageContent, error) {
	messages := make([]llms.MessageContent, 0, len(history)+1)

	if instructions != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, instructions))
	}

	for _, msg := range history {
		switch msg.Role {
		case conversation.RoleUser:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, msg.Content))

		case conversation.RoleAssistant:
			mc := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if msg.Content != "" {
				mc.Parts = append(mc.Parts, llms.TextContent{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				mc.Parts = append(mc.Parts, llms.ToolCall{
					ID:   call.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      call.Function.Name,
						Arguments: string(call.Function.Arguments),
					},
				})
			}
			messages = append(messages, mc)

		case conversation.RoleTool:
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: msg.ToolCallID,
						Name:       msg.ToolName,
						Content:    msg.Content,
					},
				},
			})

		default:
			return nil, fmt.Errorf("unsupported message role %q", msg.Role)
		}
	}

	return messages, nil
}

// toTools converts tool declarations to langchaingo function tools.
func toTools(decls []tool.Declaration) []llms.Tool {
	tools := make([]llms.Tool, 0, len(decls))
	for _, decl := range decls {
		var params any = map[string]any{"type": "object", "properties": map[string]any{}}
		if decl.Parameters != nil {
			params = decl.Parameters
		}
		tools = append(tools, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        decl.Name,
				Description: decl.Description,
				Parameters:  params,
			},
		})
	}
	return tools
}

// fromResponse converts the first choice to an assistant message.
func fromResponse(resp *llms.ContentResponse) (*conversation.Message, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, &provider.ProviderError{
			Code:    provider.ErrorCodeEmptyResponse,
			Message: "no choices in response",
		}
	}

	choice := resp.Choices[0]
	msg := &conversation.Message{
		Role:    conversation.RoleAssistant,
		Content: choice.Content,
	}

	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		args := json.RawMessage(tc.FunctionCall.Arguments)
		if len(strings.TrimSpace(tc.FunctionCall.Arguments)) == 0 {
			args = json.RawMessage(`{}`)
		}
		msg.ToolCalls = append(msg.ToolCalls, conversation.ToolCall{
			ID: tc.ID,
			Function: conversation.FunctionCall{
				Name:      tc.FunctionCall.Name,
				Arguments: args,
			},
		})
	}

	if choice.StopReason == "content_filter" {
		return nil, &provider.ProviderError{
			Code:    provider.ErrorCodeContentBlocked,
			Message: "content blocked by safety filters",
		}
	}

	return msg, nil
}

// statusPattern matches the HTTP status langchaingo puts in its error text:
// "API returned unexpected status code: 429: ...".
var statusPattern = regexp.MustCompile(`status code: (\d{3})\b`)

// statusCode returns the HTTP status in err's message, or 0.
func statusCode(text string) int {
	m := statusPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	code, _ := strconv.Atoi(m[1])
	return code
}

// mapError maps client errors to provider errors. langchaingo surfaces the
// HTTP status only in the message text.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	text := strings.ToLower(err.Error())
	code := statusCode(text)
	switch {
	case code == 401, strings.Contains(text, "invalid api key"), strings.Contains(text, "incorrect api key"):
		return &provider.ProviderError{Code: provider.ErrorCodeAuth, Message: "authentication failed", Underlying: err}
	case code == 429, strings.Contains(text, "rate limit"):
		return &provider.ProviderError{Code: provider.ErrorCodeRateLimit, Message: "rate limit exceeded", Underlying: err, Retryable: true}
	case strings.Contains(text, "context_length_exceeded"), strings.Contains(text, "maximum context length"):
		return &provider.ProviderError{Code: provider.ErrorCodeContextLength, Message: "context length exceeded", Underlying: err}
	case code >= 500:
		return &provider.ProviderError{Code: provider.ErrorCodeUnavailable, Message: "service unavailable", Underlying: err, Retryable: true}
	case code >= 400:
		return &provider.ProviderError{Code: provider.ErrorCodeInvalidRequest, Message: "invalid request", Underlying: err}
	default:
		return &provider.ProviderError{Code: provider.ErrorCodeNetwork, Message: "network error", Underlying: err, Retryable: true}
	}
}
