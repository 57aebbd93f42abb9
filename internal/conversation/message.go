// Package conversation holds the dialogue history shared between the REPL,
// the agent runtime and the LLM providers.
package conversation

import "encoding/json"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// FunctionCall is the function part of a tool call.
type FunctionCall struct {
	Name      string
	Arguments json.RawMessage
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID       string
	Function FunctionCall
}

// Message is a single turn in the conversation.
type Message struct {
	Role    Role
	Content string

	// Assistant messages that request tools.
	ToolCalls []ToolCall

	// Tool messages answering a call.
	ToolCallID string
	ToolName   string
}

// History is the ordered list of turns of a conversation.
type History []Message

// User returns a user turn.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Assistant returns an assistant text turn.
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Clone returns a copy of h that can be appended to without aliasing h.
func (h History) Clone() History {
	out := make(History, len(h))
	copy(out, h)
	return out
}

// Last returns the final message of h, or false if h is empty.
func (h History) Last() (Message, bool) {
	if len(h) == 0 {
		return Message{}, false
	}
	return h[len(h)-1], true
}
