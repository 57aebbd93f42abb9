// Package workflow holds the types shared by the agent loop and its tool
// manager.
package workflow

import (
	"github.com/Cyclone1070/memeagent/internal/conversation"
	"github.com/Cyclone1070/memeagent/internal/gate"
)

// Hooks observes the lifecycle of an agent run.
// Callbacks run synchronously on the loop's goroutine.
type Hooks interface {
	// OnAgentStart is called once when a run begins.
	OnAgentStart(agent string)

	// OnAgentEnd is called when the agent produced its final answer.
	OnAgentEnd(agent, output string)

	// OnToolStart is called before a tool call is gated and executed.
	OnToolStart(agent, tool string)

	// OnToolEnd is called after a tool call produced a result.
	// It is not called for denied calls.
	OnToolEnd(agent, tool, result string)
}

// NopHooks ignores every callback.
type NopHooks struct{}

func (NopHooks) OnAgentStart(string)              {}
func (NopHooks) OnAgentEnd(string, string)        {}
func (NopHooks) OnToolStart(string, string)       {}
func (NopHooks) OnToolEnd(string, string, string) {}

// ToolOutcome is the result of handling one tool call: either a tool message
// for the model, or a denial that ends the turn.
type ToolOutcome struct {
	Message conversation.Message
	Denial  *gate.Denial
}

// Denied reports whether the call was rejected.
func (o ToolOutcome) Denied() bool {
	return o.Denial != nil
}
