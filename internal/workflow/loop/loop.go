// Package loop runs the agent: it asks the model for the next step and
// executes the tool calls it selects until the model answers with text.
package loop

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Cyclone1070/memeagent/internal/conversation"
	"github.com/Cyclone1070/memeagent/internal/gate"
	"github.com/Cyclone1070/memeagent/internal/provider"
	"github.com/Cyclone1070/memeagent/internal/tool"
	"github.com/Cyclone1070/memeagent/internal/workflow"
)

// DefaultMaxIterations bounds a run when Options.MaxIterations is unset.
const DefaultMaxIterations = 20

type llmProvider interface {
	Generate(ctx context.Context, req *provider.Request) (*conversation.Message, error)
}

type toolManager interface {
	Declarations() []tool.Declaration
	Execute(ctx context.Context, tc conversation.ToolCall) (workflow.ToolOutcome, error)
}

// Status tells how a run ended.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusDenied    Status = "denied"
)

// Result is the outcome of a run. A completed run carries the final text and
// the extended history. A denied run carries the Denial and the history it
// started from; messages of the aborted turn are dropped from History, but
// the results of tool calls that already ran are kept in Executed.
type Result struct {
	Status   Status
	Text     string
	History  conversation.History
	Denial   *gate.Denial
	Executed []conversation.Message
}

// Options configures a Loop.
type Options struct {
	Name          string
	Instructions  string
	Provider      llmProvider
	Tools         toolManager
	Hooks         workflow.Hooks
	MaxIterations int
}

type Loop struct {
	name          string
	instructions  string
	provider      llmProvider
	tools         toolManager
	hooks         workflow.Hooks
	maxIterations int
}

func New(opts Options) *Loop {
	hooks := opts.Hooks
	if hooks == nil {
		hooks = workflow.NopHooks{}
	}
	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Loop{
		name:          opts.Name,
		instructions:  opts.Instructions,
		provider:      opts.Provider,
		tools:         opts.Tools,
		hooks:         hooks,
		maxIterations: maxIterations,
	}
}

// Name returns the agent name reported to hooks.
func (l *Loop) Name() string {
	return l.name
}

// Run continues the conversation in history. The input slice is never
// modified.
func (l *Loop) Run(ctx context.Context, history conversation.History) (*Result, error) {
	messages := history.Clone()
	var executed []conversation.Message
	l.hooks.OnAgentStart(l.name)

	for i := 0; i < l.maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := l.provider.Generate(ctx, &provider.Request{
			Instructions: l.instructions,
			Messages:     messages,
			Tools:        l.tools.Declarations(),
		})
		if err != nil {
			return nil, fmt.Errorf("provider.Generate: %w", err)
		}

		messages = append(messages, *resp)

		if len(resp.ToolCalls) == 0 {
			l.hooks.OnAgentEnd(l.name, resp.Content)
			return &Result{
				Status:  StatusCompleted,
				Text:    resp.Content,
				History: messages,
			}, nil
		}

		for _, tc := range resp.ToolCalls {
			l.hooks.OnToolStart(l.name, tc.Function.Name)

			outcome, err := l.tools.Execute(ctx, tc)
			if err != nil {
				return nil, fmt.Errorf("tools.Execute (%s): %w", tc.Function.Name, err)
			}
			if outcome.Denied() {
				slog.Info("tool call denied", "agent", l.name, "tool", outcome.Denial.ToolName)
				return &Result{
					Status:   StatusDenied,
					History:  history,
					Denial:   outcome.Denial,
					Executed: executed,
				}, nil
			}

			l.hooks.OnToolEnd(l.name, tc.Function.Name, outcome.Message.Content)
			messages = append(messages, outcome.Message)
			executed = append(executed, outcome.Message)
		}
	}

	return nil, fmt.Errorf("max iterations (%d) reached", l.maxIterations)
}
