// Package repl runs the interactive chat session: it reads user input,
// forwards it to the agent and recovers from denied tool calls.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Cyclone1070/memeagent/internal/conversation"
	"github.com/Cyclone1070/memeagent/internal/provider"
	"github.com/Cyclone1070/memeagent/internal/workflow/loop"
)

const (
	Welcome     = "Welcome to the chatbot! Type 'exit' to quit."
	Goodbye     = "Bye..."
	InputPrompt = "You: "
	exitCommand = "exit"

	thinkingStatus = "Thinking..."
	maxNoticeLen   = 200
)

type agent interface {
	Run(ctx context.Context, history conversation.History) (*loop.Result, error)
}

type terminal interface {
	ReadInput(ctx context.Context, prompt string) (string, error)
	WriteMessage(content string)
	WriteNotice(text string)
	WriteSuccess(text string)
	WriteError(text string)
	StartStatus(message string)
}

// REPL owns the conversation history for one session.
type REPL struct {
	agent   agent
	term    terminal
	history conversation.History
}

func New(a agent, t terminal) *REPL {
	return &REPL{agent: a, term: t}
}

// History returns the conversation so far.
func (r *REPL) History() conversation.History {
	return r.history
}

// Run loops until the user types exit, input ends or ctx is cancelled.
// Failed turns are reported and the session continues.
func (r *REPL) Run(ctx context.Context) error {
	r.term.WriteSuccess(Welcome)
	defer r.term.WriteNotice(Goodbye)

	for {
		input, err := r.term.ReadInput(ctx, InputPrompt)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		trimmed := strings.TrimSpace(input)
		if strings.EqualFold(trimmed, exitCommand) {
			return nil
		}
		if trimmed == "" {
			continue
		}

		if err := r.turn(ctx, input); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Debug("turn failed", "error", err)
			r.term.WriteError(fmt.Sprintf("Error: %v", err))
			if hint := retryHint(err); hint != "" {
				r.term.WriteNotice(hint)
			}
		}
	}
}

// turn sends one user message to the agent and records the outcome.
func (r *REPL) turn(ctx context.Context, input string) error {
	r.history = append(r.history, conversation.User(input))
	r.term.StartStatus(thinkingStatus)

	res, err := r.agent.Run(ctx, r.history)
	if err != nil {
		return err
	}

	switch res.Status {
	case loop.StatusDenied:
		for _, msg := range res.Executed {
			r.term.WriteNotice(fmt.Sprintf("%s ran before the denial: %s", msg.ToolName, truncate(msg.Content, maxNoticeLen)))
		}
		r.history = conversation.AppendDenial(res.History, res.Denial.ToolName)
		last, _ := r.history.Last()
		r.term.WriteMessage(last.Content)
	default:
		r.history = res.History
		r.term.WriteMessage(res.Text)
	}
	return nil
}

// retryHint tells the user when a failed turn is worth sending again.
func retryHint(err error) string {
	if !provider.IsRetryable(err) {
		return ""
	}
	if d := provider.GetRetryAfter(err); d != nil {
		return fmt.Sprintf("This looks temporary. Try again in %s.", d.Round(time.Second))
	}
	return "This looks temporary. Try again."
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
