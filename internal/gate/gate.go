// Package gate asks the user before a tool call is allowed to run.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Cyclone1070/memeagent/internal/tool"
)

// ErrConfirmation is returned when the confirmer fails to produce an answer.
// It is not a denial.
var ErrConfirmation = errors.New("failed to get user confirmation")

// PendingCall is a tool invocation selected by the agent and not yet executed.
type PendingCall struct {
	ToolName string
	Args     map[string]any
}

// Denial reports that a pending call was rejected and never executed.
type Denial struct {
	ToolName string
}

// Verdict is the outcome of a gated call: either Approved with the executor's
// output, or Denied with a non-nil Denial.
type Verdict struct {
	Approved bool
	Output   string
	Denial   *Denial
}

// Denied reports whether the call was rejected.
func (v Verdict) Denied() bool {
	return v.Denial != nil
}

// Confirmer presents a pending call to the user and collects a yes/no answer.
// It blocks until the user answers or ctx is cancelled.
type Confirmer interface {
	Confirm(ctx context.Context, call PendingCall) (bool, error)
}

// Gate decides whether tool calls may proceed.
// It holds no per-call state; every Check is a fresh PENDING decision.
type Gate struct {
	policy    Policy
	confirmer Confirmer
}

// New creates a Gate enforcing policy and asking confirmer when needed.
func New(policy Policy, confirmer Confirmer) *Gate {
	return &Gate{
		policy:    policy,
		confirmer: confirmer,
	}
}

// Check runs exec for call if it is allowed. On approval the executor is
// invoked exactly once with the original arguments and its output and error
// are returned unchanged. On denial exec is never invoked.
func (g *Gate) Check(ctx context.Context, call PendingCall, exec tool.Executor) (Verdict, error) {
	if call.ToolName == "" {
		return Verdict{}, fmt.Errorf("tool name cannot be empty")
	}

	if g.policy.Denies(call.ToolName) {
		slog.Debug("tool denied by policy", "tool", call.ToolName)
		return deny(call), nil
	}

	if g.policy.RequiresConfirmation(call.ToolName) {
		approved, err := g.confirmer.Confirm(ctx, call)
		if err != nil {
			return Verdict{}, fmt.Errorf("%w: %w", ErrConfirmation, err)
		}
		if !approved {
			slog.Debug("tool denied by user", "tool", call.ToolName)
			return deny(call), nil
		}
	}

	out, err := exec(ctx, call.Args)
	if err != nil {
		return Verdict{}, err
	}
	return Verdict{Approved: true, Output: out}, nil
}

func deny(call PendingCall) Verdict {
	return Verdict{Denial: &Denial{ToolName: call.ToolName}}
}
