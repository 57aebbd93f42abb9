// Package toolmanager routes model tool calls through the confirmation gate
// to the registered tools.
package toolmanager

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Cyclone1070/memeagent/internal/conversation"
	"github.com/Cyclone1070/memeagent/internal/gate"
	"github.com/Cyclone1070/memeagent/internal/tool"
	"github.com/Cyclone1070/memeagent/internal/workflow"
	"github.com/sahilm/fuzzy"
)

// gatekeeper decides whether a call may run.
type gatekeeper interface {
	Check(ctx context.Context, call gate.PendingCall, exec tool.Executor) (gate.Verdict, error)
}

type ToolManager struct {
	registry map[string]tool.Tool
	gate     gatekeeper
}

func NewToolManager(g gatekeeper, tools ...tool.Tool) *ToolManager {
	tm := &ToolManager{
		registry: make(map[string]tool.Tool),
		gate:     g,
	}
	for _, t := range tools {
		tm.Register(t)
	}
	return tm
}

func (m *ToolManager) Register(t tool.Tool) {
	m.registry[t.Name()] = t
}

func (m *ToolManager) Declarations() []tool.Declaration {
	decls := make([]tool.Declaration, 0, len(m.registry))
	for _, t := range m.registry {
		decls = append(decls, t.Declaration())
	}
	sort.Slice(decls, func(i, j int) bool {
		return decls[i].Name < decls[j].Name
	})
	return decls
}

// Names returns the registered tool names in sorted order.
func (m *ToolManager) Names() []string {
	names := make([]string, 0, len(m.registry))
	for name := range m.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute handles one tool call. Unknown tools, malformed arguments and tool
// failures become a tool message for the model. A denial is returned as an
// outcome. Only cancellation and confirmation failures are returned as errors.
func (m *ToolManager) Execute(ctx context.Context, tc conversation.ToolCall) (workflow.ToolOutcome, error) {
	t, ok := m.registry[tc.Function.Name]
	if !ok {
		declsJSON, _ := json.MarshalIndent(m.Declarations(), "", "  ")
		errMsg := fmt.Sprintf("Error: tool %q does not exist.", tc.Function.Name)
		if suggestions := m.suggest(tc.Function.Name); len(suggestions) > 0 {
			errMsg += fmt.Sprintf(" Did you mean: %s?", strings.Join(suggestions, ", "))
		}
		errMsg += fmt.Sprintf("\n\nAvailable tools:\n%s", declsJSON)
		return toolMessage(tc, errMsg), nil
	}

	args, err := decodeArgs(tc.Function.Arguments)
	if err != nil {
		declJSON, _ := json.MarshalIndent(t.Declaration(), "", "  ")
		errMsg := fmt.Sprintf("Error: invalid arguments for tool %q: %v\n\nExpected schema:\n%s", tc.Function.Name, err, declJSON)
		return toolMessage(tc, errMsg), nil
	}

	verdict, err := m.gate.Check(ctx, gate.PendingCall{ToolName: t.Name(), Args: args}, t.Execute)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return workflow.ToolOutcome{}, ctxErr
		}
		if errors.Is(err, gate.ErrConfirmation) {
			return workflow.ToolOutcome{}, err
		}
		slog.Debug("tool failed", "tool", t.Name(), "error", err)
		return toolMessage(tc, fmt.Sprintf("Error: %v", err)), nil
	}

	if verdict.Denied() {
		return workflow.ToolOutcome{Denial: verdict.Denial}, nil
	}

	if err := ctx.Err(); err != nil {
		return workflow.ToolOutcome{}, err
	}

	return toolMessage(tc, verdict.Output), nil
}

// suggest returns registered names close to name.
func (m *ToolManager) suggest(name string) []string {
	var out []string
	for _, match := range fuzzy.Find(name, m.Names()) {
		out = append(out, match.Str)
		if len(out) == 3 {
			break
		}
	}
	return out
}

func decodeArgs(raw json.RawMessage) (map[string]any, error) {
	args := map[string]any{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return args, nil
	}
	if err := json.Unmarshal(trimmed, &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func toolMessage(tc conversation.ToolCall, content string) workflow.ToolOutcome {
	return workflow.ToolOutcome{
		Message: conversation.Message{
			Role:       conversation.RoleTool,
			ToolCallID: tc.ID,
			ToolName:   tc.Function.Name,
			Content:    content,
		},
	}
}
