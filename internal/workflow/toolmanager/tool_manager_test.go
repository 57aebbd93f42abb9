package toolmanager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/Cyclone1070/memeagent/internal/conversation"
	"github.com/Cyclone1070/memeagent/internal/gate"
	"github.com/Cyclone1070/memeagent/internal/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockGate runs every call unless denyFunc says otherwise.
type mockGate struct {
	denyFunc func(call gate.PendingCall) bool
	errFunc  func(call gate.PendingCall) error
	checked  []gate.PendingCall
}

func (m *mockGate) Check(ctx context.Context, call gate.PendingCall, exec tool.Executor) (gate.Verdict, error) {
	m.checked = append(m.checked, call)
	if m.errFunc != nil {
		if err := m.errFunc(call); err != nil {
			return gate.Verdict{}, err
		}
	}
	if m.denyFunc != nil && m.denyFunc(call) {
		return gate.Verdict{Denial: &gate.Denial{ToolName: call.ToolName}}, nil
	}
	out, err := exec(ctx, call.Args)
	if err != nil {
		return gate.Verdict{}, err
	}
	return gate.Verdict{Approved: true, Output: out}, nil
}

type mockTool struct {
	name        string
	declaration tool.Declaration
	executeFunc func(ctx context.Context, args map[string]any) (string, error)
	calls       int
}

func (m *mockTool) Name() string                  { return m.name }
func (m *mockTool) Declaration() tool.Declaration { return m.declaration }
func (m *mockTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	m.calls++
	if m.executeFunc != nil {
		return m.executeFunc(ctx, args)
	}
	return "ok", nil
}

func newMockTool(name string) *mockTool {
	return &mockTool{name: name, declaration: tool.Declaration{Name: name}}
}

func call(id, name, args string) conversation.ToolCall {
	return conversation.ToolCall{
		ID:       id,
		Function: conversation.FunctionCall{Name: name, Arguments: json.RawMessage(args)},
	}
}

func TestRegister_AddsTool(t *testing.T) {
	tm := NewToolManager(&mockGate{})
	tm.Register(newMockTool("test-tool"))

	decls := tm.Declarations()
	assert.Len(t, decls, 1)
	assert.Equal(t, "test-tool", decls[0].Name)
}

func TestRegister_DuplicateName(t *testing.T) {
	tm := NewToolManager(&mockGate{})
	tm.Register(&mockTool{name: "test-tool", declaration: tool.Declaration{Name: "test-tool", Description: "v1"}})
	tm.Register(&mockTool{name: "test-tool", declaration: tool.Declaration{Name: "test-tool", Description: "v2"}})

	decls := tm.Declarations()
	assert.Len(t, decls, 1)
	assert.Equal(t, "v2", decls[0].Description)
}

func TestDeclarations_SortedByName(t *testing.T) {
	tm := NewToolManager(&mockGate{}, newMockTool("z"), newMockTool("a"), newMockTool("m"))

	decls := tm.Declarations()
	assert.Len(t, decls, 3)
	assert.Equal(t, "a", decls[0].Name)
	assert.Equal(t, "m", decls[1].Name)
	assert.Equal(t, "z", decls[2].Name)
	assert.Equal(t, []string{"a", "m", "z"}, tm.Names())
}

func TestExecute_Approved_ReturnsToolMessage(t *testing.T) {
	mt := newMockTool("Imgflip_CreateMeme")
	mt.executeFunc = func(ctx context.Context, args map[string]any) (string, error) {
		assert.Equal(t, "181913649", args["template_id"])
		return "https://i.imgflip.com/abc123.jpg", nil
	}
	g := &mockGate{}
	tm := NewToolManager(g, mt)

	out, err := tm.Execute(context.Background(), call("c1", "Imgflip_CreateMeme", `{"template_id":"181913649"}`))

	require.NoError(t, err)
	assert.False(t, out.Denied())
	assert.Equal(t, conversation.Message{
		Role:       conversation.RoleTool,
		ToolCallID: "c1",
		ToolName:   "Imgflip_CreateMeme",
		Content:    "https://i.imgflip.com/abc123.jpg",
	}, out.Message)
	require.Len(t, g.checked, 1)
	assert.Equal(t, "Imgflip_CreateMeme", g.checked[0].ToolName)
	assert.Equal(t, map[string]any{"template_id": "181913649"}, g.checked[0].Args)
}

func TestExecute_Denied_ReturnsDenialWithoutRunning(t *testing.T) {
	mt := newMockTool("Imgflip_CreateMeme")
	g := &mockGate{denyFunc: func(call gate.PendingCall) bool { return true }}
	tm := NewToolManager(g, mt)

	out, err := tm.Execute(context.Background(), call("c1", "Imgflip_CreateMeme", `{}`))

	require.NoError(t, err)
	require.True(t, out.Denied())
	assert.Equal(t, "Imgflip_CreateMeme", out.Denial.ToolName)
	assert.Empty(t, out.Message.Content)
	assert.Equal(t, 0, mt.calls)
}

func TestExecute_UnknownTool_SuggestsAndListsTools(t *testing.T) {
	g := &mockGate{}
	tm := NewToolManager(g, newMockTool("Imgflip_CreateMeme"), newMockTool("Imgflip_SearchMemes"))

	out, err := tm.Execute(context.Background(), call("c1", "CreateMeme", `{}`))

	require.NoError(t, err)
	assert.False(t, out.Denied())
	assert.Equal(t, conversation.RoleTool, out.Message.Role)
	assert.Contains(t, out.Message.Content, `Error: tool "CreateMeme" does not exist.`)
	assert.Contains(t, out.Message.Content, "Did you mean: Imgflip_CreateMeme?")
	assert.Contains(t, out.Message.Content, "Imgflip_SearchMemes")
	assert.Empty(t, g.checked, "unknown tools never reach the gate")
}

func TestExecute_InvalidArguments_ReturnsSchema(t *testing.T) {
	mt := &mockTool{name: "Imgflip_CreateMeme", declaration: tool.Declaration{
		Name:       "Imgflip_CreateMeme",
		Parameters: &tool.Schema{Type: tool.TypeObject, Required: []string{"template_id"}},
	}}
	g := &mockGate{}
	tm := NewToolManager(g, mt)

	out, err := tm.Execute(context.Background(), call("c1", "Imgflip_CreateMeme", `{not json`))

	require.NoError(t, err)
	assert.Contains(t, out.Message.Content, `Error: invalid arguments for tool "Imgflip_CreateMeme"`)
	assert.Contains(t, out.Message.Content, "template_id")
	assert.Empty(t, g.checked)
	assert.Equal(t, 0, mt.calls)
}

func TestExecute_EmptyOrNullArguments_AreEmptyMap(t *testing.T) {
	for _, raw := range []string{``, `null`, `  `} {
		t.Run(fmt.Sprintf("%q", raw), func(t *testing.T) {
			g := &mockGate{}
			tm := NewToolManager(g, newMockTool("Imgflip_GetPopularMemes"))

			_, err := tm.Execute(context.Background(), call("c", "Imgflip_GetPopularMemes", raw))

			require.NoError(t, err)
			require.Len(t, g.checked, 1)
			assert.Equal(t, map[string]any{}, g.checked[0].Args)
		})
	}
}

func TestExecute_ToolError_IsReportedToModel(t *testing.T) {
	mt := newMockTool("Imgflip_CreateMeme")
	mt.executeFunc = func(ctx context.Context, args map[string]any) (string, error) {
		return "", errors.New("template not found")
	}
	tm := NewToolManager(&mockGate{}, mt)

	out, err := tm.Execute(context.Background(), call("c1", "Imgflip_CreateMeme", `{}`))

	require.NoError(t, err)
	assert.Equal(t, "Error: template not found", out.Message.Content)
	assert.Equal(t, "c1", out.Message.ToolCallID)
}

func TestExecute_ConfirmationError_AbortsTurn(t *testing.T) {
	g := &mockGate{errFunc: func(call gate.PendingCall) error {
		return fmt.Errorf("%w: %w", gate.ErrConfirmation, errors.New("stdin closed"))
	}}
	tm := NewToolManager(g, newMockTool("Imgflip_CreateMeme"))

	_, err := tm.Execute(context.Background(), call("c1", "Imgflip_CreateMeme", `{}`))

	assert.ErrorIs(t, err, gate.ErrConfirmation)
}

func TestExecute_ContextCancelled_AbortsTurn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mt := newMockTool("Imgflip_SearchMemes")
	mt.executeFunc = func(ctx context.Context, args map[string]any) (string, error) {
		cancel()
		return "", ctx.Err()
	}
	tm := NewToolManager(&mockGate{}, mt)

	_, err := tm.Execute(ctx, call("c1", "Imgflip_SearchMemes", `{}`))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecute_RealGate_PolicyAndConfirmer(t *testing.T) {
	var asked []string
	confirmer := confirmFunc(func(ctx context.Context, call gate.PendingCall) (bool, error) {
		asked = append(asked, call.ToolName)
		return false, nil
	})
	search := newMockTool("Imgflip_SearchMemes")
	create := newMockTool("Imgflip_CreateMeme")
	g := gate.New(gate.Policy{Confirm: []string{"Imgflip_CreateMeme"}}, confirmer)
	tm := NewToolManager(g, search, create)

	out, err := tm.Execute(context.Background(), call("a", "Imgflip_SearchMemes", `{"query":"drake"}`))
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Message.Content)

	out, err = tm.Execute(context.Background(), call("b", "Imgflip_CreateMeme", `{"template_id":"181913649"}`))
	require.NoError(t, err)
	assert.True(t, out.Denied())

	assert.Equal(t, []string{"Imgflip_CreateMeme"}, asked)
	assert.Equal(t, 1, search.calls)
	assert.Equal(t, 0, create.calls)
}

type confirmFunc func(ctx context.Context, call gate.PendingCall) (bool, error)

func (f confirmFunc) Confirm(ctx context.Context, call gate.PendingCall) (bool, error) {
	return f(ctx, call)
}
