package tool

import "context"

// Type represents JSON Schema types.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// Schema represents a JSON Schema for tool parameters.
type Schema struct {
	Type        Type               `json:"type" yaml:"type"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required    []string           `json:"required,omitempty" yaml:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty" yaml:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty" yaml:"enum,omitempty"`
}

// Declaration declares a tool's function signature for the LLM.
type Declaration struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Parameters  *Schema `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Executor runs a tool with the arguments chosen by the LLM.
type Executor func(ctx context.Context, args map[string]any) (string, error)

// Tool is a named capability the agent can invoke.
type Tool interface {
	// Name returns the identifier the LLM uses to call the tool.
	Name() string

	// Declaration returns the tool's schema for the LLM.
	Declaration() Declaration

	// Execute runs the tool. Errors are reported back to the LLM by the caller.
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Func adapts a declaration and an executor into a Tool.
func Func(decl Declaration, exec Executor) Tool {
	return &funcTool{decl: decl, exec: exec}
}

type funcTool struct {
	decl Declaration
	exec Executor
}

func (f *funcTool) Name() string             { return f.decl.Name }
func (f *funcTool) Declaration() Declaration { return f.decl }

func (f *funcTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return f.exec(ctx, args)
}
