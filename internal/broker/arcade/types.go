package arcade

import (
	"strings"

	"github.com/Cyclone1070/memeagent/internal/broker"
	"github.com/Cyclone1070/memeagent/internal/tool"
)

// listToolsResponse is a page of GET /v1/tools.
type listToolsResponse struct {
	Items      []toolDefinition `json:"items"`
	TotalCount int              `json:"total_count"`
}

type toolDefinition struct {
	Name          string      `json:"name"`
	QualifiedName string      `json:"qualified_name"`
	Description   string      `json:"description"`
	Toolkit       toolkitInfo `json:"toolkit"`
	Input         toolInput   `json:"input"`
}

type toolkitInfo struct {
	Name string `json:"name"`
}

type toolInput struct {
	Parameters []parameter `json:"parameters"`
}

type parameter struct {
	Name        string      `json:"name"`
	Required    bool        `json:"required"`
	Description string      `json:"description"`
	ValueSchema valueSchema `json:"value_schema"`
}

type valueSchema struct {
	ValType      string   `json:"val_type"`
	InnerValType string   `json:"inner_val_type"`
	Enum         []string `json:"enum"`
}

type authorizeRequest struct {
	ToolName string `json:"tool_name"`
	UserID   string `json:"user_id"`
}

type authResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	URL    string `json:"url"`
}

type executeRequest struct {
	ToolName string         `json:"tool_name"`
	Input    map[string]any `json:"input"`
	UserID   string         `json:"user_id"`
}

type executeResponse struct {
	Success bool          `json:"success"`
	Status  string        `json:"status"`
	Output  executeOutput `json:"output"`
}

type executeOutput struct {
	Value any          `json:"value"`
	Error *outputError `json:"error"`
}

type outputError struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// LLMName converts a qualified tool name to the form accepted by LLM function
// calling ("Imgflip.CreateMeme" -> "Imgflip_CreateMeme").
func LLMName(qualified string) string {
	return strings.ReplaceAll(qualified, ".", "_")
}

func (d toolDefinition) qualifiedName() string {
	if d.QualifiedName != "" {
		return d.QualifiedName
	}
	if d.Toolkit.Name != "" {
		return d.Toolkit.Name + "." + d.Name
	}
	return d.Name
}

func (d toolDefinition) toDescriptor() broker.Descriptor {
	qualified := d.qualifiedName()
	return broker.Descriptor{
		Name:          LLMName(qualified),
		QualifiedName: qualified,
		Toolkit:       d.Toolkit.Name,
		Description:   d.Description,
		Parameters:    d.schema(),
	}
}

func (d toolDefinition) schema() *tool.Schema {
	s := &tool.Schema{
		Type:       tool.TypeObject,
		Properties: make(map[string]*tool.Schema, len(d.Input.Parameters)),
	}
	for _, p := range d.Input.Parameters {
		prop := &tool.Schema{
			Type:        toType(p.ValueSchema.ValType),
			Description: p.Description,
			Enum:        p.ValueSchema.Enum,
		}
		if prop.Type == tool.TypeArray {
			prop.Items = &tool.Schema{Type: toType(p.ValueSchema.InnerValType)}
		}
		s.Properties[p.Name] = prop
		if p.Required {
			s.Required = append(s.Required, p.Name)
		}
	}
	return s
}

func toType(valType string) tool.Type {
	switch valType {
	case "integer":
		return tool.TypeInteger
	case "number":
		return tool.TypeNumber
	case "boolean":
		return tool.TypeBoolean
	case "array":
		return tool.TypeArray
	case "json":
		return tool.TypeObject
	default:
		return tool.TypeString
	}
}
