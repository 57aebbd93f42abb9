// Package mcp is a broker.Broker backed by a Model Context Protocol server.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Cyclone1070/memeagent/internal/broker"
	"github.com/Cyclone1070/memeagent/internal/tool"
	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// Session is the part of an MCP client connection the broker uses.
type Session interface {
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// Options selects the MCP server to connect to. Command wins over SSEURL.
type Options struct {
	Command string
	Args    []string
	Env     []string
	SSEURL  string

	ClientName    string
	ClientVersion string
}

// Broker exposes the tools of one MCP server. Every tool is reported as part
// of whichever toolkit is asked for, and authorization always succeeds.
type Broker struct {
	session Session
}

var _ broker.Broker = (*Broker)(nil)

// New wraps an initialized session.
func New(session Session) *Broker {
	return &Broker{session: session}
}

// Connect starts or dials the server and runs the MCP handshake.
func Connect(ctx context.Context, opts Options) (*Broker, error) {
	var (
		client *mcpclient.Client
		err    error
	)

	switch {
	case opts.Command != "":
		client, err = mcpclient.NewStdioMCPClient(opts.Command, opts.Env, opts.Args...)
		if err != nil {
			return nil, fmt.Errorf("failed to start MCP server %s: %w", opts.Command, err)
		}
	case opts.SSEURL != "":
		client, err = mcpclient.NewSSEMCPClient(opts.SSEURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create MCP client for %s: %w", opts.SSEURL, err)
		}
		if err := client.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to MCP server %s: %w", opts.SSEURL, err)
		}
	default:
		return nil, fmt.Errorf("no MCP server configured")
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{Name: opts.ClientName, Version: opts.ClientVersion}
	initRequest.Params.Capabilities = mcp.ClientCapabilities{}

	if _, err := client.Initialize(ctx, initRequest); err != nil {
		client.Close()
		return nil, fmt.Errorf("MCP initialize failed: %w", err)
	}

	return New(client), nil
}

// ListTools returns every tool of the server, tagged with toolkit.
func (b *Broker) ListTools(ctx context.Context, toolkit string) ([]broker.Descriptor, error) {
	result, err := b.session.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list MCP tools: %w", err)
	}

	out := make([]broker.Descriptor, 0, len(result.Tools))
	for _, t := range result.Tools {
		params, err := toSchema(t.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name, err)
		}
		out = append(out, broker.Descriptor{
			Name:          strings.ReplaceAll(t.Name, ".", "_"),
			QualifiedName: t.Name,
			Toolkit:       toolkit,
			Description:   t.Description,
			Parameters:    params,
		})
	}
	return out, nil
}

// Authorize always completes; MCP servers authenticate at connect time.
func (b *Broker) Authorize(ctx context.Context, toolName, userID string) (*broker.Authorization, error) {
	return &broker.Authorization{Status: broker.AuthCompleted}, nil
}

// WaitForAuthorization returns auth unchanged.
func (b *Broker) WaitForAuthorization(ctx context.Context, auth *broker.Authorization) (*broker.Authorization, error) {
	return auth, nil
}

// Execute calls tools/call and joins the textual content of the result.
func (b *Broker) Execute(ctx context.Context, toolName, userID string, args map[string]any) (string, error) {
	request := mcp.CallToolRequest{
		Request: mcp.Request{
			Method: "tools/call",
		},
	}
	request.Params.Name = toolName
	request.Params.Arguments = args

	slog.Debug("mcp tool call", "tool", toolName)
	result, err := b.session.CallTool(ctx, request)
	if err != nil {
		return "", fmt.Errorf("MCP call %s: %w", toolName, err)
	}

	text := contentText(result.Content)
	if result.IsError {
		if text == "" {
			text = "failed to call tool"
		}
		return "", fmt.Errorf("%w: %s: %s", broker.ErrToolFailed, toolName, text)
	}
	return text, nil
}

// Close ends the session.
func (b *Broker) Close() error {
	return b.session.Close()
}

func contentText(contents []mcp.Content) string {
	parts := make([]string, 0, len(contents))
	for _, content := range contents {
		switch c := content.(type) {
		case mcp.TextContent:
			parts = append(parts, c.Text)
		case mcp.ImageContent:
			parts = append(parts, fmt.Sprintf("[image %s]", c.MIMEType))
		case mcp.EmbeddedResource:
			if s, ok := c.Resource.(mcp.TextResourceContents); ok {
				parts = append(parts, s.Text)
			}
		default:
			slog.Warn("unsupported MCP content", "type", fmt.Sprintf("%T", content))
		}
	}
	return strings.Join(parts, "\n")
}

// toSchema converts an MCP input schema to a tool schema through JSON, since
// both follow JSON Schema.
func toSchema(in mcp.ToolInputSchema) (*tool.Schema, error) {
	s := &tool.Schema{
		Type:     tool.TypeObject,
		Required: in.Required,
	}
	if len(in.Properties) == 0 {
		return s, nil
	}

	data, err := json.Marshal(in.Properties)
	if err != nil {
		return nil, fmt.Errorf("failed to encode input schema: %w", err)
	}
	if err := json.Unmarshal(data, &s.Properties); err != nil {
		return nil, fmt.Errorf("failed to decode input schema: %w", err)
	}
	return s, nil
}
