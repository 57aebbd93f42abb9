// Package broker discovers, authorizes and executes remotely hosted tools.
package broker

import (
	"context"
	"errors"

	"github.com/Cyclone1070/memeagent/internal/tool"
)

// Sentinel errors for broker failures.
var (
	// ErrAuthorization is returned when a tool cannot be authorized for the user.
	ErrAuthorization = errors.New("tool authorization failed")

	// ErrToolFailed is returned when the broker reports a failed execution.
	ErrToolFailed = errors.New("tool execution failed")
)

// AuthStatus is the state of an authorization request.
type AuthStatus string

const (
	AuthCompleted AuthStatus = "completed"
	AuthPending   AuthStatus = "pending"
	AuthFailed    AuthStatus = "failed"
)

// Authorization is the broker's answer to an authorize request.
type Authorization struct {
	ID     string
	Status AuthStatus
	// URL the user must visit to grant access, when Status is pending.
	URL string
}

// Descriptor describes a tool hosted by a broker.
type Descriptor struct {
	// Name is the identifier exposed to the LLM (e.g. "Imgflip_CreateMeme").
	Name string
	// QualifiedName is the broker's own identifier (e.g. "Imgflip.CreateMeme").
	QualifiedName string
	Toolkit       string
	Description   string
	Parameters    *tool.Schema
}

// Declaration returns the LLM-facing declaration of d.
func (d Descriptor) Declaration() tool.Declaration {
	return tool.Declaration{
		Name:        d.Name,
		Description: d.Description,
		Parameters:  d.Parameters,
	}
}

// Broker is a remote tool host.
type Broker interface {
	// ListTools returns the tools of a toolkit.
	ListTools(ctx context.Context, toolkit string) ([]Descriptor, error)

	// Authorize requests access to a tool on behalf of userID.
	Authorize(ctx context.Context, toolName, userID string) (*Authorization, error)

	// WaitForAuthorization blocks until a pending authorization is resolved.
	WaitForAuthorization(ctx context.Context, auth *Authorization) (*Authorization, error)

	// Execute runs a tool and returns its output as text.
	Execute(ctx context.Context, toolName, userID string, args map[string]any) (string, error)
}

// Notifier tells the user an authorization needs their action.
type Notifier interface {
	AuthorizationRequired(toolName, url string)
}

// RemoteTool adapts a broker-hosted tool to tool.Tool. Calls run as userID.
func RemoteTool(b Broker, d Descriptor, userID string) tool.Tool {
	return tool.Func(d.Declaration(), func(ctx context.Context, args map[string]any) (string, error) {
		return b.Execute(ctx, d.QualifiedName, userID, args)
	})
}
