// Package provider defines the interface to the language model backends.
package provider

import (
	"context"

	"github.com/Cyclone1070/memeagent/internal/conversation"
	"github.com/Cyclone1070/memeagent/internal/tool"
)

// Request is a single generation request.
type Request struct {
	// Instructions is the system prompt, passed verbatim.
	Instructions string

	// Messages is the conversation so far, oldest first.
	Messages conversation.History

	// Tools the model may call.
	Tools []tool.Declaration
}

// Provider represents the interface to the Language Model.
type Provider interface {
	// Generate returns the next assistant message. The message either carries
	// text or one or more tool calls.
	Generate(ctx context.Context, req *Request) (*conversation.Message, error)

	// Model returns the model identifier in use.
	Model() string
}
