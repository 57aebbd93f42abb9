package broker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Cyclone1070/memeagent/internal/tool"
)

// Discover lists the tools of every toolkit, authorizes each one for userID
// in order and returns them ready to execute. Pending authorizations are
// shown through n and waited on. Any failure aborts discovery.
func Discover(ctx context.Context, b Broker, userID string, toolkits []string, n Notifier) ([]tool.Tool, error) {
	var descriptors []Descriptor
	seen := make(map[string]bool)

	for _, toolkit := range toolkits {
		listed, err := b.ListTools(ctx, toolkit)
		if err != nil {
			return nil, fmt.Errorf("failed to list tools for toolkit %s: %w", toolkit, err)
		}
		for _, d := range listed {
			if seen[d.Name] {
				slog.Warn("duplicate tool skipped", "tool", d.Name, "toolkit", toolkit)
				continue
			}
			seen[d.Name] = true
			descriptors = append(descriptors, d)
		}
		slog.Info("toolkit listed", "toolkit", toolkit, "tools", len(listed))
	}

	tools := make([]tool.Tool, 0, len(descriptors))
	for _, d := range descriptors {
		if err := authorize(ctx, b, d, userID, n); err != nil {
			return nil, err
		}
		tools = append(tools, RemoteTool(b, d, userID))
	}

	return tools, nil
}

func authorize(ctx context.Context, b Broker, d Descriptor, userID string, n Notifier) error {
	auth, err := b.Authorize(ctx, d.QualifiedName, userID)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAuthorization, d.Name, err)
	}

	if auth.Status == AuthPending {
		if auth.URL != "" && n != nil {
			n.AuthorizationRequired(d.Name, auth.URL)
		}
		auth, err = b.WaitForAuthorization(ctx, auth)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrAuthorization, d.Name, err)
		}
	}

	if auth.Status != AuthCompleted {
		return fmt.Errorf("%w: %s: status %s", ErrAuthorization, d.Name, auth.Status)
	}

	slog.Debug("tool authorized", "tool", d.Name)
	return nil
}
