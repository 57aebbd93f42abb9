package config

import (
	"fmt"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate checks config values for correctness.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	// Agent validation
	if c.Agent.Name == "" {
		errs = append(errs, "agent.name must not be empty")
	}
	if c.Agent.MaxIterations < 1 {
		errs = append(errs, "agent.max_iterations must be >= 1")
	}
	if c.Agent.ToolLimit < 1 {
		errs = append(errs, "agent.tool_limit must be >= 1")
	}
	if len(c.Agent.Toolkits) == 0 {
		errs = append(errs, "agent.toolkits must list at least one toolkit")
	}

	// Provider validation
	switch c.Provider.Kind {
	case ProviderOpenAI:
	case ProviderGemini:
		if c.Provider.APIKey == "" {
			errs = append(errs, "GEMINI_API_KEY environment variable is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("provider.kind must be %q or %q", ProviderOpenAI, ProviderGemini))
	}
	if c.Provider.Model == "" {
		errs = append(errs, "provider.model must be set (AGENT_MODEL or OPENAI_MODEL)")
	}

	// Broker validation
	if c.Broker.UserID == "" {
		errs = append(errs, "broker.user_id must be set (ARCADE_USER_ID)")
	}
	if c.Broker.TimeoutSeconds < 1 {
		errs = append(errs, "broker.timeout_seconds must be >= 1")
	}
	switch c.Broker.Kind {
	case BrokerArcade:
		if c.Broker.APIKey == "" {
			errs = append(errs, "ARCADE_API_KEY environment variable is required")
		}
		if c.Broker.BaseURL == "" {
			errs = append(errs, "broker.base_url must not be empty")
		}
	case BrokerMCP:
		if c.Broker.MCPCommand == "" && c.Broker.MCPSSEURL == "" {
			errs = append(errs, "broker.mcp_command or broker.mcp_sse_url must be set")
		}
	default:
		errs = append(errs, fmt.Sprintf("broker.kind must be %q or %q", BrokerArcade, BrokerMCP))
	}

	// Policy validation
	for _, list := range [][]string{c.Policy.Confirm, c.Policy.Allow, c.Policy.Deny} {
		for _, pattern := range list {
			if !doublestar.ValidatePattern(pattern) {
				errs = append(errs, fmt.Sprintf("policy pattern %q is invalid", pattern))
			}
		}
	}

	// Log validation
	if !slices.Contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Sprintf("log.level must be one of %v", logLevels))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
