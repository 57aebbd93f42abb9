package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile.
// Identity and credentials come from the environment (see applyEnv).
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Agent    AgentConfig    `json:"agent"`
	Provider ProviderConfig `json:"provider"`
	Broker   BrokerConfig   `json:"broker"`
	Policy   PolicyConfig   `json:"policy"`
	UI       UIConfig       `json:"ui"`
	Log      LogConfig      `json:"log"`
}

type AgentConfig struct {
	Name             string   `json:"name"`              // Default: "memeagent"
	MaxIterations    int      `json:"max_iterations"`    // Default: 20
	InstructionsFile string   `json:"instructions_file"` // Default: "" (embedded instructions)
	Toolkits         []string `json:"toolkits"`          // Default: ["Imgflip"]
	ToolLimit        int      `json:"tool_limit"`        // Default: 100
}

type ProviderConfig struct {
	Kind   string `json:"kind"`  // "openai" or "gemini". Env: MODEL_PROVIDER
	Model  string `json:"model"` // Env: AGENT_MODEL, then OPENAI_MODEL
	APIKey string `json:"-"`     // Env: OPENAI_API_KEY or GEMINI_API_KEY
}

type BrokerConfig struct {
	Kind           string   `json:"kind"`            // "arcade" or "mcp"
	BaseURL        string   `json:"base_url"`        // Env: ARCADE_BASE_URL
	UserID         string   `json:"user_id"`         // Env: ARCADE_USER_ID
	APIKey         string   `json:"-"`               // Env: ARCADE_API_KEY
	MCPCommand     string   `json:"mcp_command"`     // stdio MCP server
	MCPArgs        []string `json:"mcp_args"`
	MCPSSEURL      string   `json:"mcp_sse_url"`     // SSE MCP server
	TimeoutSeconds int      `json:"timeout_seconds"` // Default: 30
}

type PolicyConfig struct {
	Confirm []string `json:"confirm"` // Default: ["Imgflip_CreateMeme"]
	Allow   []string `json:"allow"`
	Deny    []string `json:"deny"`
}

type UIConfig struct {
	Markdown     bool   `json:"markdown"` // Default: true
	Spinner      bool   `json:"spinner"`  // Default: true
	ColorPrimary string `json:"color_primary"`
	ColorNotice  string `json:"color_notice"`
	ColorError   string `json:"color_error"`
	ColorSuccess string `json:"color_success"`
}

type LogConfig struct {
	Level string `json:"level"` // debug, info, warn, error. Default: warn
	File  string `json:"file"`  // Rotated log file. Default: "" (stderr only)
}

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	BrokerArcade = "arcade"
	BrokerMCP    = "mcp"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			Name:          "memeagent",
			MaxIterations: 20,
			Toolkits:      []string{"Imgflip"},
			ToolLimit:     100,
		},
		Provider: ProviderConfig{
			Kind: ProviderOpenAI,
		},
		Broker: BrokerConfig{
			Kind:           BrokerArcade,
			BaseURL:        "https://api.arcade.dev",
			TimeoutSeconds: 30,
		},
		Policy: PolicyConfig{
			Confirm: []string{"Imgflip_CreateMeme"},
		},
		UI: UIConfig{
			Markdown:     true,
			Spinner:      true,
			ColorPrimary: "63",
			ColorNotice:  "241",
			ColorError:   "196",
			ColorSuccess: "42",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}
