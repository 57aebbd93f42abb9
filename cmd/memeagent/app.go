package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Cyclone1070/memeagent/internal/broker"
	"github.com/Cyclone1070/memeagent/internal/broker/arcade"
	"github.com/Cyclone1070/memeagent/internal/broker/mcp"
	"github.com/Cyclone1070/memeagent/internal/config"
	"github.com/Cyclone1070/memeagent/internal/gate"
	"github.com/Cyclone1070/memeagent/internal/prompt"
	"github.com/Cyclone1070/memeagent/internal/provider"
	"github.com/Cyclone1070/memeagent/internal/provider/gemini"
	"github.com/Cyclone1070/memeagent/internal/provider/openai"
	"github.com/Cyclone1070/memeagent/internal/repl"
	"github.com/Cyclone1070/memeagent/internal/secret"
	"github.com/Cyclone1070/memeagent/internal/tool"
	"github.com/Cyclone1070/memeagent/internal/ui"
	"github.com/Cyclone1070/memeagent/internal/workflow/loop"
	"github.com/Cyclone1070/memeagent/internal/workflow/toolmanager"
	"golang.org/x/term"
)

type secretStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Dependencies holds the components required to run the application.
type Dependencies struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	LoadConfig      func() (*config.Config, error)
	NewTerminal     func(cfg config.UIConfig) *ui.Terminal
	BrokerFactory   func(ctx context.Context, cfg *config.Config) (broker.Broker, io.Closer, error)
	ProviderFactory func(ctx context.Context, cfg config.ProviderConfig) (provider.Provider, error)
	Secrets         secretStore

	// IsTerminal and ReadPassword read secrets without echo when Stdin is a
	// terminal.
	IsTerminal   func(fd int) bool
	ReadPassword func(fd int) ([]byte, error)
}

func defaultDependencies() *Dependencies {
	secrets := secret.NewKeyringStore()
	return &Dependencies{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		LoadConfig: func() (*config.Config, error) {
			return config.NewLoader(secrets).Load()
		},
		NewTerminal: func(cfg config.UIConfig) *ui.Terminal {
			return ui.NewTerminalFromConfig(os.Stdin, os.Stdout, cfg)
		},
		BrokerFactory:   createBroker,
		ProviderFactory: createProvider,
		Secrets:         secrets,
		IsTerminal:      term.IsTerminal,
		ReadPassword:    term.ReadPassword,
	}
}

func createBroker(ctx context.Context, cfg *config.Config) (broker.Broker, io.Closer, error) {
	timeout := time.Duration(cfg.Broker.TimeoutSeconds) * time.Second

	switch cfg.Broker.Kind {
	case config.BrokerMCP:
		// ctx outlives the call: an SSE stream stays bound to it.
		b, err := mcp.Connect(ctx, mcp.Options{
			Command:       cfg.Broker.MCPCommand,
			Args:          cfg.Broker.MCPArgs,
			Env:           os.Environ(),
			SSEURL:        cfg.Broker.MCPSSEURL,
			ClientName:    cfg.Agent.Name,
			ClientVersion: Version,
		})
		if err != nil {
			return nil, nil, err
		}
		return b, b, nil
	default:
		// The auth long-poll must return before the HTTP client gives up.
		wait := max(cfg.Broker.TimeoutSeconds/2, 1)
		b := arcade.New(arcade.Options{
			BaseURL:     cfg.Broker.BaseURL,
			APIKey:      cfg.Broker.APIKey,
			HTTPClient:  &http.Client{Timeout: timeout},
			Limit:       cfg.Agent.ToolLimit,
			WaitSeconds: wait,
		})
		return b, nopCloser{}, nil
	}
}

func createProvider(ctx context.Context, cfg config.ProviderConfig) (provider.Provider, error) {
	switch cfg.Kind {
	case config.ProviderGemini:
		client, err := gemini.Dial(ctx, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		return gemini.New(client, cfg.Model), nil
	default:
		return openai.Dial(cfg.Model, cfg.APIKey)
	}
}

// setup loads config and installs the logger. The returned closer flushes the
// log file.
func setup(deps *Dependencies) (*config.Config, io.Closer, error) {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := newLogger(cfg.Log, deps.Stderr)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return cfg, closer, nil
}

// discoverTools connects to the broker, then lists and authorizes the
// configured toolkits.
func discoverTools(ctx context.Context, deps *Dependencies, cfg *config.Config, n broker.Notifier) ([]tool.Tool, io.Closer, error) {
	b, closer, err := deps.BrokerFactory(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to tool broker: %w", err)
	}

	tools, err := broker.Discover(ctx, b, cfg.Broker.UserID, cfg.Agent.Toolkits, n)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	slog.Info("tools ready", "count", len(tools), "toolkits", cfg.Agent.Toolkits)
	return tools, closer, nil
}

func runChat(ctx context.Context, deps *Dependencies) error {
	cfg, logCloser, err := setup(deps)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	terminal := deps.NewTerminal(cfg.UI)

	tools, brokerCloser, err := discoverTools(ctx, deps, cfg, terminal)
	if err != nil {
		return err
	}
	defer brokerCloser.Close()

	instructions, err := prompt.Load(cfg.Agent.InstructionsFile)
	if err != nil {
		return err
	}

	p, err := deps.ProviderFactory(ctx, cfg.Provider)
	if err != nil {
		return fmt.Errorf("failed to initialize provider: %w", err)
	}
	slog.Info("provider ready", "kind", cfg.Provider.Kind, "model", p.Model())

	g := gate.New(gate.Policy{
		Confirm: cfg.Policy.Confirm,
		Allow:   cfg.Policy.Allow,
		Deny:    cfg.Policy.Deny,
	}, terminal)

	agent := loop.New(loop.Options{
		Name:          cfg.Agent.Name,
		Instructions:  instructions,
		Provider:      p,
		Tools:         toolmanager.NewToolManager(g, tools...),
		Hooks:         ui.NewHookPrinter(terminal, cfg.Agent.Name),
		MaxIterations: cfg.Agent.MaxIterations,
	})

	return repl.New(agent, terminal).Run(ctx)
}
