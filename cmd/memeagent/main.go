// Package main provides the memeagent command: an interactive chat agent that
// creates memes with the Imgflip toolkit and asks before creating one.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Cyclone1070/memeagent/internal/config"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(defaultDependencies()).ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "memeagent",
		Short:         "Chat with an agent that makes memes with Imgflip",
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return fmt.Errorf("failed to load .env: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), deps)
		},
	}

	cmd.AddCommand(newToolsCmd(deps))
	cmd.AddCommand(newSecretCmd(deps))
	return cmd
}
