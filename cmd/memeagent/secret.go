package main

import (
	"bufio"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/Cyclone1070/memeagent/internal/config"
	"github.com/spf13/cobra"
)

var secretNames = []string{
	config.SecretArcadeAPIKey,
	config.SecretOpenAIAPIKey,
	config.SecretGeminiAPIKey,
}

func newSecretCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage API keys stored in the system keyring",
		Long: fmt.Sprintf(`Manage API keys stored in the system keyring.

Stored keys are used when the matching environment variable is not set.
Known keys: %s`, strings.Join(secretNames, ", ")),
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "set <name>",
		Short:     "Store a secret read from standard input",
		Args:      cobra.ExactArgs(1),
		ValidArgs: secretNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := validateSecretName(name); err != nil {
				return err
			}

			fmt.Fprintf(deps.Stderr, "Enter value for %s: ", name)
			value, err := readSecret(deps)
			if err != nil {
				return err
			}

			if err := deps.Secrets.Set(name, value); err != nil {
				return err
			}
			fmt.Fprintf(deps.Stderr, "Stored %s in the keyring\n", name)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "delete <name>",
		Short:     "Remove a stored secret",
		Args:      cobra.ExactArgs(1),
		ValidArgs: secretNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := validateSecretName(name); err != nil {
				return err
			}
			if err := deps.Secrets.Delete(name); err != nil {
				return err
			}
			fmt.Fprintf(deps.Stderr, "Removed %s from the keyring\n", name)
			return nil
		},
	})

	return cmd
}

// readSecret reads one value from Stdin. A terminal gets no echo; piped
// input is read up to the first newline.
func readSecret(deps *Dependencies) (string, error) {
	if f, ok := deps.Stdin.(*os.File); ok && deps.IsTerminal != nil && deps.IsTerminal(int(f.Fd())) {
		b, err := deps.ReadPassword(int(f.Fd()))
		fmt.Fprintln(deps.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		value := strings.TrimSpace(string(b))
		if value == "" {
			return "", fmt.Errorf("secret cannot be empty")
		}
		return value, nil
	}

	line, err := bufio.NewReader(deps.Stdin).ReadString('\n')
	value := strings.TrimSpace(line)
	if value == "" {
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return "", fmt.Errorf("secret cannot be empty")
	}
	return value, nil
}

func validateSecretName(name string) error {
	if !slices.Contains(secretNames, name) {
		return fmt.Errorf("unknown secret %q (known: %s)", name, strings.Join(secretNames, ", "))
	}
	return nil
}
