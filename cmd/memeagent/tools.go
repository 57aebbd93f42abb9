package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Cyclone1070/memeagent/internal/tool"
	"github.com/Cyclone1070/memeagent/internal/ui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type OutputFormat string

const (
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

func (f *OutputFormat) String() string {
	if f == nil {
		return ""
	}
	return string(*f)
}

func (f *OutputFormat) Set(v string) error {
	switch v {
	case "json":
		*f = OutputFormatJSON
	case "yaml", "yml":
		*f = OutputFormatYAML
	default:
		return errors.New(`must be one of "json" or "yaml"`)
	}
	return nil
}

func (f *OutputFormat) Type() string {
	return "format"
}

func newToolsCmd(deps *Dependencies) *cobra.Command {
	format := OutputFormatJSON
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Discover and authorize the configured toolkits, then print their tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logCloser, err := setup(deps)
			if err != nil {
				return err
			}
			defer logCloser.Close()

			// Notices go to stderr so stdout stays machine readable.
			notices := ui.NewTerminal(deps.Stdin, deps.Stderr)
			tools, brokerCloser, err := discoverTools(cmd.Context(), deps, cfg, notices)
			if err != nil {
				return err
			}
			defer brokerCloser.Close()

			decls := make([]tool.Declaration, 0, len(tools))
			for _, t := range tools {
				decls = append(decls, t.Declaration())
			}
			return writeDeclarations(deps.Stdout, decls, format)
		},
	}

	cmd.Flags().VarP(&format, "output", "o", "output format (json or yaml)")
	return cmd
}

func writeDeclarations(w io.Writer, decls []tool.Declaration, format OutputFormat) error {
	switch format {
	case OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(decls); err != nil {
			return fmt.Errorf("failed to encode tools: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(decls); err != nil {
			return fmt.Errorf("failed to encode tools: %w", err)
		}
		return nil
	}
}
