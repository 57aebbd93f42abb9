// Package prompt provides the agent instructions.
package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed instructions.md
var instructions string

// Default returns the built-in meme generator instructions.
func Default() string {
	return instructions
}

// Load returns the contents of path, or the built-in instructions when path
// is empty. The text is passed to the model verbatim.
func Load(path string) (string, error) {
	if path == "" {
		return instructions, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read instructions file: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("instructions file %s is empty", path)
	}
	return string(data), nil
}
