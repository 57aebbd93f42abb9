package ui

import (
	"github.com/Cyclone1070/memeagent/internal/config"
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles used for terminal output.
type Styles struct {
	Prompt  lipgloss.Style
	Notice  lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Tool    lipgloss.Style
	Args    lipgloss.Style
}

// NewStyles builds the styles from the configured colors.
func NewStyles(cfg config.UIConfig) Styles {
	return Styles{
		Prompt:  lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.ColorPrimary)).Bold(true),
		Notice:  lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.ColorNotice)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.ColorError)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.ColorSuccess)),
		Tool:    lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.ColorPrimary)).Bold(true),
		Args:    lipgloss.NewStyle().Faint(true),
	}
}

// PlainStyles renders text unchanged. Used when output is not a terminal.
func PlainStyles() Styles {
	s := lipgloss.NewStyle()
	return Styles{Prompt: s, Notice: s, Error: s, Success: s, Tool: s, Args: s}
}
