package ui

import (
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type stopSpinnerMsg struct{}

type spinnerModel struct {
	spinner spinner.Model
	message string
	style   lipgloss.Style
	done    bool
}

func newSpinnerModel(message string, style lipgloss.Style) spinnerModel {
	return spinnerModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(style)),
		message: message,
		style:   style,
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stopSpinnerMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	// Empty on exit so the line is cleared.
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.style.Render(m.message)
}

// Spinner shows an animated status line while the agent works.
// Start and Stop may be called any number of times; only one animation runs.
type Spinner struct {
	out   io.Writer
	style lipgloss.Style

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

func NewSpinner(out io.Writer, style lipgloss.Style) *Spinner {
	return &Spinner{out: out, style: style}
}

// Start shows message with a spinner. It is a no-op if one is running.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.program != nil {
		return
	}

	p := tea.NewProgram(
		newSpinnerModel(message, s.style),
		tea.WithOutput(s.out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Run()
	}()
	s.program = p
	s.done = done
}

// Stop clears the spinner and waits for it to release the terminal.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.program == nil {
		return
	}

	s.program.Send(stopSpinnerMsg{})
	<-s.done
	s.program = nil
	s.done = nil
}

// Running reports whether the spinner is shown.
func (s *Spinner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.program != nil
}
