// Package ui implements the line-oriented terminal used by the REPL: input,
// confirmation prompts, rendered replies and a status spinner.
package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/Cyclone1070/memeagent/internal/config"
	"github.com/Cyclone1070/memeagent/internal/gate"
	"github.com/mattn/go-isatty"
)

const confirmPrompt = "Do you approve this tool call? [y/N]: "

// Terminal reads user input and writes agent output.
//
// Context Usage:
// Reads honor ctx. If ctx is cancelled while waiting for a line, the read
// returns ctx.Err() at once and the line is delivered to the next read.
type Terminal struct {
	in       *bufio.Reader
	out      io.Writer
	styles   Styles
	renderer MarkdownRenderer
	spinner  *Spinner

	startReader sync.Once
	lines       chan lineResult
}

// Option customizes a Terminal.
type Option func(*Terminal)

// WithRenderer renders agent replies as markdown.
func WithRenderer(r MarkdownRenderer) Option {
	return func(t *Terminal) { t.renderer = r }
}

// WithSpinner shows s while the agent works.
func WithSpinner(s *Spinner) Option {
	return func(t *Terminal) { t.spinner = s }
}

// WithStyles overrides the output styles.
func WithStyles(s Styles) Option {
	return func(t *Terminal) { t.styles = s }
}

// NewTerminal returns a plain Terminal. Use Options to add styling.
func NewTerminal(in io.Reader, out io.Writer, opts ...Option) *Terminal {
	t := &Terminal{
		in:     bufio.NewReader(in),
		out:    out,
		styles: PlainStyles(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewTerminalFromConfig builds a Terminal on in/out. Styling, markdown and
// the spinner are enabled only when out is a terminal.
func NewTerminalFromConfig(in io.Reader, out *os.File, cfg config.UIConfig) *Terminal {
	if !IsTerminal(out) {
		return NewTerminal(in, out)
	}

	styles := NewStyles(cfg)
	opts := []Option{WithStyles(styles)}
	if cfg.Markdown {
		r, err := NewMarkdownRenderer()
		if err != nil {
			slog.Warn("markdown rendering disabled", "error", err)
		} else {
			opts = append(opts, WithRenderer(r))
		}
	}
	if cfg.Spinner {
		opts = append(opts, WithSpinner(NewSpinner(out, styles.Notice)))
	}
	return NewTerminal(in, out, opts...)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ReadInput prints prompt and returns the next line without its line ending.
// It returns io.EOF when input is exhausted.
func (t *Terminal) ReadInput(ctx context.Context, prompt string) (string, error) {
	t.StopStatus()
	fmt.Fprint(t.out, t.styles.Prompt.Render(prompt))
	return t.readLine(ctx)
}

// Confirm shows call and asks for approval. y and yes approve; n, no and
// an empty answer deny. Any other answer asks again.
func (t *Terminal) Confirm(ctx context.Context, call gate.PendingCall) (bool, error) {
	t.StopStatus()
	fmt.Fprintln(t.out, t.styles.Notice.Render("Human in the loop required for tool call "+call.ToolName))
	fmt.Fprintln(t.out, FormatPendingCall(call, t.styles))

	for {
		fmt.Fprint(t.out, t.styles.Prompt.Render(confirmPrompt))
		answer, err := t.readLine(ctx)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		default:
			fmt.Fprintln(t.out, t.styles.Notice.Render("Please answer y or n."))
		}
	}
}

// WriteMessage prints an agent reply.
func (t *Terminal) WriteMessage(content string) {
	t.StopStatus()
	fmt.Fprintln(t.out, RenderMarkdown(content, t.renderer))
}

// WriteNotice prints a status line.
func (t *Terminal) WriteNotice(text string) {
	t.StopStatus()
	fmt.Fprintln(t.out, t.styles.Notice.Render(text))
}

// WriteSuccess prints a highlighted line.
func (t *Terminal) WriteSuccess(text string) {
	t.StopStatus()
	fmt.Fprintln(t.out, t.styles.Success.Render(text))
}

// WriteError prints an error line.
func (t *Terminal) WriteError(text string) {
	t.StopStatus()
	fmt.Fprintln(t.out, t.styles.Error.Render(text))
}

// StartStatus shows message with a spinner if one is configured.
func (t *Terminal) StartStatus(message string) {
	if t.spinner != nil {
		t.spinner.Start(message)
	}
}

// StopStatus clears the spinner.
func (t *Terminal) StopStatus() {
	if t.spinner != nil {
		t.spinner.Stop()
	}
}

// AuthorizationRequired tells the user to authorize a tool in the browser.
func (t *Terminal) AuthorizationRequired(toolName, url string) {
	t.WriteNotice("Authorization required for tool call " + toolName)
	t.WriteNotice("Please authorize in your browser " + url)
	t.WriteNotice("Waiting for you to complete authorization...")
}

type lineResult struct {
	line string
	err  error
}

// readLine returns the next input line. A single goroutine owns the reader
// and hands lines over a channel, so a line that arrives after a cancelled
// read is kept for the next call.
func (t *Terminal) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.startReader.Do(func() {
		t.lines = make(chan lineResult)
		go t.readLoop()
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-t.lines:
		if !ok {
			return "", io.EOF
		}
		if r.err != nil {
			// A final line without a newline still counts.
			if errors.Is(r.err, io.EOF) && r.line != "" {
				return strings.TrimRight(r.line, "\r\n"), nil
			}
			return "", r.err
		}
		return strings.TrimRight(r.line, "\r\n"), nil
	}
}

// readLoop runs until the reader fails. The channel is closed afterwards so
// later reads report io.EOF.
func (t *Terminal) readLoop() {
	defer close(t.lines)
	for {
		line, err := t.in.ReadString('\n')
		t.lines <- lineResult{line: line, err: err}
		if err != nil {
			return
		}
	}
}
