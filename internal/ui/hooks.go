package ui

import (
	"fmt"
	"sync"
)

const thinkingStatus = "Thinking..."

// HookPrinter prints numbered agent lifecycle events and keeps the spinner
// running while the model is working.
type HookPrinter struct {
	term        *Terminal
	displayName string

	mu      sync.Mutex
	counter int
}

func NewHookPrinter(t *Terminal, displayName string) *HookPrinter {
	return &HookPrinter{term: t, displayName: displayName}
}

func (h *HookPrinter) OnAgentStart(agent string) {
	h.print("Agent %s started", agent)
	h.term.StartStatus(thinkingStatus)
}

func (h *HookPrinter) OnAgentEnd(agent, output string) {
	h.print("Agent %s ended", agent)
}

func (h *HookPrinter) OnToolStart(agent, tool string) {
	h.print("Agent %s started tool %s", agent, tool)
}

func (h *HookPrinter) OnToolEnd(agent, tool, result string) {
	h.print("Agent %s ended tool %s", agent, tool)
	h.term.StartStatus(thinkingStatus)
}

func (h *HookPrinter) print(format string, args ...any) {
	h.mu.Lock()
	h.counter++
	n := h.counter
	h.mu.Unlock()

	h.term.WriteNotice(fmt.Sprintf("### (%s) %d: ", h.displayName, n) + fmt.Sprintf(format, args...))
}
