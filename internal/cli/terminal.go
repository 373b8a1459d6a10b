package cli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/vijay-prabhu/tageval/internal/source"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
)

// Terminal provides terminal-aware output utilities. Progress goes to
// stderr so stdout stays clean for --output json.
type Terminal struct {
	IsTerminal  bool // stderr is a terminal
	UseColor    bool
	Interactive bool // stdin is a terminal
	out         io.Writer
	dirty       bool // a progress line is on screen
}

// NewTerminal creates a new Terminal instance
func NewTerminal() *Terminal {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))
	return &Terminal{
		IsTerminal:  isTerminal,
		UseColor:    isTerminal, // Only use color in terminal
		Interactive: term.IsTerminal(int(os.Stdin.Fd())),
		out:         os.Stderr,
	}
}

// ClearLine clears the current line (terminal only)
func (t *Terminal) ClearLine() {
	if t.IsTerminal {
		fmt.Fprint(t.out, "\r\033[K")
	}
}

// Color wraps text in ANSI color codes (terminal only)
func (t *Terminal) Color(color, text string) string {
	if !t.UseColor {
		return text
	}
	return color + text + ColorReset
}

// Status prints a one-line status message
func (t *Terminal) Status(color, msg string) {
	t.Done()
	fmt.Fprintln(t.out, t.Color(color, msg))
}

// PageProgress reports a page request. On a terminal the line is rewritten
// in place; otherwise each page gets its own line.
func (t *Terminal) PageProgress(p source.Progress) {
	msg := fmt.Sprintf("Fetching page %03d (limit %d)", p.Page, p.Limit)
	if p.Query != "" {
		msg = t.Color(ColorGray, p.Query+": ") + msg
	}

	if t.IsTerminal {
		t.ClearLine()
		fmt.Fprint(t.out, msg)
		t.dirty = true
		return
	}
	fmt.Fprintln(t.out, msg)
}

// Done clears a pending progress line
func (t *Terminal) Done() {
	if t.dirty {
		t.ClearLine()
		t.dirty = false
	}
}
