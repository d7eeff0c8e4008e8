package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss/v2"
)

// Level selects the symbol and colour of a printed line.
type Level int

// Output levels.
const (
	LevelRunning Level = iota
	LevelSuccess
	LevelFailure
	LevelMessage
	LevelError
	LevelInfo
	LevelChanged
)

type levelStyle struct {
	symbol      string
	symbolStyle lipgloss.Style
	textStyle   lipgloss.Style
}

var levelStyles = map[Level]levelStyle{
	LevelRunning: {symbol: "⛭", symbolStyle: fg("4"), textStyle: fg("4")},
	LevelSuccess: {symbol: "✔", symbolStyle: fg("2"), textStyle: fg("2")},
	LevelFailure: {symbol: "✘", symbolStyle: fg("1").Bold(true), textStyle: fg("1").Bold(true)},
	LevelMessage: {symbol: "│", symbolStyle: lipgloss.NewStyle(), textStyle: fg("8")},
	LevelError:   {symbol: "┃", symbolStyle: fg("1"), textStyle: fg("1")},
	LevelInfo:    {symbol: "ℹ", symbolStyle: fg("6"), textStyle: fg("6")},
	LevelChanged: {symbol: "✎", symbolStyle: fg("5"), textStyle: fg("5")},
}

var detailStyle = fg("8").Italic(true)

func fg(c string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
}

// Printer writes leveled, symbol-prefixed lines for the user. It is safe for
// concurrent use.
type Printer struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// NewPrinter returns a Printer writing to w; a nil w means os.Stderr.
func NewPrinter(w io.Writer, color bool) *Printer {
	if w == nil {
		w = os.Stderr
	}

	return &Printer{w: w, color: color}
}

// Print writes text at level. Multi-line text gets a symbol on every line.
func (p *Printer) Print(level Level, text string) {
	st := levelStyles[level]

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, line := range strings.Split(text, "\n") {
		if p.color {
			fmt.Fprintf(p.w, "  %s %s\n", st.symbolStyle.Render(st.symbol), st.textStyle.Render(line))
		} else {
			fmt.Fprintf(p.w, "  %s %s\n", st.symbol, line)
		}
	}
}

// Running prints a status line announcing a build.
func (p *Printer) Running(text string) { p.Print(LevelRunning, text) }

// Success prints a successful outcome.
func (p *Printer) Success(text string) { p.Print(LevelSuccess, text) }

// Failure prints a failed outcome.
func (p *Printer) Failure(text string) { p.Print(LevelFailure, text) }

// Message prints informational build output.
func (p *Printer) Message(text string) { p.Print(LevelMessage, text) }

// Error prints error build output.
func (p *Printer) Error(text string) { p.Print(LevelError, text) }

// Info prints a notice from makewatch itself.
func (p *Printer) Info(text string) { p.Print(LevelInfo, text) }

// Changed prints a file change notice.
func (p *Printer) Changed(text string) { p.Print(LevelChanged, text) }

// Blank writes the empty separator line.
func (p *Printer) Blank() {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w)
}

// Prompt writes prompt without a trailing newline.
func (p *Printer) Prompt(prompt string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprint(p.w, prompt)
}

// Detail styles an inline detail, such as a command or path, within a line.
func (p *Printer) Detail(s string) string {
	if !p.color {
		return s
	}

	return detailStyle.Render(s)
}

// Plural returns "n word" with an "s" appended unless n is 1.
func Plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}

	return fmt.Sprintf("%d %ss", n, word)
}
