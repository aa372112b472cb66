// Package output renders all user-facing terminal output for aisdlc.
//
// [Printer] is the single place commands write to. It styles messages with
// lipgloss when the destination is a terminal and degrades to plain text
// otherwise (pipes, files, test buffers).
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const (
	doneMark    = "✅"
	pendingMark = "☐"
	separator   = " ▸ "
)

// Printer writes styled messages.
type Printer struct {
	out     io.Writer
	verbose bool
	width   int

	success lipgloss.Style
	info    lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
	header  lipgloss.Style
	current lipgloss.Style
}

// NewPrinter creates a [Printer] for stdout.
func NewPrinter() *Printer {
	p := NewPrinterWithWriter(os.Stdout)
	if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			p.width = w
		}
	}
	return p
}

// NewPrinterWithWriter creates a [Printer] for w.
func NewPrinterWithWriter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		out:     w,
		width:   80,
		success: r.NewStyle().Foreground(lipgloss.Color("#50C878")).Bold(true),
		info:    r.NewStyle().Foreground(lipgloss.Color("#5B8DEF")),
		warning: r.NewStyle().Foreground(lipgloss.Color("#F5A623")).Bold(true),
		failure: r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#888888")),
		header:  r.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true),
		current: r.NewStyle().Bold(true).Underline(true),
	}
}

// SetVerbose enables [Printer.Debug] output.
func (p *Printer) SetVerbose(v bool) {
	p.verbose = v
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Success prints a completed action.
func (p *Printer) Success(format string, args ...any) {
	p.line(p.success.Render("✔ " + fmt.Sprintf(format, args...)))
}

// Info prints a neutral message.
func (p *Printer) Info(format string, args ...any) {
	p.line(p.info.Render(fmt.Sprintf(format, args...)))
}

// Warning prints a non-fatal problem.
func (p *Printer) Warning(format string, args ...any) {
	p.line(p.warning.Render("⚠ " + fmt.Sprintf(format, args...)))
}

// Error prints a fatal problem.
func (p *Printer) Error(format string, args ...any) {
	p.line(p.failure.Render("✘ " + fmt.Sprintf(format, args...)))
}

// Detail prints an indented secondary line.
func (p *Printer) Detail(format string, args ...any) {
	p.line("  " + p.muted.Render(fmt.Sprintf(format, args...)))
}

// Debug prints only in verbose mode.
func (p *Printer) Debug(format string, args ...any) {
	if p.verbose {
		p.line(p.muted.Render("· " + fmt.Sprintf(format, args...)))
	}
}

// Plain prints text as-is.
func (p *Printer) Plain(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}

// Block prints multi-line text indented under a heading.
func (p *Printer) Block(title, body string) {
	p.line(p.header.Render(title))
	for _, l := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
		p.line("  " + l)
	}
}

// Header prints a section title.
func (p *Printer) Header(title string) {
	p.line(p.header.Render(title))
}

// Divider prints a horizontal rule sized to the terminal.
func (p *Printer) Divider() {
	p.line(p.muted.Render(strings.Repeat("─", min(p.width, 72))))
}

// StepStart announces a step transition, e.g. "[2/8] 00-idea → 01-prd".
func (p *Printer) StepStart(position, total int, from, to string) {
	p.line(p.header.Render(fmt.Sprintf("[%d/%d] %s → %s", position, total, from, to)))
}

// StatusBar renders every step, marking those up to and including current
// as done: "✅ 00-idea ▸ ✅ 01-prd ▸ ☐ 02-prd-plus".
func (p *Printer) StatusBar(steps []string, current int) {
	p.line(p.FormatStatusBar(steps, current))
}

// FormatStatusBar returns the [Printer.StatusBar] line without printing it.
func (p *Printer) FormatStatusBar(steps []string, current int) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		switch {
		case i == current:
			parts[i] = doneMark + " " + p.current.Render(s)
		case i < current:
			parts[i] = doneMark + " " + s
		default:
			parts[i] = pendingMark + " " + p.muted.Render(s)
		}
	}
	return strings.Join(parts, separator)
}

// SessionStarted marks the beginning of an agent session.
func (p *Printer) SessionStarted() {
	p.line(p.muted.Render("● agent session started"))
}

// SessionComplete marks the end of an agent session.
func (p *Printer) SessionComplete(d time.Duration) {
	p.line(p.muted.Render(fmt.Sprintf("● agent session complete (%s)", d.Round(time.Millisecond))))
}

// ToolUse shows a tool the agent invoked.
func (p *Printer) ToolUse(name, detail string) {
	if detail == "" {
		p.line(p.info.Render("  ⚙ " + name))
		return
	}
	p.line(p.info.Render("  ⚙ "+name) + " " + p.muted.Render(p.truncate(detail)))
}

// AgentText shows assistant text, truncated to one line.
func (p *Printer) AgentText(text string) {
	first, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	p.line("  " + p.truncate(first))
}

// Table prints rows under headers with aligned columns.
func (p *Printer) Table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	render := func(cells []string) string {
		padded := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			padded[i] = cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
		}
		return strings.TrimRight(strings.Join(padded, "  "), " ")
	}

	p.line(p.header.Render(render(headers)))
	for _, row := range rows {
		p.line(render(row))
	}
}

func (p *Printer) truncate(s string) string {
	limit := max(p.width-10, 40)
	if lipgloss.Width(s) <= limit {
		return s
	}
	r := []rune(s)
	if len(r) > limit-3 {
		r = r[:limit-3]
	}
	return string(r) + "..."
}

func (p *Printer) line(s string) {
	fmt.Fprintln(p.out, s)
}
