package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Printer writes styled status lines to a single writer.
// It is safe for concurrent use.
type Printer struct {
	mu    sync.Mutex
	out   io.Writer
	theme Theme
}

// New creates a printer for w.
func New(w io.Writer) *Printer {
	if w == nil {
		w = io.Discard
	}
	r := lipgloss.NewRenderer(w)
	return &Printer{out: w, theme: NewTheme(r)}
}

func (p *Printer) writeln(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, s)
}

// Println writes an unstyled line.
func (p *Printer) Println(a ...any) {
	p.writeln(fmt.Sprint(a...))
}

// Printf writes an unstyled formatted line.
func (p *Printer) Printf(format string, a ...any) {
	p.writeln(fmt.Sprintf(format, a...))
}

// Title writes a heading followed by an underline of matching width.
func (p *Printer) Title(format string, a ...any) {
	text := fmt.Sprintf(format, a...)
	p.writeln(p.theme.Title.Render(text) + "\n" + p.theme.Border.Render(strings.Repeat("=", lipgloss.Width(text))))
}

// Step announces an action in progress.
func (p *Printer) Step(format string, a ...any) {
	p.writeln(p.theme.Primary.Render("→") + " " + fmt.Sprintf(format, a...))
}

// Success reports a completed action.
func (p *Printer) Success(format string, a ...any) {
	p.writeln(p.theme.Success.Render("✓") + " " + fmt.Sprintf(format, a...))
}

// Warn reports a recoverable problem.
func (p *Printer) Warn(format string, a ...any) {
	p.writeln(p.theme.Warn.Render("⚠") + " " + fmt.Sprintf(format, a...))
}

// Error reports a fatal problem.
func (p *Printer) Error(format string, a ...any) {
	p.writeln(p.theme.Danger.Render("✗ " + fmt.Sprintf(format, a...)))
}

// Hint writes indented remediation lines under an optional heading.
func (p *Printer) Hint(heading string, lines ...string) {
	if len(lines) == 0 {
		return
	}
	var b strings.Builder
	if heading != "" {
		b.WriteString("\n" + p.theme.Muted.Render(heading) + "\n")
	}
	for i, l := range lines {
		b.WriteString("  " + l)
		if i < len(lines)-1 {
			b.WriteString("\n")
		}
	}
	p.writeln(b.String())
}

// Code renders a command for inline use.
func (p *Printer) Code(s string) string {
	return p.theme.Code.Render(s)
}

// Table renders rows under headers with a rounded border.
func (p *Printer) Table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.theme.Border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.theme.Header
			}
			return p.theme.Base.Padding(0, 1)
		})
	p.writeln(t.String())
}
