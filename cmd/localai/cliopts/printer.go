package cliopts

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	localai "github.com/Paranoid-AF/localai"
)

// Printer writes host notices, colored when w is a terminal.
type Printer struct {
	w       io.Writer
	info    lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	faint   lipgloss.Style
}

// NewPrinter returns a printer for w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		info:    r.NewStyle().Foreground(lipgloss.Color("2")),
		warning: r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		failure: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		faint:   r.NewStyle().Faint(true),
	}
}

// Notice prints n on its own line.
func (p *Printer) Notice(n localai.Notice) {
	style := p.info
	switch n.Severity {
	case localai.SeverityWarning:
		style = p.warning
	case localai.SeverityError:
		style = p.failure
	}
	fmt.Fprintln(p.w, style.Render(n.Message))
}

// Notices prints each notice in order.
func (p *Printer) Notices(notices []localai.Notice) {
	for _, n := range notices {
		p.Notice(n)
	}
}

// Faint prints a de-emphasized line.
func (p *Printer) Faint(format string, args ...any) {
	fmt.Fprintln(p.w, p.faint.Render(fmt.Sprintf(format, args...)))
}

// HasFailure reports whether any notice is an error.
func HasFailure(notices []localai.Notice) bool {
	for _, n := range notices {
		if n.Severity == localai.SeverityError {
			return true
		}
	}
	return false
}
