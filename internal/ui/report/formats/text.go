package formats

import (
	"fmt"
	"io"
	"strings"
	"time"

	"actiongen/internal/core/ports"
	"actiongen/internal/engine/diagnostics"

	"github.com/charmbracelet/lipgloss"
)

var (
	locationStyle = lipgloss.NewStyle().Bold(true)
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	noteStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	idStyle       = lipgloss.NewStyle().Faint(true)
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// TextWriter prints one line per diagnostic followed by a summary line, in
// the file:line:column form editors understand.
type TextWriter struct {
	Styled bool
}

func (t TextWriter) Write(w io.Writer, report ports.Report) error {
	var b strings.Builder
	for _, d := range report.Diagnostics {
		loc := d.File()
		if d.Line() > 0 {
			loc = fmt.Sprintf("%s:%d:%d", loc, d.Line(), d.Column())
		}
		fmt.Fprintf(&b, "%s: %s %s: %s\n",
			t.render(locationStyle, loc),
			t.render(severityStyle(d.Severity), d.Severity.String()),
			t.render(idStyle, d.ID()),
			d.Message)
	}

	emitted := 0
	for _, a := range report.Actions {
		if a.Emitted {
			emitted++
		}
	}
	summary := fmt.Sprintf("%s, %s (%d emitted), %s in %s",
		plural(report.Files, "file"),
		plural(len(report.Actions), "action"),
		emitted,
		plural(len(report.Diagnostics), "diagnostic"),
		report.Duration.Round(time.Millisecond))
	if len(report.Diagnostics) == 0 {
		summary = t.render(okStyle, summary)
	}
	b.WriteString(summary + "\n")
	if report.Written {
		fmt.Fprintf(&b, "wrote %s\n", report.Output)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (t TextWriter) render(style lipgloss.Style, s string) string {
	if !t.Styled {
		return s
	}
	return style.Render(s)
}

func severityStyle(s diagnostics.Severity) lipgloss.Style {
	switch s {
	case diagnostics.SevError:
		return errorStyle
	case diagnostics.SevWarning:
		return warningStyle
	}
	return noteStyle
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
