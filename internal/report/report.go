package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/vk/projweave/internal/descriptor"
)

// Diagnostics writes one line per diagnostic. Nothing is written for an empty
// list.
func Diagnostics(w io.Writer, diags []descriptor.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	label := color.New(color.FgYellow, color.Bold)
	body := color.New(color.FgYellow)
	for _, d := range diags {
		label.Fprintf(w, "%s[%s]", d.Severity, d.Kind)
		body.Fprintf(w, " %s: %s\n", d.Project, d.Message)
	}
}

// Error writes a fatal composition error.
func Error(w io.Writer, err error) {
	color.New(color.FgRed, color.Bold).Fprint(w, "error")
	fmt.Fprintf(w, ": %v\n", err)
}

// Summary writes a one-line overview of m.
func Summary(w io.Writer, m *descriptor.Manifest) {
	color.New(color.FgGreen).Fprintf(w, "Resolved %s", m.Name)
	fmt.Fprintf(w, ": %d sources, %d libraries, %d defines, %d assets, %d parameters, %d sub-projects\n",
		len(m.Sources), len(m.Libraries), len(m.Defines), len(m.Assets), len(m.Parameters), len(m.Children))
	if n := len(m.Diagnostics); n > 0 {
		color.New(color.FgYellow).Fprintf(w, "%d warning(s)\n", n)
	}
}
