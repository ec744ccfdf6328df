package report

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/fatih/color"
	difflib "github.com/pmezard/go-difflib/difflib"
	"github.com/vk/projweave/internal/descriptor"
)

// diffContext is the number of context lines around each hunk.
const diffContext = 3

// Lines renders m as a canonical, line-per-entry listing. Two manifests
// describing the same build produce the same lines.
func Lines(m *descriptor.Manifest) []string {
	if m == nil {
		return nil
	}
	lines := []string{"name " + m.Name}
	for _, s := range m.Sources {
		lines = append(lines, "source "+s)
	}
	for _, l := range m.Libraries {
		lines = append(lines, "library "+l)
	}
	for _, d := range m.Defines {
		lines = append(lines, "define "+d.Literal)
	}
	for _, a := range m.Assets {
		lines = append(lines, assetLine(a))
	}
	for _, p := range m.Parameters {
		lines = append(lines, "parameter "+p)
	}
	for _, c := range m.Children {
		lines = append(lines, fmt.Sprintf("project %s %s", c.Name, c.Path))
	}
	return lines
}

func assetLine(a descriptor.Asset) string {
	var b strings.Builder
	fmt.Fprintf(&b, "asset %s notinlist=%t", a.Path, a.Options.NotInList)
	if a.Options.Name != "" {
		fmt.Fprintf(&b, " name=%q", a.Options.Name)
	}
	if a.Options.Destination != "" {
		fmt.Fprintf(&b, " destination=%q", a.Options.Destination)
	}
	for _, k := range slices.Sorted(maps.Keys(a.Options.Extra)) {
		fmt.Fprintf(&b, " %s=%q", k, a.Options.Extra[k])
	}
	return b.String()
}

// Diff returns a unified diff from prev to next, or "" when both describe the
// same build.
func Diff(oldName, newName string, prev, next *descriptor.Manifest) (string, error) {
	a, b := Lines(prev), Lines(next)
	if slices.Equal(a, b) {
		return "", nil
	}
	u := difflib.UnifiedDiff{
		A:        withNewlines(a),
		B:        withNewlines(b),
		FromFile: oldName,
		ToFile:   newName,
		Context:  diffContext,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return "", fmt.Errorf("failed to diff manifests: %w", err)
	}
	return s, nil
}

func withNewlines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}

// WriteDiff writes a unified diff with removed lines in red, added lines in
// green and hunk headers in cyan.
func WriteDiff(w io.Writer, diff string) {
	if diff == "" {
		color.New(color.FgGreen).Fprintln(w, "No changes")
		return
	}
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	bold := color.New(color.Bold)

	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case line == "":
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			bold.Fprint(w, line)
		case strings.HasPrefix(line, "@@"):
			cyan.Fprint(w, line)
		case strings.HasPrefix(line, "-"):
			red.Fprint(w, line)
		case strings.HasPrefix(line, "+"):
			green.Fprint(w, line)
		default:
			fmt.Fprint(w, line)
		}
	}
}
