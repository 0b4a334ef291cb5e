package report

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"scanline/internal/model"
)

var (
	headStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	okStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("78"))
)

// Table renders a human-readable summary plus one row per finding.
// Quiet level 1 drops info findings, level 2 drops warnings as well.
type Table struct {
	Quiet int
}

func (t *Table) Write(w io.Writer, r *model.Report) error {
	color := os.Getenv("NO_COLOR") == ""
	style := func(s lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return s.Render(text)
	}

	fmt.Fprintln(w, style(headStyle, fmt.Sprintf("scanline — %s (%s mode)", r.Root, r.Mode)))
	fmt.Fprintln(w)

	for _, f := range r.Findings {
		if t.skip(f.Severity) {
			continue
		}
		var sev string
		switch f.Severity {
		case model.SevError:
			sev = style(errStyle, "error")
		case model.SevWarning:
			sev = style(warnStyle, "warning")
		default:
			sev = style(infoStyle, "info")
		}
		fmt.Fprintf(w, "  %s  %-8s %-24s %s %s\n",
			fmt.Sprintf("%s:%d:%d", f.File, f.Line, f.Column),
			sev, f.RuleName, f.Message,
			style(dimStyle, "["+f.Category+"]"))
	}
	if len(r.Findings) > 0 {
		fmt.Fprintln(w)
	}

	summary := fmt.Sprintf("%d files (%d cached)  %d errors  %d warnings  %d infos",
		r.Totals.Files, r.Totals.Cached, r.Totals.Errors, r.Totals.Warnings, r.Totals.Infos)
	if r.Baseline.Baselined > 0 {
		summary += fmt.Sprintf("  (%d baselined)", r.Baseline.Baselined)
	}
	if r.Totals.Errors == 0 && r.Totals.Warnings == 0 {
		fmt.Fprintln(w, style(okStyle, summary))
	} else {
		fmt.Fprintln(w, summary)
	}
	fmt.Fprintln(w, style(dimStyle, fmt.Sprintf("completed in %dms  run %s", r.DurationMs, r.RunID)))
	return nil
}

func (t *Table) skip(sev model.Severity) bool {
	switch t.Quiet {
	case 0:
		return false
	case 1:
		return sev == model.SevInfo
	default:
		return sev != model.SevError
	}
}
