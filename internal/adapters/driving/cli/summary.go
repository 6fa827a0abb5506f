package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	labelStyle = lipgloss.NewStyle().Width(16).Foreground(lipgloss.Color("#6C7086"))
	valueStyle = lipgloss.NewStyle().Bold(true)
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F38BA8"))
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A6E3A1"))
)

type summaryLine struct {
	label string
	value int

	// bad marks counts that need attention when non-zero.
	bad bool
}

// renderSummary formats labelled counts under a title. Zero counts are left
// out unless keepZero is set.
func renderSummary(title string, lines []summaryLine, keepZero bool) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	shown := 0
	for _, l := range lines {
		if l.value == 0 && !keepZero {
			continue
		}
		style := valueStyle
		if l.bad && l.value > 0 {
			style = warnStyle
		}
		b.WriteString("  ")
		b.WriteString(labelStyle.Render(l.label))
		b.WriteString(style.Render(fmt.Sprint(l.value)))
		b.WriteString("\n")
		shown++
	}
	if shown == 0 {
		b.WriteString("  nothing to report\n")
	}
	return b.String()
}

func reportSummary(title string, r *domain.RunReport) string {
	return renderSummary(title, []summaryLine{
		{label: "fetched", value: r.Fetched},
		{label: "pages", value: r.Pages},
		{label: "unique", value: r.Unique},
		{label: "duplicates", value: r.Duplicates},
		{label: "converted", value: r.Converted},
		{label: "repaired", value: r.Repaired},
		{label: "errored", value: r.Errored, bad: true},
		{label: "rejected", value: r.Rejected, bad: true},
		{label: "imported", value: r.Imported},
		{label: "import failed", value: r.ImportFailed, bad: true},
		{label: "deleted", value: r.Deleted},
		{label: "delete failed", value: r.DeleteFailed, bad: true},
	}, false)
}

func comparisonSummary(title string, c *domain.Comparison) string {
	out := renderSummary(title, []summaryLine{
		{label: "matched", value: len(c.Matched)},
		{label: "mismatched", value: len(c.Mismatched), bad: true},
		{label: "missing", value: len(c.Missing), bad: true},
	}, true)
	if c.Clean() {
		return out + "  " + okStyle.Render("all records match") + "\n"
	}
	return out
}
