package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"filesorter/internal/rules"
	"filesorter/pkg/types"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#81A1C1"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#959595")).Width(12)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EBCB8B"))
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262")).
			Padding(0, 1)
)

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

// renderReport prints the summary of a sort pass.
func renderReport(w io.Writer, r *types.Report) {
	title := "Sort complete"
	if r.DryRun {
		title = "Dry run complete"
	}

	lines := []string{
		headerStyle.Render(title),
		row("Run", r.RunID),
		row("Moved", fmt.Sprintf("%d (%s)", r.Moved(), humanize.Bytes(uint64(r.BytesMoved())))),
	}
	if r.DryRun {
		lines = append(lines, row("Simulated", fmt.Sprint(r.Simulated())))
	}
	if n := r.BackedUp(); n > 0 {
		lines = append(lines, row("Backups", fmt.Sprint(n)))
	}
	lines = append(lines, row("Skipped", fmt.Sprint(len(r.Skipped))))
	if n := r.Collisions(); n > 0 {
		lines = append(lines, row("Collisions", warnStyle.Render(fmt.Sprint(n))))
	}
	failed := r.Failed()
	if failed > 0 {
		lines = append(lines, row("Failed", errorStyle.Render(fmt.Sprint(failed))))
	} else {
		lines = append(lines, row("Failed", okStyle.Render("0")))
	}

	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
	for _, o := range r.Outcomes {
		if o.Err != nil {
			fmt.Fprintln(w, errorStyle.Render("  "+o.Err.Error()))
		}
	}
}

// renderPlan prints one line per decision.
func renderPlan(w io.Writer, decisions []types.Decision) {
	if len(decisions) == 0 {
		fmt.Fprintln(w, "Nothing to sort.")
		return
	}
	for _, d := range decisions {
		dest := filepath.Join(filepath.Base(d.DestinationFolder), filepath.Base(d.DestinationPath))
		note := ""
		switch {
		case d.Action == types.ActionSkip && d.Collision:
			note = warnStyle.Render(" (exists, skipped)")
		case d.Action == types.ActionSkip:
			note = " (in place)"
		case d.Collision:
			note = warnStyle.Render(" (exists)")
		}
		if d.Backs() {
			note += " +backup"
		}
		fmt.Fprintf(w, "%-10s %s -> %s%s\n", d.Action, filepath.Base(d.Source), dest, note)
	}
}

// renderRules prints the rule set in match order.
func renderRules(w io.Writer, rs *rules.RuleSet) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%d rules (first match wins, MIME before extension)", rs.Len())))
	for i, r := range rs.Rules() {
		fmt.Fprintf(w, "%2d. %s -> %s/\n", i+1, r.Category, r.Target)
		if len(r.MIME) > 0 {
			fmt.Fprintln(w, "    "+row("mime", strings.Join(r.MIME, ", ")))
		}
		if len(r.Extensions) > 0 {
			fmt.Fprintln(w, "    "+row("extensions", strings.Join(r.Extensions, ", ")))
		}
	}
	fmt.Fprintln(w, row("unmatched", rs.OtherTarget()+"/"))
}
