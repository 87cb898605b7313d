package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/tungetti/gauntlet/internal/engine"
	"github.com/tungetti/gauntlet/internal/runner"
)

// Status colors adapt to light and dark terminal backgrounds.
var (
	colorSuccess = lipgloss.AdaptiveColor{Light: "#22C55E", Dark: "#4ADE80"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#EAB308", Dark: "#FACC15"}
	colorError   = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
)

const statusWidth = len("SUCCESSFUL")

// reportStyles holds the styles used to print a run report.
type reportStyles struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
}

func newReportStyles(w io.Writer, noColor bool) reportStyles {
	r := lipgloss.NewRenderer(w)
	if noColor {
		r.SetColorProfile(termenv.Ascii)
	}
	return reportStyles{
		Title:   r.NewStyle().Bold(true),
		Success: r.NewStyle().Foreground(colorSuccess),
		Warning: r.NewStyle().Foreground(colorWarning),
		Error:   r.NewStyle().Foreground(colorError).Bold(true),
		Muted:   r.NewStyle().Foreground(colorMuted),
	}
}

func (s reportStyles) status(st engine.Status) lipgloss.Style {
	switch st {
	case engine.StatusSuccessful:
		return s.Success
	case engine.StatusSkipped:
		return s.Warning
	case engine.StatusFailed, engine.StatusAborted:
		return s.Error
	default:
		return s.Muted
	}
}

// writeReport prints one line per unit followed by failure details and a
// summary line.
func writeReport(w io.Writer, report runner.Report, noColor bool) {
	styles := newReportStyles(w, noColor)
	indent := strings.Repeat(" ", statusWidth)

	for _, res := range report.Results {
		label := strings.ToUpper(res.Status.String())
		pad := strings.Repeat(" ", max(statusWidth-len(label), 0))
		line := fmt.Sprintf("%s%s %s", styles.status(res.Status).Render(label), pad, res.DisplayName)
		if res.Duration > 0 {
			line += " " + styles.Muted.Render("("+res.Duration.Round(time.Microsecond).String()+")")
		}
		fmt.Fprintln(w, line)

		if res.Reason != "" {
			fmt.Fprintf(w, "%s %s\n", indent, styles.Muted.Render(res.Reason))
		}
		for _, f := range res.Failures {
			fmt.Fprintf(w, "%s %s %s: %v\n", indent,
				styles.Error.Render(f.Phase.String()), f.Source, f.Err)
		}
	}

	summary := fmt.Sprintf("%d units: %d succeeded, %d skipped, %d failed, %d aborted in %s",
		report.Total, report.Succeeded, report.Skipped, report.Failed, report.Aborted,
		report.TotalDuration.Round(time.Microsecond))
	if report.Success() {
		fmt.Fprintln(w, styles.Title.Render(summary))
	} else {
		fmt.Fprintln(w, styles.Error.Render(summary))
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
