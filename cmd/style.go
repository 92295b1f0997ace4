package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/eventlink/internal/demo"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#73F59F"})
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#FF8787"})
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#757575", Dark: "#8A8A8A"})
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#87AFFF"})
)

// formatResult renders one scenario line, e.g. "PASS counter  three listeners count (42µs)".
func formatResult(r demo.Result) string {
	mark := passStyle.Render("PASS")
	if !r.Passed() {
		mark = failStyle.Render("FAIL")
	}
	line := fmt.Sprintf("%s %-22s %s %s", mark, r.Name, r.Description,
		subtleStyle.Render("("+r.Elapsed.Round(time.Microsecond).String()+")"))
	if r.Err != nil {
		line += "\n     " + failStyle.Render(r.Err.Error())
	}
	return line
}

func formatSummary(total, failed int) string {
	if failed == 0 {
		return passStyle.Render(fmt.Sprintf("%d scenarios passed", total))
	}
	return failStyle.Render(fmt.Sprintf("%d of %d scenarios failed", failed, total))
}

// formatDiff colours the "- " and "+ " lines produced by config.Diff.
func formatDiff(diff string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimSuffix(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "- "):
			line = failStyle.Render(line)
		case strings.HasPrefix(line, "+ "):
			line = passStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
