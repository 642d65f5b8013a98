package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/viant/structmerge/merge"
	"github.com/viant/structmerge/merge/analysis"
)

var (
	styleError = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B9D"))

	styleMuted = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))

	styleHeading = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#56C3F4"))

	styleCount = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5AF78E"))
)

func defaultFreezeToken() string {
	return analysis.DefaultFreezeToken
}

func printError(err error) {
	fmt.Fprintln(os.Stderr, styleError.Render("error: ")+err.Error())
}

func printVerbose(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, styleMuted.Render(fmt.Sprintf(format, args...)))
}

// printStats renders the per-decision line tally
func printStats(result *merge.Result) {
	fmt.Fprintln(os.Stderr, styleHeading.Render("merge decisions"))
	decisions := make([]merge.Decision, 0, len(result.Stats))
	for decision := range result.Stats {
		decisions = append(decisions, decision)
	}
	sort.Slice(decisions, func(i, j int) bool { return decisions[i] < decisions[j] })
	for _, decision := range decisions {
		fmt.Fprintf(os.Stderr, "  %-18s %s\n",
			decision.String(),
			styleCount.Render(fmt.Sprintf("%d", result.Stats[decision])))
	}
}

// printProvenance renders the per-line provenance table
func printProvenance(result *merge.Result) {
	fmt.Fprintln(os.Stderr, styleHeading.Render("line provenance"))
	for _, record := range result.Provenance {
		origin := "synthesized"
		switch {
		case record.TemplateLine > 0:
			origin = fmt.Sprintf("template:%d", record.TemplateLine)
		case record.DestLine > 0:
			origin = fmt.Sprintf("destination:%d", record.DestLine)
		}
		fmt.Fprintf(os.Stderr, "  %4d  %-18s %s\n",
			record.Line, record.Decision.String(), styleMuted.Render(origin))
	}
}
