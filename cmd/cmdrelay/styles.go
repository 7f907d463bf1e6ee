package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

var (
	styleModelLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	styleBanner     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func styleError(msg string) string {
	return red("Error: " + msg)
}

// styleOutcome colours an invocation outcome for --report.
func styleOutcome(outcome string) string {
	switch outcome {
	case "ok":
		return green(outcome)
	case "skipped":
		return yellow(outcome)
	default:
		return red(outcome)
	}
}
