// Package tui provides terminal output for unibundle: lipgloss-styled
// print helpers, UI callbacks for the merge pipeline, and a progress
// display for interactive terminals.
package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	styleErr     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// IsInteractive reports whether both stdin and stdout are terminals.
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

// PrintError prints a styled error title and message.
func PrintError(title, msg string) {
	fmt.Println(styleErr.Render("✖ " + title))
	fmt.Println(msg)
}

// PrintSuccess prints a styled success message.
func PrintSuccess(msg string) { fmt.Println(styleSuccess.Render("✔ " + msg)) }

// PrintWarning prints a styled warning title and message.
func PrintWarning(title, msg string) {
	fmt.Println(styleWarn.Render("! " + title))
	fmt.Println(msg)
}

// PrintStage prints a dimmed pipeline stage announcement.
func PrintStage(stage string) { fmt.Println(styleDim.Render("→ " + stage)) }
