package tui

import (
	"github.com/charmbracelet/huh"

	"github.com/unibundle/unibundle/internal/core"
)

// Compile-time interface satisfaction checks.
var (
	_ core.UICallback = (*StyledCallback)(nil)
	_ core.UICallback = (*NonInteractiveCallback)(nil)
	_ core.UICallback = (*ProgressUI)(nil)
)

// StyledCallback implements core.UICallback with lipgloss-styled line
// output. It is the default for terminals when the progress display is not
// in use.
type StyledCallback struct{}

// NewStyledCallback creates a new styled terminal callback.
func NewStyledCallback() *StyledCallback {
	return &StyledCallback{}
}

// StageStarted prints a dimmed stage announcement.
func (c *StyledCallback) StageStarted(stage string) {
	PrintStage(stage)
}

// FileProcessed is a no-op in line mode; per-file output would drown the
// stage lines on large bundles.
func (c *StyledCallback) FileProcessed(string) {}

// ShowError displays a styled error.
func (c *StyledCallback) ShowError(title, message string) {
	PrintError(title, message)
}

// ShowSuccess displays a styled success message.
func (c *StyledCallback) ShowSuccess(message string) {
	PrintSuccess(message)
}

// ShowWarning displays a styled warning.
func (c *StyledCallback) ShowWarning(title, message string) {
	PrintWarning(title, message)
}

// AskConfirmation prompts the user for yes/no confirmation.
func AskConfirmation(title, message string) bool {
	var confirm bool
	err := huh.NewConfirm().
		Title(title).
		Description(message).
		Value(&confirm).
		Affirmative("Yes").
		Negative("No").
		Run()
	if err != nil {
		return false
	}
	return confirm
}
